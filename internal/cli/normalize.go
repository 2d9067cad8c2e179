package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"github.com/phambaophuc/image-normalizer/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	normalizeMaxWidth    int
	normalizeMaxHeight   int
	normalizeQuality     float64
	normalizeFormat      string
	normalizeNoThumbnail bool
	normalizeOutputDir   string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [flags] <file>",
	Short: "Resize and re-encode an image, writing the result and its thumbnail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, closeSource, err := openSource(args[0])
		if err != nil {
			return err
		}
		defer closeSource()

		opts := processor.Options{
			MaxWidth:        normalizeMaxWidth,
			MaxHeight:       normalizeMaxHeight,
			Quality:         normalizeQuality,
			OutputFormat:    normalizeFormat,
			CreateThumbnail: !normalizeNoThumbnail,
		}

		img, err := processor.NewImageProcessor().Normalize(src, opts)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(normalizeOutputDir, 0o755); err != nil {
			return err
		}

		base := strings.TrimSuffix(src.Filename, filepath.Ext(src.Filename))
		mainPath := filepath.Join(normalizeOutputDir, base+"."+utils.ExtensionFor(img.Main.MediaType))
		if err := os.WriteFile(mainPath, img.Main.Data, 0o644); err != nil {
			return err
		}

		stats := img.Stats()
		rows := []summaryRow{
			{Label: "Dimensions", Value: fmt.Sprintf("%dx%d", img.Dimensions.Width, img.Dimensions.Height)},
			{Label: "Format", Value: img.Main.MediaType},
			{Label: "Original size", Value: processor.FormatBytes(stats.OriginalSize)},
			{Label: "Compressed size", Value: processor.FormatBytes(stats.CompressedSize)},
			{Label: "Space saved", Value: fmt.Sprintf("%d%%", stats.SavedPercentage)},
			{Label: "Output", Value: mainPath},
		}

		if img.Thumbnail != nil {
			thumbPath := filepath.Join(normalizeOutputDir, base+".thumb."+utils.ExtensionFor(img.Thumbnail.MediaType))
			if err := os.WriteFile(thumbPath, img.Thumbnail.Data, 0o644); err != nil {
				return err
			}
			rows = append(rows,
				summaryRow{Label: "Thumbnail", Value: thumbPath},
				summaryRow{Label: "Thumbnail size", Value: fmt.Sprintf("%dx%d", img.Thumbnail.Dimensions.Width, img.Thumbnail.Dimensions.Height)},
			)
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(rows))
		return nil
	},
}

func init() {
	flags := normalizeCmd.Flags()
	flags.IntVar(&normalizeMaxWidth, "max-width", processor.DefaultMaxWidth, "maximum output width")
	flags.IntVar(&normalizeMaxHeight, "max-height", processor.DefaultMaxHeight, "maximum output height")
	flags.Float64VarP(&normalizeQuality, "quality", "q", processor.DefaultQuality, "JPEG quality between 0 and 1")
	flags.StringVarP(&normalizeFormat, "format", "f", processor.DefaultOutputFormat, "output media type")
	flags.BoolVar(&normalizeNoThumbnail, "no-thumbnail", false, "skip the thumbnail")
	flags.StringVarP(&normalizeOutputDir, "out", "o", "normalized", "destination folder")

	rootCmd.AddCommand(normalizeCmd)
}
