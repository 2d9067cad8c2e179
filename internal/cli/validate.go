package cli

import (
	"errors"
	"fmt"

	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a file would be accepted for upload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, closeSource, err := openSource(args[0])
		if err != nil {
			return err
		}
		defer closeSource()

		p := processor.NewImageProcessor()
		result := p.Validate(src)
		if !result.Valid {
			return errors.New(result.Error)
		}

		dims, _, err := p.GetImageInfo(src)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %dx%d, %s)\n",
			successStyle.Render("valid"), src.Filename, src.MediaType,
			dims.Width, dims.Height, processor.FormatBytes(src.Size))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
