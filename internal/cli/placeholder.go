package cli

import (
	"fmt"

	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"github.com/spf13/cobra"
)

var placeholderCmd = &cobra.Command{
	Use:   "placeholder <file>",
	Short: "Print a tiny blur placeholder as a data URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, closeSource, err := openSource(args[0])
		if err != nil {
			return err
		}
		defer closeSource()

		placeholder, err := processor.NewImageProcessor().BlurPlaceholder(src)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), placeholder.DataURL())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(placeholderCmd)
}
