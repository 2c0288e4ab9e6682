package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/pktcraft/internal/config"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print a sample header profile",
	Long: `Print a sample header profile to use as a starting point.

Examples:
  pktcraft template > header.yaml
  pktcraft template -o json > header.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTemplate(templateFormat, cmd.OutOrStdout())
	},
}

var templateFormat string

func init() {
	templateCmd.Flags().StringVarP(&templateFormat, "format", "o", config.FormatYAML, "profile format (yaml, json)")
}

func runTemplate(format string, out io.Writer) error {
	data, err := config.MarshalProfile(config.DefaultProfile(), format)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
