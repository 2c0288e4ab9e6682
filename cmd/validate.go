package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/pktcraft/internal/config"
	"firestige.xyz/pktcraft/internal/core"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a header profile",
	Long: `Validate a header profile file (JSON or YAML) without encoding it.

File format is auto-detected from extension (.json, .yaml, .yml).

Examples:
  pktcraft validate -f header.yaml
  pktcraft validate -f header.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(validateFile, cmd.OutOrStdout())
	},
}

var validateFile string

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "",
		"header profile to validate (required)")
	_ = validateCmd.MarkFlagRequired("file")
}

func runValidate(path string, out io.Writer) error {
	var h *core.Header
	p, err := config.LoadProfile(path)
	if err == nil {
		h, err = p.Build()
	}
	if err != nil {
		if _, werr := fmt.Fprintf(out, "INVALID: %v\n", err); werr != nil {
			return werr
		}
		return err
	}

	_, err = fmt.Fprintf(out, "VALID: %s -> %s, protocol %d, %d bytes\n",
		h.Source(), h.Destination(), h.Protocol(), h.WireLen())
	return err
}
