package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/pktcraft/internal/config"
	"firestige.xyz/pktcraft/internal/core"
	"firestige.xyz/pktcraft/internal/core/codec"
	"firestige.xyz/pktcraft/internal/log"
	"firestige.xyz/pktcraft/internal/output"
	"firestige.xyz/pktcraft/internal/pcapio"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode IPv4 headers into their fields",
	Long: `Decode IPv4 headers from a hex string, a raw binary file or a pcap file.
The table format also prints a one-line summary and the checksum status.

Examples:
  pktcraft decode --hex "45 00 00 18 30 39 00 00 40 06 00 00 C0 A8 01 0A C0 A8 01 14 61 68 6F 6A"
  pktcraft decode --in header.bin -o yaml
  pktcraft decode --pcap capture.pcap`,
	RunE: func(cmd *cobra.Command, args []string) error {
		decodeOpts.upperHex = appConfig.Output.UpperHex
		return runDecode(decodeOpts, cmd.OutOrStdout())
	},
}

type decodeOptions struct {
	hex      string
	inFile   string
	pcapPath string
	format   string
	upperHex bool
}

var decodeOpts decodeOptions

func init() {
	decodeCmd.Flags().StringVar(&decodeOpts.hex, "hex", "", "header bytes as hex")
	decodeCmd.Flags().StringVar(&decodeOpts.inFile, "in", "", "file holding raw header bytes")
	decodeCmd.Flags().StringVar(&decodeOpts.pcapPath, "pcap", "", "pcap file to decode")
	decodeCmd.Flags().StringVarP(&decodeOpts.format, "format", "o", config.FormatTable,
		"output format (table, hex, bits, raw, json, yaml)")
	decodeCmd.MarkFlagsMutuallyExclusive("hex", "in", "pcap")
	decodeCmd.MarkFlagsOneRequired("hex", "in", "pcap")
}

func runDecode(opts decodeOptions, out io.Writer) error {
	logger := log.GetLogger()

	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	headers, err := readInput(opts)
	if err != nil {
		logger.WithError(err).Error("failed to read input")
		return err
	}
	if len(headers) == 0 {
		return errors.New("no IPv4 packets found")
	}

	printer := output.NewPrinter(out, format, opts.upperHex)
	for i, h := range headers {
		logger.WithField("packet", i).Debugf("decoded %d header bytes", core.MinHeaderLen+h.OptionsLen())

		if i > 0 {
			if err := separator(out, format); err != nil {
				return err
			}
		}
		if format == output.FormatTable {
			if err := printSummary(out, h); err != nil {
				return err
			}
		}
		if err := printer.Print(h); err != nil {
			return err
		}
	}
	return nil
}

// readInput decodes hex and raw files with the native decoder; pcap files go through gopacket.
func readInput(opts decodeOptions) ([]*core.Header, error) {
	var data []byte
	switch {
	case opts.hex != "":
		var err error
		if data, err = codec.ParseHex(opts.hex); err != nil {
			return nil, err
		}
	case opts.inFile != "":
		var err error
		if data, err = os.ReadFile(opts.inFile); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", opts.inFile, err)
		}
	case opts.pcapPath != "":
		f, err := os.Open(opts.pcapPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", opts.pcapPath, err)
		}
		defer f.Close()
		return pcapio.ReadHeaders(f)
	default:
		return nil, errors.New("one of --hex, --in or --pcap is required")
	}

	h, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return []*core.Header{h}, nil
}

// printSummary writes the one-line header summary and the checksum status.
func printSummary(out io.Writer, h *core.Header) error {
	status := "valid"
	if err := codec.VerifyChecksum(h); err != nil {
		status = err.Error()
	}
	if _, err := fmt.Fprintf(out, "%s\nchecksum: %s\n", codec.NetHeader(h), status); err != nil {
		return err
	}
	if codec.IsFragment(h) {
		if _, err := fmt.Fprintf(out, "fragment: offset %d bytes, more=%t\n", int(h.FragmentOffset())*8, h.MoreFragments()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(out)
	return err
}

func separator(out io.Writer, format output.Format) error {
	var err error
	switch format {
	case output.FormatYAML:
		_, err = fmt.Fprintln(out, "---")
	case output.FormatTable:
		_, err = fmt.Fprintln(out)
	}
	return err
}
