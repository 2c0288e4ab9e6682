package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"firestige.xyz/pktcraft/internal/config"
	"firestige.xyz/pktcraft/internal/core"
	"firestige.xyz/pktcraft/internal/core/codec"
	"firestige.xyz/pktcraft/internal/log"
	"firestige.xyz/pktcraft/internal/output"
	"firestige.xyz/pktcraft/internal/pcapio"
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build an IPv4 header and print its bytes",
	Long: `Build an IPv4 header from a profile file and/or field flags and print it.
Field flags override values from the profile. Addresses are required.

Examples:
  pktcraft encode -p header.yaml
  pktcraft encode -p header.yaml --ttl 1 --format bits
  pktcraft encode --src 10.0.0.1 --dst 10.0.0.2 --protocol 17 --payload-hex 0011 --auto-length --auto-checksum
  pktcraft encode -p header.yaml --pcap out.pcap`,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := fieldOverrides(cmd.Flags())
		if err != nil {
			return err
		}
		encodeOpts.overrides = overrides
		if !cmd.Flags().Changed("format") {
			encodeOpts.format = appConfig.Output.Format
		}
		encodeOpts.upperHex = appConfig.Output.UpperHex
		return runEncode(encodeOpts, cmd.OutOrStdout())
	},
}

type encodeOptions struct {
	profile      string
	format       string
	pcapPath     string
	autoLength   bool
	autoChecksum bool
	upperHex     bool
	overrides    map[string]any
}

var encodeOpts encodeOptions

// fieldFlag binds a command-line flag to a profile key.
type fieldFlag struct {
	flag  string
	key   string
	kind  string
	usage string
}

var fieldFlags = []fieldFlag{
	{"ip-version", "version", "int", "version field (4 bits)"},
	{"ihl", "ihl", "int", "header length in 32-bit words (4 bits)"},
	{"dscp", "dscp", "int", "differentiated services code point (6 bits)"},
	{"ecn", "ecn", "int", "explicit congestion notification (2 bits)"},
	{"total-length", "total_length", "int", "total length in bytes"},
	{"id", "identification", "int", "identification"},
	{"df", "dont_fragment", "bool", "set the don't-fragment flag"},
	{"mf", "more_fragments", "bool", "set the more-fragments flag"},
	{"frag-offset", "fragment_offset", "int", "fragment offset in 8-byte units (13 bits)"},
	{"ttl", "ttl", "int", "time to live"},
	{"protocol", "protocol", "int", "upper-layer protocol number"},
	{"checksum", "checksum", "int", "header checksum"},
	{"src", "source", "string", "source address (dotted decimal)"},
	{"dst", "destination", "string", "destination address (dotted decimal)"},
	{"options", "options_hex", "string", "options as hex, at most 40 bytes"},
	{"payload", "payload", "string", "payload text"},
	{"payload-hex", "payload_hex", "string", "payload as hex"},
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeOpts.profile, "profile", "p", "", "header profile file (.yaml, .yml, .json)")
	encodeCmd.Flags().StringVarP(&encodeOpts.format, "format", "o", config.FormatHex,
		"output format (hex, bits, raw, table, json, yaml)")
	encodeCmd.Flags().StringVar(&encodeOpts.pcapPath, "pcap", "", "also write the packet to this pcap file")
	encodeCmd.Flags().BoolVar(&encodeOpts.autoLength, "auto-length", false, "derive ihl and total_length")
	encodeCmd.Flags().BoolVar(&encodeOpts.autoChecksum, "auto-checksum", false, "compute the header checksum")

	for _, ff := range fieldFlags {
		switch ff.kind {
		case "int":
			encodeCmd.Flags().Int(ff.flag, 0, ff.usage)
		case "bool":
			encodeCmd.Flags().Bool(ff.flag, false, ff.usage)
		default:
			encodeCmd.Flags().String(ff.flag, "", ff.usage)
		}
	}
}

// fieldOverrides collects the field flags set on the command line, keyed by profile key.
func fieldOverrides(fs *pflag.FlagSet) (map[string]any, error) {
	overrides := make(map[string]any)
	for _, ff := range fieldFlags {
		if !fs.Changed(ff.flag) {
			continue
		}
		var (
			v   any
			err error
		)
		switch ff.kind {
		case "int":
			v, err = fs.GetInt(ff.flag)
		case "bool":
			v, err = fs.GetBool(ff.flag)
		default:
			v, err = fs.GetString(ff.flag)
		}
		if err != nil {
			return nil, err
		}
		overrides[ff.key] = v
	}
	return overrides, nil
}

func runEncode(opts encodeOptions, out io.Writer) error {
	logger := log.GetLogger()

	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	h, err := buildHeader(opts)
	if err != nil {
		logger.WithError(err).Error("failed to build header")
		return err
	}
	logger.WithFields(map[string]interface{}{
		"src":   h.Source().String(),
		"dst":   h.Destination().String(),
		"bytes": h.WireLen(),
	}).Debug("header encoded")

	if opts.pcapPath != "" {
		if err := writePcap(opts.pcapPath, h); err != nil {
			logger.WithError(err).Error("failed to write pcap")
			return err
		}
		logger.WithField("path", opts.pcapPath).Info("pcap written")
	}

	return output.NewPrinter(out, format, opts.upperHex).Print(h)
}

func buildHeader(opts encodeOptions) (*core.Header, error) {
	raw := map[string]any{}
	if opts.profile != "" {
		var err error
		if raw, err = config.ReadProfileMap(opts.profile); err != nil {
			return nil, err
		}
	}
	for k, v := range opts.overrides {
		raw[k] = v
		if other, ok := exclusiveKeys[k]; ok {
			if _, both := opts.overrides[other]; !both {
				delete(raw, other)
			}
		}
	}
	if opts.autoLength {
		raw["auto_length"] = true
	}
	if opts.autoChecksum {
		raw["auto_checksum"] = true
	}

	p, err := config.DecodeProfile(raw)
	if err != nil {
		return nil, err
	}
	return p.Build()
}

// exclusiveKeys pairs profile keys that cannot both be set; overriding one drops the other.
var exclusiveKeys = map[string]string{
	"payload":     "payload_hex",
	"payload_hex": "payload",
}

func writePcap(path string, h *core.Header) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	err = pcapio.WritePackets(f, []core.RawPacket{{Data: codec.Encode(h), Timestamp: time.Now()}})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
