// Package output renders headers for CLI commands.
package output

import (
	"fmt"
	"io"
	"strings"

	"firestige.xyz/pktcraft/internal/config"
	"firestige.xyz/pktcraft/internal/core"
	"firestige.xyz/pktcraft/internal/core/codec"
)

type Format string

const (
	FormatHex   Format = config.FormatHex
	FormatBits  Format = config.FormatBits
	FormatRaw   Format = config.FormatRaw
	FormatTable Format = config.FormatTable
	FormatJSON  Format = config.FormatJSON
	FormatYAML  Format = config.FormatYAML
)

// ParseFormat parses a string into a Format, returning an error if invalid.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hex", "":
		return FormatHex, nil
	case "bits", "binary":
		return FormatBits, nil
	case "raw":
		return FormatRaw, nil
	case "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: hex, bits, raw, table, json, yaml)", s)
	}
}

func (f Format) String() string {
	return string(f)
}

// Printer handles formatted output to a writer.
type Printer struct {
	out    io.Writer
	format Format
	upper  bool
}

func NewPrinter(out io.Writer, format Format, upperHex bool) *Printer {
	return &Printer{
		out:    out,
		format: format,
		upper:  upperHex,
	}
}

// Print writes h in the printer's format. Raw output is the encoded bytes with no trailing newline.
func (p *Printer) Print(h *core.Header) error {
	switch p.format {
	case FormatHex:
		return p.line(codec.FormatHex(codec.Encode(h), p.upper))
	case FormatBits:
		return p.line(codec.BitString(h))
	case FormatRaw:
		_, err := p.out.Write(codec.Encode(h))
		return err
	case FormatTable:
		return PrintTable(p.out, FieldTable(h, p.upper))
	case FormatJSON, FormatYAML:
		data, err := config.MarshalProfile(config.ProfileFromHeader(h), string(p.format))
		if err != nil {
			return err
		}
		_, err = p.out.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", p.format)
	}
}

func (p *Printer) line(s string) error {
	_, err := fmt.Fprintln(p.out, s)
	return err
}
