package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"firestige.xyz/pktcraft/internal/core"
	"firestige.xyz/pktcraft/internal/core/codec"
)

// TableRenderer is implemented by types that can render themselves as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes data as a borderless, left-aligned table.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.Rows() {
		table.Append(row)
	}

	table.Render()
	return nil
}

// TableData is a simple implementation of TableRenderer for ad-hoc tables.
type TableData struct {
	headers []string
	rows    [][]string
}

func NewTableData(headers ...string) *TableData {
	return &TableData{
		headers: headers,
		rows:    make([][]string, 0),
	}
}

func (t *TableData) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

func (t *TableData) Headers() []string {
	return t.headers
}

func (t *TableData) Rows() [][]string {
	return t.rows
}

// FieldTable lists every header field with its decimal value and its wire bits.
func FieldTable(h *core.Header, upper bool) *TableData {
	t := NewTableData("Field", "Value", "Bits")
	hex16 := "0x%04x"
	if upper {
		hex16 = "0x%04X"
	}
	flags := codec.FlagsFragment(h.DontFragment(), h.MoreFragments(), h.FragmentOffset())

	t.AddRow("version", fmt.Sprint(h.Version()), bits(uint64(h.Version()), 4))
	t.AddRow("ihl", fmt.Sprint(h.HeaderLength()), bits(uint64(h.HeaderLength()), 4))
	t.AddRow("dscp", fmt.Sprint(h.DSCP()), bits(uint64(h.DSCP()), 6))
	t.AddRow("ecn", fmt.Sprint(h.ECN()), bits(uint64(h.ECN()), 2))
	t.AddRow("total_length", fmt.Sprint(h.TotalLength()), bits(uint64(h.TotalLength()), 16))
	t.AddRow("identification", fmt.Sprint(h.Identification()), bits(uint64(h.Identification()), 16))
	t.AddRow("dont_fragment", fmt.Sprint(h.DontFragment()), bits(uint64(flags>>14&1), 1))
	t.AddRow("more_fragments", fmt.Sprint(h.MoreFragments()), bits(uint64(flags>>13&1), 1))
	t.AddRow("fragment_offset", fmt.Sprint(h.FragmentOffset()), bits(uint64(h.FragmentOffset()), 13))
	t.AddRow("ttl", fmt.Sprint(h.TTL()), bits(uint64(h.TTL()), 8))
	t.AddRow("protocol", protocolName(h.Protocol()), bits(uint64(h.Protocol()), 8))
	t.AddRow("checksum", fmt.Sprintf(hex16, h.Checksum()), bits(uint64(h.Checksum()), 16))
	src, dst := h.Source(), h.Destination()
	t.AddRow("source", src.String(), codec.FormatBits(src[:]))
	t.AddRow("destination", dst.String(), codec.FormatBits(dst[:]))
	if h.OptionsLen() > 0 {
		t.AddRow("options", codec.FormatHex(h.Options(), upper), fmt.Sprintf("%d bytes", h.OptionsLen()))
	}
	if h.PayloadLen() > 0 {
		t.AddRow("payload", codec.FormatHex(h.Payload(), upper), fmt.Sprintf("%d bytes", h.PayloadLen()))
	}
	return t
}

func bits(v uint64, width int) string {
	return fmt.Sprintf("%0*b", width, v)
}

func protocolName(p uint8) string {
	switch p {
	case core.ProtocolICMP:
		return "1 (icmp)"
	case core.ProtocolTCP:
		return "6 (tcp)"
	case core.ProtocolUDP:
		return "17 (udp)"
	case core.ProtocolSCTP:
		return "132 (sctp)"
	}
	return fmt.Sprint(p)
}
