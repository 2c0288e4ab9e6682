// Package pcapio reads and writes serialized IPv4 packets as pcap files.
package pcapio

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/pktcraft/internal/core"
	"firestige.xyz/pktcraft/internal/core/codec"
)

// DefaultSnapLen matches the largest possible IPv4 datagram.
const DefaultSnapLen = 65535

// Writer appends raw IPv4 packets to a pcap stream with LinkTypeIPv4.
type Writer struct {
	w       *pcapgo.Writer
	snapLen uint32
	now     func() time.Time
}

// NewWriter writes the pcap file header and returns a Writer.
// A zero snapLen selects DefaultSnapLen.
func NewWriter(w io.Writer, snapLen uint32) (*Writer, error) {
	if snapLen == 0 {
		snapLen = DefaultSnapLen
	}
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, layers.LinkTypeIPv4); err != nil {
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}
	return &Writer{w: pw, snapLen: snapLen, now: time.Now}, nil
}

// Write appends one packet. Packets longer than the snap length are truncated on disk
// and recorded with their original length. A zero timestamp is replaced by the current time.
func (w *Writer) Write(p core.RawPacket) error {
	ts := p.Timestamp
	if ts.IsZero() {
		ts = w.now()
	}
	data := p.Data
	if uint32(len(data)) > w.snapLen {
		data = data[:w.snapLen]
	}
	orig := p.OrigLen
	if orig < uint32(len(p.Data)) {
		orig = uint32(len(p.Data))
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        int(orig),
	}
	if err := w.w.WritePacket(ci, data); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}
	return nil
}

// WritePackets writes a complete pcap stream holding packets.
func WritePackets(w io.Writer, packets []core.RawPacket) error {
	pw, err := NewWriter(w, 0)
	if err != nil {
		return err
	}
	for i, p := range packets {
		if err := pw.Write(p); err != nil {
			return fmt.Errorf("packet %d: %w", i, err)
		}
	}
	return nil
}

// ReadPackets reads every IPv4 packet of a pcap stream.
// Raw IPv4 link types are returned as-is; Ethernet frames are unwrapped and
// frames that do not carry IPv4 are skipped.
func ReadPackets(r io.Reader) ([]core.RawPacket, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap stream: %w", err)
	}

	linkType := pr.LinkType()
	switch linkType {
	case layers.LinkTypeIPv4, layers.LinkTypeRaw, layers.LinkTypeEthernet:
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedLink, linkType)
	}

	var packets []core.RawPacket
	for {
		data, ci, err := pr.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return packets, nil
		}
		if err != nil {
			return packets, fmt.Errorf("failed to read packet: %w", err)
		}

		if linkType == layers.LinkTypeEthernet {
			data = unwrapEthernet(data)
			if data == nil {
				continue
			}
		}
		packets = append(packets, core.RawPacket{
			Data:       data,
			Timestamp:  ci.Timestamp,
			CaptureLen: uint32(len(data)),
			OrigLen:    uint32(ci.Length - (ci.CaptureLength - len(data))),
		})
	}
}

// unwrapEthernet returns the IPv4 bytes of an Ethernet frame, or nil when the frame carries no IPv4.
func unwrapEthernet(frame []byte) []byte {
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	ipLayer := pkt.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return nil
	}
	out := make([]byte, 0, len(ipLayer.LayerContents())+len(ipLayer.LayerPayload()))
	out = append(out, ipLayer.LayerContents()...)
	return append(out, ipLayer.LayerPayload()...)
}

// ReadHeaders reads a pcap stream and converts every IPv4 packet through gopacket's IPv4 layer.
// gopacket bounds the payload by the total length field, so Ethernet padding is dropped.
func ReadHeaders(r io.Reader) ([]*core.Header, error) {
	packets, err := ReadPackets(r)
	if err != nil {
		return nil, err
	}
	headers := make([]*core.Header, 0, len(packets))
	for i, p := range packets {
		ip := &layers.IPv4{}
		if err := ip.DecodeFromBytes(p.Data, gopacket.NilDecodeFeedback); err != nil {
			return nil, fmt.Errorf("packet %d: gopacket decode: %w", i, err)
		}
		h, err := codec.FromLayer(ip)
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", i, err)
		}
		headers = append(headers, h)
	}
	return headers, nil
}
