package codec

import (
	"fmt"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktcraft/internal/core"
)

// FromLayer builds a Header from a decoded gopacket IPv4 layer.
// The reserved ("evil") flag bit is dropped; raw option bytes come from the layer contents
// when present, otherwise they are re-encoded from the parsed options.
func FromLayer(ip *layers.IPv4) (*core.Header, error) {
	src := ip.SrcIP.To4()
	dst := ip.DstIP.To4()
	if src == nil || dst == nil {
		return nil, fmt.Errorf("%w: layer addresses %v -> %v", core.ErrInvalidAddress, ip.SrcIP, ip.DstIP)
	}

	f := core.Fields{
		Version:        ip.Version,
		HeaderLength:   ip.IHL,
		DSCP:           ip.TOS >> 2,
		ECN:            ip.TOS & 0x03,
		TotalLength:    ip.Length,
		Identification: ip.Id,
		DontFragment:   ip.Flags&layers.IPv4DontFragment != 0,
		MoreFragments:  ip.Flags&layers.IPv4MoreFragments != 0,
		FragmentOffset: ip.FragOffset,
		TTL:            ip.TTL,
		Protocol:       uint8(ip.Protocol),
		Checksum:       ip.Checksum,
		Source:         core.Addr(src),
		Destination:    core.Addr(dst),
		Options:        layerOptions(ip),
		Payload:        ip.Payload,
	}
	return core.NewHeader(f)
}

func layerOptions(ip *layers.IPv4) []byte {
	headerLen := int(ip.IHL) * 4
	if len(ip.Contents) >= headerLen && headerLen > core.MinHeaderLen {
		return ip.Contents[core.MinHeaderLen:headerLen]
	}

	var raw []byte
	for _, opt := range ip.Options {
		switch opt.OptionType {
		case 0, 1: // end of list, no-op
			raw = append(raw, opt.OptionType)
		default:
			raw = append(raw, opt.OptionType, opt.OptionLength)
			raw = append(raw, opt.OptionData...)
		}
	}
	return append(raw, ip.Padding...)
}
