package codec

import (
	"net"

	"golang.org/x/net/ipv4"

	"firestige.xyz/pktcraft/internal/core"
)

// NetHeader converts h to the golang.org/x/net/ipv4 representation.
// Len is reported in bytes (IHL * 4), as ipv4.Header expects.
func NetHeader(h *core.Header) *ipv4.Header {
	var flags ipv4.HeaderFlags
	if h.DontFragment() {
		flags |= ipv4.DontFragment
	}
	if h.MoreFragments() {
		flags |= ipv4.MoreFragments
	}
	src, dst := h.Source(), h.Destination()
	return &ipv4.Header{
		Version:  int(h.Version()),
		Len:      int(h.HeaderLength()) * 4,
		TOS:      int(h.DSCP())<<2 | int(h.ECN()),
		TotalLen: int(h.TotalLength()),
		ID:       int(h.Identification()),
		Flags:    flags,
		FragOff:  int(h.FragmentOffset()),
		TTL:      int(h.TTL()),
		Protocol: int(h.Protocol()),
		Checksum: int(h.Checksum()),
		Src:      net.IPv4(src[0], src[1], src[2], src[3]).To4(),
		Dst:      net.IPv4(dst[0], dst[1], dst[2], dst[3]).To4(),
		Options:  h.Options(),
	}
}
