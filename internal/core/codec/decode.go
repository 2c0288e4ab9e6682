package codec

import (
	"encoding/binary"

	"firestige.xyz/pktcraft/internal/core"
)

const maxHeaderLen = core.MinHeaderLen + core.MaxOptionsLen

// Decode parses an IPv4 header and its payload.
// The options occupy bytes 20..IHL*4 and everything after the header is payload.
// The result goes through core.NewHeader, so it satisfies the same invariants as a constructed header.
func Decode(data []byte) (*core.Header, error) {
	if len(data) < core.MinHeaderLen {
		return nil, core.ErrPacketTooShort
	}

	// Check IP version (first 4 bits)
	if version := data[0] >> 4; version != 4 {
		return nil, core.ErrUnsupportedVersion
	}

	// IHL is in 32-bit words
	ihl := data[0] & 0x0F
	headerLen := int(ihl) * 4
	if headerLen < core.MinHeaderLen || headerLen > maxHeaderLen {
		return nil, core.ErrBadHeaderLength
	}
	if len(data) < headerLen {
		return nil, core.ErrPacketTooShort
	}

	flagsOffset := binary.BigEndian.Uint16(data[6:8])

	f := core.Fields{
		Version:        4,
		HeaderLength:   ihl,
		DSCP:           data[1] >> 2,
		ECN:            data[1] & 0x03,
		TotalLength:    binary.BigEndian.Uint16(data[2:4]),
		Identification: binary.BigEndian.Uint16(data[4:6]),
		DontFragment:   flagsOffset&flagDontFragment != 0,
		MoreFragments:  flagsOffset&flagMoreFragments != 0,
		FragmentOffset: flagsOffset & fragmentMask,
		TTL:            data[8],
		Protocol:       data[9],
		Checksum:       binary.BigEndian.Uint16(data[10:12]),
		Source:         core.Addr(data[12:16]),
		Destination:    core.Addr(data[16:20]),
		Options:        data[core.MinHeaderLen:headerLen],
		Payload:        data[headerLen:],
	}
	return core.NewHeader(f)
}

// IsFragment reports whether h is part of a fragmented datagram.
func IsFragment(h *core.Header) bool {
	return h.MoreFragments() || h.FragmentOffset() != 0
}
