// Package codec serializes and parses IPv4 header records.
package codec

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"firestige.xyz/pktcraft/internal/core"
)

// Flag bits of the flags/fragment-offset word. Bit 15 is reserved and always zero.
const (
	flagDontFragment  = 1 << 14
	flagMoreFragments = 1 << 13
	fragmentMask      = 0x1FFF
)

// Encode serializes h into a new byte slice:
// fixed 20-byte header, extension bytes, then payload.
func Encode(h *core.Header) []byte {
	return AppendEncode(make([]byte, 0, h.WireLen()), h)
}

// AppendEncode appends the serialized form of h to dst and returns the extended slice.
func AppendEncode(dst []byte, h *core.Header) []byte {
	dst = append(dst,
		h.Version()<<4|h.HeaderLength(),
		h.DSCP()<<2|h.ECN(),
	)
	dst = binary.BigEndian.AppendUint16(dst, h.TotalLength())
	dst = binary.BigEndian.AppendUint16(dst, h.Identification())
	dst = binary.BigEndian.AppendUint16(dst, FlagsFragment(h.DontFragment(), h.MoreFragments(), h.FragmentOffset()))
	dst = append(dst, h.TTL(), h.Protocol())
	dst = binary.BigEndian.AppendUint16(dst, h.Checksum())

	src, dstAddr := h.Source(), h.Destination()
	dst = append(dst, src[:]...)
	dst = append(dst, dstAddr[:]...)

	dst = h.AppendOptions(dst)
	return h.AppendPayload(dst)
}

// FlagsFragment packs the DF/MF flags and the 13-bit fragment offset into one word.
func FlagsFragment(dontFragment, moreFragments bool, offset uint16) uint16 {
	word := offset & fragmentMask
	if moreFragments {
		word |= flagMoreFragments
	}
	if dontFragment {
		word |= flagDontFragment
	}
	return word
}

// BitString renders Encode(h) as space-separated groups of eight '0'/'1' characters.
func BitString(h *core.Header) string {
	return FormatBits(Encode(h))
}

// FormatBits renders each byte MSB first, bytes separated by a single space.
func FormatBits(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(data)*9 - 1)
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		for bit := 7; bit >= 0; bit-- {
			sb.WriteByte('0' + (b>>uint(bit))&1)
		}
	}
	return sb.String()
}

// FormatHex renders data as space-separated two-digit hex bytes.
func FormatHex(data []byte, upper bool) string {
	if len(data) == 0 {
		return ""
	}
	parts := make([]string, len(data))
	for i := range data {
		parts[i] = hex.EncodeToString(data[i : i+1])
	}
	out := strings.Join(parts, " ")
	if upper {
		out = strings.ToUpper(out)
	}
	return out
}

// ParseHex accepts hex text with optional whitespace, ':' or '-' separators and an optional 0x prefix.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':', '-':
			return -1
		}
		return r
	}, s)
	return hex.DecodeString(clean)
}
