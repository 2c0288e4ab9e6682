package codec

import (
	"fmt"

	"firestige.xyz/pktcraft/internal/core"
)

// checksumOffset is the byte offset of the header checksum field.
const checksumOffset = 10

// Checksum computes the RFC 791 one's-complement checksum of a serialized header.
// The checksum field itself (bytes 10-11) is treated as zero; odd-length input is zero padded.
func Checksum(header []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(header); i += 2 {
		if i == checksumOffset {
			continue
		}
		sum += uint32(header[i])<<8 | uint32(header[i+1])
	}
	if len(header)%2 == 1 {
		sum += uint32(header[len(header)-1]) << 8
	}
	for sum>>16 != 0 {
		sum = sum&0xFFFF + sum>>16
	}
	return ^uint16(sum)
}

// HeaderBytes returns the serialized header of h without its payload.
func HeaderBytes(h *core.Header) []byte {
	b := Encode(h)
	return b[:core.MinHeaderLen+h.OptionsLen()]
}

// ComputeChecksum builds a header from f and returns the checksum its serialized header should carry.
// f.Checksum is ignored. Encode never calls this; callers opt in explicitly.
func ComputeChecksum(f core.Fields) (uint16, error) {
	f.Checksum = 0
	f.Payload = nil
	h, err := core.NewHeader(f)
	if err != nil {
		return 0, err
	}
	return Checksum(HeaderBytes(h)), nil
}

// VerifyChecksum compares the caller-supplied checksum of h with the computed one.
func VerifyChecksum(h *core.Header) error {
	want := Checksum(HeaderBytes(h))
	if got := h.Checksum(); got != want {
		return fmt.Errorf("%w: header carries 0x%04x, computed 0x%04x", core.ErrChecksumMismatch, got, want)
	}
	return nil
}
