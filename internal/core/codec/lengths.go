package codec

import (
	"fmt"

	"firestige.xyz/pktcraft/internal/core"
)

// FillLengths returns f with HeaderLength and TotalLength derived from the options and payload.
// Options must be a whole number of 32-bit words; the resulting total length must fit 16 bits.
func FillLengths(f core.Fields) (core.Fields, error) {
	if len(f.Options) > core.MaxOptionsLen {
		return f, core.ErrExtensionTooLarge
	}
	if len(f.Options)%4 != 0 {
		return f, fmt.Errorf("%w: %d option bytes is not a multiple of 4", core.ErrBadHeaderLength, len(f.Options))
	}
	total := core.MinHeaderLen + len(f.Options) + len(f.Payload)
	if total > 0xFFFF {
		return f, &core.FieldError{Field: "total_length", Value: uint64(total), Max: 0xFFFF}
	}
	f.HeaderLength = uint8(5 + len(f.Options)/4)
	f.TotalLength = uint16(total)
	return f, nil
}
