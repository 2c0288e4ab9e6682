// Package core defines sentinel errors.
package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	// Construction errors
	ErrExtensionTooLarge = errors.New("pktcraft: header extension exceeds 40 bytes")
	ErrFieldOutOfRange   = errors.New("pktcraft: field value out of range")
	ErrInvalidAddress    = errors.New("pktcraft: invalid dotted-decimal address")

	// Decoding errors
	ErrPacketTooShort     = errors.New("pktcraft: packet too short")
	ErrUnsupportedVersion = errors.New("pktcraft: unsupported IP version")
	ErrBadHeaderLength    = errors.New("pktcraft: bad header length")
	ErrUnsupportedLink    = errors.New("pktcraft: unsupported pcap link type")

	// Checksum errors
	ErrChecksumMismatch = errors.New("pktcraft: header checksum mismatch")

	// Profile errors
	ErrProfileInvalid = errors.New("pktcraft: invalid header profile")
)

// FieldError reports a header field whose value does not fit its bit width.
type FieldError struct {
	Field string
	Value uint64
	Max   uint64
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("pktcraft: field %s=%d out of range (max %d)", e.Field, e.Value, e.Max)
}

// Unwrap lets errors.Is match ErrFieldOutOfRange.
func (e *FieldError) Unwrap() error {
	return ErrFieldOutOfRange
}
