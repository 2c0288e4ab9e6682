// Package core defines core data structures with zero external dependencies.
package core

import "time"

// RawPacket is one serialized IPv4 packet together with its capture metadata.
// It is the unit exchanged with pcap files.
type RawPacket struct {
	Data       []byte    // IPv4 header and payload, starting at the version nibble
	Timestamp  time.Time // Capture timestamp
	CaptureLen uint32    // Bytes present in Data
	OrigLen    uint32    // Length of the packet on the wire
}

// Truncated reports whether fewer bytes were captured than were on the wire.
func (p RawPacket) Truncated() bool {
	return p.CaptureLen < p.OrigLen
}
