package core

// Bit-width limits of the sub-byte header fields.
const (
	MaxVersion        = 0x0F
	MaxHeaderLength   = 0x0F
	MaxDSCP           = 0x3F
	MaxECN            = 0x03
	MaxFragmentOffset = 0x1FFF

	// MaxOptionsLen is the largest header extension that still fits a 60-byte header.
	MaxOptionsLen = 40

	// MinHeaderLen is the length of a header without extension bytes.
	MinHeaderLen = 20
)

// Fields carries the caller-supplied values of an IPv4 header.
// Each field is typed to the smallest Go integer holding its bit range;
// sub-byte ranges are checked by NewHeader.
type Fields struct {
	Version        uint8  // 4 bits
	HeaderLength   uint8  // 4 bits, in 32-bit words (IHL)
	DSCP           uint8  // 6 bits, traffic class high part
	ECN            uint8  // 2 bits, traffic class low part
	TotalLength    uint16 // header + payload, in bytes
	Identification uint16
	DontFragment   bool
	MoreFragments  bool
	FragmentOffset uint16 // 13 bits
	TTL            uint8
	Protocol       uint8
	Checksum       uint16 // serialized verbatim, never computed here
	Source         Addr
	Destination    Addr
	Options        []byte // 0..40 bytes
	Payload        []byte
}

// Header is an immutable IPv4 header record plus its payload.
// Values are only obtainable through NewHeader, so every Header satisfies the field width invariants.
type Header struct {
	f Fields
}

// NewHeader validates f and returns an immutable Header.
// Options and Payload are copied; later changes to the caller's slices do not affect the Header.
func NewHeader(f Fields) (*Header, error) {
	if len(f.Options) > MaxOptionsLen {
		return nil, ErrExtensionTooLarge
	}
	checks := []struct {
		name  string
		value uint64
		max   uint64
	}{
		{"version", uint64(f.Version), MaxVersion},
		{"header_length", uint64(f.HeaderLength), MaxHeaderLength},
		{"dscp", uint64(f.DSCP), MaxDSCP},
		{"ecn", uint64(f.ECN), MaxECN},
		{"fragment_offset", uint64(f.FragmentOffset), MaxFragmentOffset},
	}
	for _, c := range checks {
		if c.value > c.max {
			return nil, &FieldError{Field: c.name, Value: c.value, Max: c.max}
		}
	}

	f.Options = cloneBytes(f.Options)
	f.Payload = cloneBytes(f.Payload)
	return &Header{f: f}, nil
}

// Fields returns a copy of the header's field values.
func (h *Header) Fields() Fields {
	f := h.f
	f.Options = cloneBytes(h.f.Options)
	f.Payload = cloneBytes(h.f.Payload)
	return f
}

func (h *Header) Version() uint8         { return h.f.Version }
func (h *Header) HeaderLength() uint8    { return h.f.HeaderLength }
func (h *Header) DSCP() uint8            { return h.f.DSCP }
func (h *Header) ECN() uint8             { return h.f.ECN }
func (h *Header) TotalLength() uint16    { return h.f.TotalLength }
func (h *Header) Identification() uint16 { return h.f.Identification }
func (h *Header) DontFragment() bool     { return h.f.DontFragment }
func (h *Header) MoreFragments() bool    { return h.f.MoreFragments }
func (h *Header) FragmentOffset() uint16 { return h.f.FragmentOffset }
func (h *Header) TTL() uint8             { return h.f.TTL }
func (h *Header) Protocol() uint8        { return h.f.Protocol }
func (h *Header) Checksum() uint16       { return h.f.Checksum }
func (h *Header) Source() Addr           { return h.f.Source }
func (h *Header) Destination() Addr      { return h.f.Destination }
func (h *Header) OptionsLen() int        { return len(h.f.Options) }
func (h *Header) PayloadLen() int        { return len(h.f.Payload) }
func (h *Header) Options() []byte        { return cloneBytes(h.f.Options) }
func (h *Header) Payload() []byte        { return cloneBytes(h.f.Payload) }

// AppendOptions appends the extension bytes to dst without exposing the internal slice.
func (h *Header) AppendOptions(dst []byte) []byte { return append(dst, h.f.Options...) }

// AppendPayload appends the payload bytes to dst without exposing the internal slice.
func (h *Header) AppendPayload(dst []byte) []byte { return append(dst, h.f.Payload...) }

// WireLen is the number of bytes the serialized header and payload occupy.
func (h *Header) WireLen() int {
	return MinHeaderLen + len(h.f.Options) + len(h.f.Payload)
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
