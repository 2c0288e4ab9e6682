package core

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"
)

func referenceFields() Fields {
	return Fields{
		Version:        4,
		HeaderLength:   5,
		TotalLength:    24,
		Identification: 12345,
		TTL:            64,
		Protocol:       ProtocolTCP,
		Source:         MustParseAddr("192.168.1.10"),
		Destination:    MustParseAddr("192.168.1.20"),
		Payload:        []byte("ahoj"),
	}
}

// Test zero values of core structs
func TestStructZeroValues(t *testing.T) {
	t.Run("Fields", func(t *testing.T) {
		var f Fields
		if f.Options != nil || f.Payload != nil {
			t.Errorf("expected nil slices, got options=%v payload=%v", f.Options, f.Payload)
		}
		if f.Source != (Addr{}) {
			t.Errorf("expected zero Source, got %v", f.Source)
		}
	})

	t.Run("ZeroFieldsConstruct", func(t *testing.T) {
		h, err := NewHeader(Fields{})
		if err != nil {
			t.Fatalf("NewHeader(zero) failed: %v", err)
		}
		if h.WireLen() != MinHeaderLen {
			t.Errorf("expected WireLen=%d, got %d", MinHeaderLen, h.WireLen())
		}
	})

	t.Run("RawPacket", func(t *testing.T) {
		var raw RawPacket
		if raw.Data != nil {
			t.Errorf("expected Data=nil, got %v", raw.Data)
		}
		if !raw.Timestamp.IsZero() {
			t.Errorf("expected zero Timestamp, got %v", raw.Timestamp)
		}
		if raw.Truncated() {
			t.Errorf("zero RawPacket reported as truncated")
		}
	})
}

func TestNewHeader(t *testing.T) {
	t.Run("Reference", func(t *testing.T) {
		h, err := NewHeader(referenceFields())
		if err != nil {
			t.Fatalf("NewHeader failed: %v", err)
		}
		if h.Version() != 4 || h.HeaderLength() != 5 {
			t.Errorf("expected version/ihl 4/5, got %d/%d", h.Version(), h.HeaderLength())
		}
		if h.Identification() != 12345 {
			t.Errorf("expected Identification=12345, got %d", h.Identification())
		}
		if h.Source().String() != "192.168.1.10" {
			t.Errorf("expected source 192.168.1.10, got %s", h.Source())
		}
		if h.WireLen() != 24 {
			t.Errorf("expected WireLen=24, got %d", h.WireLen())
		}
	})

	t.Run("OptionsBound", func(t *testing.T) {
		f := referenceFields()
		f.Options = make([]byte, MaxOptionsLen)
		if _, err := NewHeader(f); err != nil {
			t.Errorf("40-byte extension rejected: %v", err)
		}

		f.Options = make([]byte, MaxOptionsLen+1)
		h, err := NewHeader(f)
		if !errors.Is(err, ErrExtensionTooLarge) {
			t.Errorf("expected ErrExtensionTooLarge, got %v", err)
		}
		if h != nil {
			t.Errorf("expected nil header on failure, got %v", h)
		}
	})

	t.Run("FieldWidths", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Fields)
			field  string
		}{
			{"version", func(f *Fields) { f.Version = 16 }, "version"},
			{"ihl", func(f *Fields) { f.HeaderLength = 16 }, "header_length"},
			{"dscp", func(f *Fields) { f.DSCP = 64 }, "dscp"},
			{"ecn", func(f *Fields) { f.ECN = 4 }, "ecn"},
			{"fragment offset", func(f *Fields) { f.FragmentOffset = 0x2000 }, "fragment_offset"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := referenceFields()
				tt.mutate(&f)
				_, err := NewHeader(f)
				if !errors.Is(err, ErrFieldOutOfRange) {
					t.Fatalf("expected ErrFieldOutOfRange, got %v", err)
				}
				var fe *FieldError
				if !errors.As(err, &fe) {
					t.Fatalf("expected *FieldError, got %T", err)
				}
				if fe.Field != tt.field {
					t.Errorf("expected field %q, got %q", tt.field, fe.Field)
				}
			})
		}
	})

	t.Run("MaxWidthsAccepted", func(t *testing.T) {
		f := Fields{
			Version:        MaxVersion,
			HeaderLength:   MaxHeaderLength,
			DSCP:           MaxDSCP,
			ECN:            MaxECN,
			FragmentOffset: MaxFragmentOffset,
		}
		if _, err := NewHeader(f); err != nil {
			t.Errorf("maximum field values rejected: %v", err)
		}
	})
}

func TestHeaderImmutable(t *testing.T) {
	f := referenceFields()
	f.Options = []byte{1, 2, 3, 4}
	h, err := NewHeader(f)
	if err != nil {
		t.Fatalf("NewHeader failed: %v", err)
	}

	// Mutating the caller's slices must not leak into the header
	f.Payload[0] = 'X'
	f.Options[0] = 0xFF
	if !bytes.Equal(h.Payload(), []byte("ahoj")) {
		t.Errorf("payload changed through caller slice: %q", h.Payload())
	}
	if h.Options()[0] != 1 {
		t.Errorf("options changed through caller slice: %v", h.Options())
	}

	// Nor may mutating returned copies
	p := h.Payload()
	p[0] = 'Y'
	got := h.Fields()
	got.Options[1] = 0xEE
	if !bytes.Equal(h.Payload(), []byte("ahoj")) || h.Options()[1] != 2 {
		t.Errorf("header changed through accessor copies")
	}
}

func TestParseAddr(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		tests := []struct {
			in   string
			want Addr
		}{
			{"192.168.1.10", Addr{192, 168, 1, 10}},
			{"0.0.0.0", Addr{0, 0, 0, 0}},
			{"255.255.255.255", Addr{255, 255, 255, 255}},
			{"010.001.0.7", Addr{10, 1, 0, 7}},
		}
		for _, tt := range tests {
			got, err := ParseAddr(tt.in)
			if err != nil {
				t.Errorf("ParseAddr(%q) returned error: %v", tt.in, err)
				continue
			}
			if got != tt.want {
				t.Errorf("ParseAddr(%q) = %v, expected %v", tt.in, got, tt.want)
			}
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		inputs := []string{"", "1.2.3", "1.2.3.4.5", "256.0.0.1", "1..2.3", "a.b.c.d", "-1.2.3.4", " 1.2.3.4", "1.2.3.1000", "+1.2.3.4"}
		for _, in := range inputs {
			if _, err := ParseAddr(in); !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("ParseAddr(%q): expected ErrInvalidAddress, got %v", in, err)
			}
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		check := func(v [4]int) {
			s := fmt.Sprintf("%d.%d.%d.%d", v[0], v[1], v[2], v[3])
			a, err := ParseAddr(s)
			if err != nil {
				t.Fatalf("ParseAddr(%q) failed: %v", s, err)
			}
			for i := range v {
				if int(a[i]) != v[i] {
					t.Errorf("%s: octet %d = %d, expected %d", s, i, a[i], v[i])
				}
			}
			if a.String() != s {
				t.Errorf("String() = %q, expected %q", a.String(), s)
			}
		}

		// every value in every octet position
		for pos := 0; pos < 4; pos++ {
			for n := 0; n <= 255; n++ {
				v := [4]int{10, 200, 30, 250}
				v[pos] = n
				check(v)
			}
		}

		rng := rand.New(rand.NewSource(791))
		for i := 0; i < 2000; i++ {
			check([4]int{rng.Intn(256), rng.Intn(256), rng.Intn(256), rng.Intn(256)})
		}
	})

	t.Run("Text", func(t *testing.T) {
		var a Addr
		if err := a.UnmarshalText([]byte("172.16.0.9")); err != nil {
			t.Fatalf("UnmarshalText failed: %v", err)
		}
		text, _ := a.MarshalText()
		if string(text) != "172.16.0.9" {
			t.Errorf("MarshalText = %q", text)
		}
	})
}

// Test sentinel errors
func TestSentinelErrors(t *testing.T) {
	t.Run("ErrorMessages", func(t *testing.T) {
		tests := []struct {
			err     error
			message string
		}{
			{ErrExtensionTooLarge, "pktcraft: header extension exceeds 40 bytes"},
			{ErrInvalidAddress, "pktcraft: invalid dotted-decimal address"},
			{ErrPacketTooShort, "pktcraft: packet too short"},
			{ErrChecksumMismatch, "pktcraft: header checksum mismatch"},
		}

		for _, tt := range tests {
			if tt.err.Error() != tt.message {
				t.Errorf("expected error message %q, got %q", tt.message, tt.err.Error())
			}
		}
	})

	t.Run("FieldErrorWrapping", func(t *testing.T) {
		err := fmt.Errorf("build: %w", &FieldError{Field: "ecn", Value: 9, Max: 3})
		if !errors.Is(err, ErrFieldOutOfRange) {
			t.Error("errors.Is failed for wrapped FieldError")
		}
		if err.Error() != "build: pktcraft: field ecn=9 out of range (max 3)" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}

func TestRawPacketTruncated(t *testing.T) {
	p := RawPacket{Data: []byte{0x45}, Timestamp: time.Now(), CaptureLen: 1, OrigLen: 20}
	if !p.Truncated() {
		t.Error("expected truncated packet")
	}
}
