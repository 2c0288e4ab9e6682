// Package core defines core types with zero external dependencies.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Addr is an IPv4 address in wire order.
type Addr [4]byte

// Common IP protocol numbers.
const (
	ProtocolICMP uint8 = 1
	ProtocolTCP  uint8 = 6
	ProtocolUDP  uint8 = 17
	ProtocolSCTP uint8 = 132
)

// ParseAddr parses dotted-decimal text such as "192.168.1.10".
// Exactly four decimal octets in [0,255] are accepted; anything else wraps ErrInvalidAddress.
func ParseAddr(s string) (Addr, error) {
	var a Addr
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return a, fmt.Errorf("%w: %q has %d octets", ErrInvalidAddress, s, len(parts))
	}
	for i, p := range parts {
		if p == "" || len(p) > 3 || strings.TrimLeft(p, "0123456789") != "" {
			return a, fmt.Errorf("%w: %q octet %d is not a decimal number", ErrInvalidAddress, s, i+1)
		}
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return a, fmt.Errorf("%w: %q octet %d exceeds 255", ErrInvalidAddress, s, i+1)
		}
		a[i] = byte(v)
	}
	return a, nil
}

// MustParseAddr is like ParseAddr but panics on error. Intended for tests and constants.
func MustParseAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the dotted-decimal form.
func (a Addr) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}

// MarshalText implements encoding.TextMarshaler.
func (a Addr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Addr) UnmarshalText(text []byte) error {
	parsed, err := ParseAddr(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
