package config

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"firestige.xyz/pktcraft/internal/core"
	"firestige.xyz/pktcraft/internal/core/codec"
)

// HexBytes is a byte slice written as hex text in profile files.
type HexBytes []byte

// MarshalText implements encoding.TextMarshaler.
func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(b)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Separators accepted by codec.ParseHex are allowed.
func (b *HexBytes) UnmarshalText(text []byte) error {
	decoded, err := codec.ParseHex(string(text))
	if err != nil {
		return fmt.Errorf("invalid hex %q: %w", text, err)
	}
	*b = decoded
	return nil
}

// HeaderProfile is the file representation of one IPv4 header.
type HeaderProfile struct {
	Version        int       `mapstructure:"version" yaml:"version" json:"version" validate:"min=0,max=15"`
	IHL            int       `mapstructure:"ihl" yaml:"ihl" json:"ihl" validate:"min=0,max=15"`
	DSCP           int       `mapstructure:"dscp" yaml:"dscp" json:"dscp" validate:"min=0,max=63"`
	ECN            int       `mapstructure:"ecn" yaml:"ecn" json:"ecn" validate:"min=0,max=3"`
	TotalLength    int       `mapstructure:"total_length" yaml:"total_length" json:"total_length" validate:"min=0,max=65535"`
	Identification int       `mapstructure:"identification" yaml:"identification" json:"identification" validate:"min=0,max=65535"`
	DontFragment   bool      `mapstructure:"dont_fragment" yaml:"dont_fragment" json:"dont_fragment"`
	MoreFragments  bool      `mapstructure:"more_fragments" yaml:"more_fragments" json:"more_fragments"`
	FragmentOffset int       `mapstructure:"fragment_offset" yaml:"fragment_offset" json:"fragment_offset" validate:"min=0,max=8191"`
	TTL            int       `mapstructure:"ttl" yaml:"ttl" json:"ttl" validate:"min=0,max=255"`
	Protocol       int       `mapstructure:"protocol" yaml:"protocol" json:"protocol" validate:"min=0,max=255"`
	Checksum       int       `mapstructure:"checksum" yaml:"checksum" json:"checksum" validate:"min=0,max=65535"`
	Source         core.Addr `mapstructure:"source" yaml:"source" json:"source"`
	Destination    core.Addr `mapstructure:"destination" yaml:"destination" json:"destination"`
	OptionsHex     HexBytes  `mapstructure:"options_hex" yaml:"options_hex,omitempty" json:"options_hex,omitempty" validate:"max=40"`
	Payload        string    `mapstructure:"payload" yaml:"payload,omitempty" json:"payload,omitempty" validate:"excluded_with=PayloadHex"`
	PayloadHex     HexBytes  `mapstructure:"payload_hex" yaml:"payload_hex,omitempty" json:"payload_hex,omitempty"`
	AutoLength     bool      `mapstructure:"auto_length" yaml:"auto_length,omitempty" json:"auto_length,omitempty"`
	AutoChecksum   bool      `mapstructure:"auto_checksum" yaml:"auto_checksum,omitempty" json:"auto_checksum,omitempty"`
}

// profileDefaults apply to keys absent from a profile file.
var profileDefaults = map[string]any{
	"version": 4,
	"ihl":     5,
	"ttl":     64,
}

// requiredKeys must be present in every profile file.
var requiredKeys = []string{"source", "destination"}

var validate = newValidator()

// newValidator reports fields by their profile key rather than the Go field name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// LoadProfile reads a profile file; the format is picked from the extension (.json, .yaml, .yml).
func LoadProfile(path string) (*HeaderProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	p, err := ParseProfile(data, formatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// ParseProfile parses profile bytes in the given format ("json" or "yaml") and validates the result.
func ParseProfile(data []byte, format string) (*HeaderProfile, error) {
	raw, err := parseRaw(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProfileInvalid, err)
	}
	return DecodeProfile(raw)
}

// ReadProfileMap reads a profile file into its raw key/value form without decoding it.
func ReadProfileMap(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	raw, err := parseRaw(data, formatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%w: profile %s: %v", core.ErrProfileInvalid, path, err)
	}
	return raw, nil
}

// DecodeProfile fills absent keys with defaults, decodes raw and validates the result.
// Unknown keys are rejected. Addresses go through core.Addr's text decoding.
func DecodeProfile(raw map[string]any) (*HeaderProfile, error) {
	for _, key := range requiredKeys {
		if raw[key] == nil {
			return nil, fmt.Errorf("%w: %s failed required", core.ErrProfileInvalid, key)
		}
	}

	merged := make(map[string]any, len(raw)+len(profileDefaults))
	for k, v := range profileDefaults {
		merged[k] = v
	}
	for k, v := range raw {
		merged[k] = v
	}

	var p HeaderProfile
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.TextUnmarshallerHookFunc(),
		ErrorUnused: true,
		Result:      &p,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(merged); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProfileInvalid, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks every field against its wire width and format.
func (p *HeaderProfile) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", core.ErrProfileInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", core.ErrProfileInvalid, strings.Join(msgs, "; "))
}

// Fields converts the profile to header fields, applying auto_length and auto_checksum.
func (p *HeaderProfile) Fields() (core.Fields, error) {
	payload := []byte(p.Payload)
	if len(p.PayloadHex) > 0 {
		payload = p.PayloadHex
	}

	f := core.Fields{
		Version:        uint8(p.Version),
		HeaderLength:   uint8(p.IHL),
		DSCP:           uint8(p.DSCP),
		ECN:            uint8(p.ECN),
		TotalLength:    uint16(p.TotalLength),
		Identification: uint16(p.Identification),
		DontFragment:   p.DontFragment,
		MoreFragments:  p.MoreFragments,
		FragmentOffset: uint16(p.FragmentOffset),
		TTL:            uint8(p.TTL),
		Protocol:       uint8(p.Protocol),
		Checksum:       uint16(p.Checksum),
		Source:         p.Source,
		Destination:    p.Destination,
		Options:        p.OptionsHex,
		Payload:        payload,
	}
	return Finalize(f, p.AutoLength, p.AutoChecksum)
}

// Build validates the profile and constructs the header it describes.
func (p *HeaderProfile) Build() (*core.Header, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	f, err := p.Fields()
	if err != nil {
		return nil, err
	}
	return core.NewHeader(f)
}

// Finalize applies the opt-in derivations: lengths first, then the checksum over the final header.
func Finalize(f core.Fields, autoLength, autoChecksum bool) (core.Fields, error) {
	var err error
	if autoLength {
		if f, err = codec.FillLengths(f); err != nil {
			return f, err
		}
	}
	if autoChecksum {
		sum, err := codec.ComputeChecksum(f)
		if err != nil {
			return f, err
		}
		f.Checksum = sum
	}
	return f, nil
}

// ProfileFromHeader describes h as a profile. Payloads that are printable text are kept as text.
func ProfileFromHeader(h *core.Header) *HeaderProfile {
	p := &HeaderProfile{
		Version:        int(h.Version()),
		IHL:            int(h.HeaderLength()),
		DSCP:           int(h.DSCP()),
		ECN:            int(h.ECN()),
		TotalLength:    int(h.TotalLength()),
		Identification: int(h.Identification()),
		DontFragment:   h.DontFragment(),
		MoreFragments:  h.MoreFragments(),
		FragmentOffset: int(h.FragmentOffset()),
		TTL:            int(h.TTL()),
		Protocol:       int(h.Protocol()),
		Checksum:       int(h.Checksum()),
		Source:         h.Source(),
		Destination:    h.Destination(),
		OptionsHex:     h.Options(),
	}
	if payload := h.Payload(); isPrintable(payload) {
		p.Payload = string(payload)
	} else {
		p.PayloadHex = payload
	}
	return p
}

// DefaultProfile returns the sample header: a TCP segment carrying "ahoj" between two private hosts.
func DefaultProfile() *HeaderProfile {
	return &HeaderProfile{
		Version:        4,
		IHL:            5,
		TotalLength:    24,
		Identification: 12345,
		TTL:            64,
		Protocol:       int(core.ProtocolTCP),
		Source:         core.MustParseAddr("192.168.1.10"),
		Destination:    core.MustParseAddr("192.168.1.20"),
		Payload:        "ahoj",
	}
}

// MarshalProfile renders p in the given format ("json" or "yaml").
func MarshalProfile(p *HeaderProfile, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported profile format: %s (must be json/yaml)", format)
	}
}

func parseRaw(data []byte, format string) (map[string]any, error) {
	raw := map[string]any{}
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported profile format: %s (must be json/yaml)", format)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}
