package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktcraft/internal/config"
	"firestige.xyz/pktcraft/internal/core"
	"firestige.xyz/pktcraft/internal/core/codec"
)

const referenceHex = "45 00 00 18 30 39 00 00 40 06 00 00 C0 A8 01 0A C0 A8 01 14 61 68 6F 6A"

func writeTemplate(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, runTemplate(config.FormatYAML, &buf))
	path := filepath.Join(t.TempDir(), "header.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestRunTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runTemplate(config.FormatYAML, &buf))
	assert.Contains(t, buf.String(), "identification: 12345")
	assert.Contains(t, buf.String(), "source: 192.168.1.10")

	buf.Reset()
	require.NoError(t, runTemplate(config.FormatJSON, &buf))
	assert.Contains(t, buf.String(), `"payload": "ahoj"`)

	assert.Error(t, runTemplate("xml", &buf))
}

func TestRunEncode_Profile(t *testing.T) {
	path := writeTemplate(t)

	var buf bytes.Buffer
	err := runEncode(encodeOptions{profile: path, format: "hex", upperHex: true}, &buf)

	require.NoError(t, err)
	assert.Equal(t, referenceHex+"\n", buf.String())
}

func TestRunEncode_Overrides(t *testing.T) {
	path := writeTemplate(t)

	var buf bytes.Buffer
	err := runEncode(encodeOptions{
		profile:   path,
		format:    "hex",
		upperHex:  true,
		overrides: map[string]any{"dont_fragment": true, "more_fragments": true, "fragment_offset": 5},
	}, &buf)

	require.NoError(t, err)
	assert.Equal(t, strings.Replace(referenceHex, "30 39 00 00", "30 39 60 05", 1)+"\n", buf.String())
}

func TestRunEncode_PayloadOverrideReplacesProfilePayload(t *testing.T) {
	path := writeTemplate(t)

	var buf bytes.Buffer
	err := runEncode(encodeOptions{
		profile:   path,
		format:    "hex",
		upperHex:  true,
		overrides: map[string]any{"payload_hex": "0011"},
	}, &buf)

	require.NoError(t, err)
	assert.Equal(t, strings.Replace(referenceHex, "61 68 6F 6A", "00 11", 1)+"\n", buf.String())

	buf.Reset()
	err = runEncode(encodeOptions{
		profile:   path,
		format:    "hex",
		overrides: map[string]any{"payload": "x", "payload_hex": "0011"},
	}, &buf)
	assert.ErrorContains(t, err, "payload failed excluded_with")
}

func TestRunEncode_LeadingZeroAddress(t *testing.T) {
	path := writeTemplate(t)

	var buf bytes.Buffer
	err := runEncode(encodeOptions{
		profile:   path,
		format:    "hex",
		upperHex:  true,
		overrides: map[string]any{"source": "010.0.0.1", "destination": "192.168.001.020"},
	}, &buf)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "0A 00 00 01 C0 A8 01 14")
}

func TestRunEncode_AutoFieldsWithoutProfile(t *testing.T) {
	var buf bytes.Buffer
	err := runEncode(encodeOptions{
		format:       "hex",
		autoLength:   true,
		autoChecksum: true,
		overrides: map[string]any{
			"source":      "10.0.0.1",
			"destination": "10.0.0.2",
			"options_hex": "01010100",
			"payload_hex": "dead",
		},
	}, &buf)
	require.NoError(t, err)

	data, err := codec.ParseHex(buf.String())
	require.NoError(t, err)
	h, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), h.HeaderLength())
	assert.Equal(t, uint16(26), h.TotalLength())
	assert.Equal(t, uint8(64), h.TTL())
	assert.NoError(t, codec.VerifyChecksum(h))
}

func TestRunEncode_Errors(t *testing.T) {
	var buf bytes.Buffer

	err := runEncode(encodeOptions{format: "hex"}, &buf)
	assert.ErrorIs(t, err, core.ErrProfileInvalid)

	err = runEncode(encodeOptions{
		format:    "hex",
		overrides: map[string]any{"source": "1.1.1.1", "destination": "2.2.2.2", "ttl": 256},
	}, &buf)
	assert.ErrorContains(t, err, "ttl failed max=255")

	err = runEncode(encodeOptions{
		format:    "hex",
		overrides: map[string]any{"source": "1.1.1.1", "destination": "2.2.2.2", "options_hex": strings.Repeat("00", 41)},
	}, &buf)
	assert.ErrorIs(t, err, core.ErrProfileInvalid)

	err = runEncode(encodeOptions{format: "xml"}, &buf)
	assert.ErrorContains(t, err, "invalid output format")

	err = runEncode(encodeOptions{profile: filepath.Join(t.TempDir(), "none.yaml"), format: "hex"}, &buf)
	assert.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestRunEncode_PcapThenDecode(t *testing.T) {
	profile := writeTemplate(t)
	pcapPath := filepath.Join(t.TempDir(), "out.pcap")

	var enc bytes.Buffer
	require.NoError(t, runEncode(encodeOptions{profile: profile, format: "raw", pcapPath: pcapPath}, &enc))
	assert.Equal(t, 24, enc.Len())

	var dec bytes.Buffer
	require.NoError(t, runDecode(decodeOptions{pcapPath: pcapPath, format: "hex", upperHex: true}, &dec))
	assert.Equal(t, referenceHex+"\n", dec.String())
}

func TestRunDecode_Table(t *testing.T) {
	var buf bytes.Buffer
	err := runDecode(decodeOptions{hex: referenceHex, format: "table"}, &buf)

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "ttl=64")
	assert.Contains(t, out, "src=192.168.1.10")
	assert.Contains(t, out, "checksum: pktcraft: header checksum mismatch")
	assert.Contains(t, out, "identification")
	assert.Contains(t, out, "61 68 6f 6a")
}

func TestRunDecode_ValidChecksum(t *testing.T) {
	valid := strings.Replace(referenceHex, "40 06 00 00", "40 06 C7 38", 1)

	var buf bytes.Buffer
	require.NoError(t, runDecode(decodeOptions{hex: valid, format: "table"}, &buf))
	assert.Contains(t, buf.String(), "checksum: valid")
	assert.NotContains(t, buf.String(), "fragment:")
}

func TestRunDecode_Fragment(t *testing.T) {
	frag := strings.Replace(referenceHex, "30 39 00 00", "30 39 20 05", 1)

	var buf bytes.Buffer
	require.NoError(t, runDecode(decodeOptions{hex: frag, format: "table"}, &buf))
	assert.Contains(t, buf.String(), "fragment: offset 40 bytes, more=true")
}

func TestRunDecode_InFileYAML(t *testing.T) {
	data, err := codec.ParseHex(referenceHex)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "header.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))

	var buf bytes.Buffer
	require.NoError(t, runDecode(decodeOptions{inFile: path, format: "yaml"}, &buf))

	p, err := config.ParseProfile(buf.Bytes(), config.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultProfile(), p)
}

func TestRunDecode_Errors(t *testing.T) {
	var buf bytes.Buffer

	assert.Error(t, runDecode(decodeOptions{format: "table"}, &buf))
	assert.Error(t, runDecode(decodeOptions{hex: "zz", format: "table"}, &buf))
	assert.ErrorIs(t, runDecode(decodeOptions{hex: "45 00 00 18", format: "table"}, &buf), core.ErrPacketTooShort)
	assert.ErrorIs(t, runDecode(decodeOptions{hex: "65" + strings.Repeat("00", 19), format: "table"}, &buf),
		core.ErrUnsupportedVersion)
	assert.Error(t, runDecode(decodeOptions{inFile: filepath.Join(t.TempDir(), "none"), format: "table"}, &buf))
	assert.Error(t, runDecode(decodeOptions{hex: referenceHex, format: "xml"}, &buf))
}

func TestRunValidate(t *testing.T) {
	path := writeTemplate(t)

	var buf bytes.Buffer
	require.NoError(t, runValidate(path, &buf))
	assert.Equal(t, "VALID: 192.168.1.10 -> 192.168.1.20, protocol 6, 24 bytes\n", buf.String())

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("source: 300.1.1.1\ndestination: 1.1.1.1\n"), 0644))
	buf.Reset()
	err := runValidate(bad, &buf)
	assert.ErrorIs(t, err, core.ErrProfileInvalid)
	assert.True(t, strings.HasPrefix(buf.String(), "INVALID: "))
	assert.Contains(t, buf.String(), "invalid dotted-decimal address")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestRunValidate_WriteError(t *testing.T) {
	path := writeTemplate(t)
	assert.ErrorContains(t, runValidate(path, failingWriter{}), "stdout closed")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("destination: 1.1.1.1\n"), 0644))
	assert.ErrorContains(t, runValidate(bad, failingWriter{}), "stdout closed")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("", "DEBUG")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = loadConfig("", "loud")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("pktcraft:\n  output:\n    format: bits\n"), 0644))
	cfg, err = loadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, config.FormatBits, cfg.Output.Format)
}

func TestExecuteEncodeFlags(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"encode", "--src", "10.0.0.1", "--dst", "10.0.0.2", "--ttl", "1", "--df",
		"--auto-length", "--auto-checksum", "-o", "hex"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute())

	data, err := codec.ParseHex(buf.String())
	require.NoError(t, err)
	h, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), h.TTL())
	assert.True(t, h.DontFragment())
	assert.Equal(t, uint16(20), h.TotalLength())
	assert.Equal(t, core.MustParseAddr("10.0.0.2"), h.Destination())
	assert.NoError(t, codec.VerifyChecksum(h))
}
