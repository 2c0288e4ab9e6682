// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the top-level configuration.
// Maps to the `pktcraft:` root key in YAML.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`   // trace / debug / info / warn / error
	Format  string           `mapstructure:"format"`  // text / json
	Pattern string           `mapstructure:"pattern"` // text format only, see log.formatter
	Time    string           `mapstructure:"time"`    // Go time layout
	File    FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Output ───

// OutputConfig controls how encoded headers are printed by default.
type OutputConfig struct {
	Format   string `mapstructure:"format"`    // hex / bits / raw / table / json / yaml
	UpperHex bool   `mapstructure:"upper_hex"` // hex digits in upper case
}

// Output format names.
const (
	FormatHex   = "hex"
	FormatBits  = "bits"
	FormatRaw   = "raw"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var validFormats = map[string]bool{
	FormatHex: true, FormatBits: true, FormatRaw: true,
	FormatTable: true, FormatJSON: true, FormatYAML: true,
}

// configRoot is the top-level wrapper matching the YAML structure `pktcraft: ...`.
type configRoot struct {
	Pktcraft Config `mapstructure:"pktcraft"`
}

// Load loads configuration from file. An empty path yields defaults plus environment overrides.
// Env vars use the PKTCRAFT_ prefix (e.g., PKTCRAFT_LOG_LEVEL).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Key "pktcraft.log.level" maps to env "PKTCRAFT_LOG_LEVEL"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Pktcraft

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Environment overrides may be invalid; fall back to hard defaults
		return &Config{
			Log:    LogConfig{Level: "info", Format: "text", Pattern: DefaultLogPattern, Time: DefaultTimeLayout},
			Output: OutputConfig{Format: FormatHex, UpperHex: true},
		}
	}
	return cfg
}

// Default log layout.
const (
	DefaultLogPattern = "%time [%level] %msg %field%n"
	DefaultTimeLayout = "2006-01-02 15:04:05.000"
)

// setDefaults sets default values for configuration.
// All keys use "pktcraft." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("pktcraft.log.level", "info")
	v.SetDefault("pktcraft.log.format", "text")
	v.SetDefault("pktcraft.log.pattern", DefaultLogPattern)
	v.SetDefault("pktcraft.log.time", DefaultTimeLayout)
	v.SetDefault("pktcraft.log.file.enabled", false)
	v.SetDefault("pktcraft.log.file.path", "/var/log/pktcraft/pktcraft.log")
	v.SetDefault("pktcraft.log.file.rotation.max_size_mb", 100)
	v.SetDefault("pktcraft.log.file.rotation.max_age_days", 30)
	v.SetDefault("pktcraft.log.file.rotation.max_backups", 5)
	v.SetDefault("pktcraft.log.file.rotation.compress", true)

	// Output defaults
	v.SetDefault("pktcraft.output.format", FormatHex)
	v.SetDefault("pktcraft.output.upper_hex", true)
}

// ValidateAndApplyDefaults validates configuration and normalizes case-insensitive values.
func (cfg *Config) ValidateAndApplyDefaults() error {
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)

	// ── Log validation ──
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be trace/debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}
	if cfg.Log.File.Enabled && cfg.Log.File.Path == "" {
		return fmt.Errorf("log.file.path is required when log.file.enabled=true")
	}
	if cfg.Log.Pattern == "" {
		cfg.Log.Pattern = DefaultLogPattern
	}
	if cfg.Log.Time == "" {
		cfg.Log.Time = DefaultTimeLayout
	}

	// ── Output validation ──
	if !validFormats[cfg.Output.Format] {
		return fmt.Errorf("invalid output format: %s (must be hex/bits/raw/table/json/yaml)", cfg.Output.Format)
	}

	return nil
}
