// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/pktcraft/internal/config"
	"firestige.xyz/pktcraft/internal/log"
)

var (
	// Global flags
	configFile string
	logLevel   string

	appConfig = config.Default()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pktcraft",
	Short: "pktcraft - IPv4 header builder and inspector",
	Long: `pktcraft builds IPv4 headers field by field and renders them as bytes, hex or bit strings.
It can also decode captured headers back into their fields.

Features:
  - Exact wire layout with per-field range checks
  - Header profiles in YAML or JSON
  - Optional length and checksum derivation
  - pcap import and export`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults and PKTCRAFT_* env vars when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level override (trace, debug, info, warn, error)")

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(templateCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile, logLevel)
	if err != nil {
		return err
	}
	if err := log.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	appConfig = cfg
	log.GetLogger().WithField("config", configFile).Debug("configuration loaded")
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	_ = log.Close()
}

// loadConfig loads the global config and applies the --log-level override.
func loadConfig(path, level string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level != "" {
		cfg.Log.Level = level
		if err := cfg.ValidateAndApplyDefaults(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
