package main

import (
	"os"

	"QuantumFlow/internal/config"
	"QuantumFlow/internal/logger"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "QuantumFlow"
	version = "v0.3.0"
)

var (
	configPath string
	logLevel   string
	prettyLogs bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "quantumflow",
		Short:   "Multi-expert decision scoring engine",
		Version: version,
		Long: `QuantumFlow scores assets from four expert factors (macro, technical,
sentiment, risk), maps each composite to an action label, sizes a suggested
allocation, and tilts a model portfolio toward the engine's convictions.`,
		SilenceUsage: true,
	}

	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to YAML config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", false, "Human-readable console logs")

	rootCmd.AddCommand(newBotCmd(), newEvaluateCmd(), newTiltCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config and installs the global logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if prettyLogs {
		cfg.Log.Pretty = true
	}
	logger.SetGlobalLogger(logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Out: os.Stderr}))
	log.Debug().Str("config", configPath).Msg("config loaded")
	return cfg, nil
}
