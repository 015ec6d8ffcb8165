package main

import (
	"fmt"
	"os"

	"QuantumFlow/internal/collector"
	"QuantumFlow/internal/config"
	"QuantumFlow/internal/portfolio"
	"QuantumFlow/internal/recorder"
	"QuantumFlow/internal/strategy"

	"github.com/rs/zerolog/log"
)

func buildProvider(cfg *config.Config) (collector.Provider, error) {
	switch cfg.Provider.Kind {
	case "seeded":
		return collector.NewSeededProvider(cfg.Provider.Universe, cfg.Provider.Salt), nil
	case "snapshot":
		if cfg.Provider.URL != "" {
			return collector.NewHTTPSnapshotProvider(
				collector.NewSnapshotFetcher(cfg.Provider.URL, cfg.Provider.APIKey, cfg.Proxy)), nil
		}
		if cfg.Provider.Path == "-" {
			snap, err := collector.DecodeSnapshot(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("read snapshot from stdin: %w", err)
			}
			return collector.NewStaticSnapshotProvider(snap), nil
		}
		return collector.NewFileSnapshotProvider(cfg.Provider.Path), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}

func buildEngine(cfg *config.Config) (*strategy.Engine, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	return strategy.NewEngine(opts)
}

// buildManager creates the portfolio manager. A stateless manager keeps
// nothing on disk.
func buildManager(cfg *config.Config, stateless bool) (*portfolio.Manager, error) {
	opts, err := cfg.ManagerOptions()
	if err != nil {
		return nil, err
	}
	if stateless {
		opts.StateFile = ""
	}
	return portfolio.NewManager(opts)
}

// buildRecorder falls back to the noop recorder when SQLite cannot be opened.
func buildRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}
