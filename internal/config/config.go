package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"QuantumFlow/internal/model"
	"QuantumFlow/internal/portfolio"
	"QuantumFlow/internal/strategy"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPriors is the neutral model portfolio in percent.
var DefaultPriors = []model.AssetWeight{
	{Ticker: "NVDA", Weight: 16},
	{Ticker: "MSFT", Weight: 22},
	{Ticker: "AAPL", Weight: 22},
	{Ticker: "BTCUSD", Weight: 20},
	{Ticker: "ETHUSD", Weight: 20},
}

// BandConfig is one classifier rung as written in YAML.
type BandConfig struct {
	Label     string  `yaml:"label"`
	Min       float64 `yaml:"min"`
	Inclusive bool    `yaml:"inclusive"`
}

// RiskBandConfig holds stop-loss / take-profit percentages for one profile.
type RiskBandConfig struct {
	StopLossPct   float64 `yaml:"stop_loss_pct"`
	TakeProfitPct float64 `yaml:"take_profit_pct"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Provider struct {
		Kind     string            `yaml:"kind"` // snapshot or seeded
		URL      string            `yaml:"url"`
		APIKey   string            `yaml:"api_key"`
		Path     string            `yaml:"path"`
		Salt     string            `yaml:"salt"`
		Universe []model.AssetInfo `yaml:"universe"`
	} `yaml:"provider"`
	Scoring struct {
		RiskProfile     string                        `yaml:"risk_profile"`
		Weights         map[string]float64            `yaml:"weights"`
		ProfileWeights  map[string]map[string]float64 `yaml:"profile_weights"`
		Bands           []BandConfig                  `yaml:"bands"`
		Floor           string                        `yaml:"floor"`
		Multipliers     map[string]float64            `yaml:"multipliers"`
		SizingOffset    *float64                      `yaml:"sizing_offset"`
		BaseAllocations map[string]float64            `yaml:"base_allocations"`
		DefaultBase     float64                       `yaml:"default_base_allocation"`
		RiskBands       map[string]RiskBandConfig     `yaml:"risk_bands"`
	} `yaml:"scoring"`
	Portfolio struct {
		StateFile  string              `yaml:"state_file"`
		TiltFactor float64             `yaml:"tilt_factor"`
		Alphas     map[string]float64  `yaml:"alphas"`
		Priors     []model.AssetWeight `yaml:"priors"`
		Value      float64             `yaml:"value"`
	} `yaml:"portfolio"`
	Schedule struct {
		DailyCron  string `yaml:"daily_cron"`
		WeeklyCron string `yaml:"weekly_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads a .env file if present, then the YAML file, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SNAPSHOT_URL"); v != "" {
		c.Provider.URL = v
	}
	if v := os.Getenv("SNAPSHOT_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("SNAPSHOT_PATH"); v != "" {
		c.Provider.Path = v
	}
	if v := os.Getenv("RISK_PROFILE"); v != "" {
		c.Scoring.RiskProfile = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		c.Schedule.DailyCron = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("PORTFOLIO_VALUE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &model.ConfigError{Field: "PORTFOLIO_VALUE", Reason: err.Error()}
		}
		c.Portfolio.Value = f
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Provider.Kind == "" {
		c.Provider.Kind = "snapshot"
	}
	if c.Provider.Kind == "snapshot" && c.Provider.URL == "" && c.Provider.Path == "" {
		c.Provider.Path = "data/snapshot.json"
	}
	if c.Scoring.RiskProfile == "" {
		c.Scoring.RiskProfile = string(model.ProfileModerate)
	}
	if len(c.Portfolio.Priors) == 0 {
		c.Portfolio.Priors = append([]model.AssetWeight(nil), DefaultPriors...)
	}
	if c.Portfolio.TiltFactor == 0 {
		c.Portfolio.TiltFactor = portfolio.DefaultTiltFactor
	}
	if c.Portfolio.StateFile == "" {
		c.Portfolio.StateFile = "data/portfolio_state.json"
	}
	if c.Portfolio.Value == 0 {
		c.Portfolio.Value = 100000
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 22 * * 1-5"
	}
	if c.Schedule.WeeklyCron == "" {
		c.Schedule.WeeklyCron = "0 0 8 * * 1"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/quantumflow.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Profile parses the configured risk profile.
func (c *Config) Profile() (model.RiskProfile, error) {
	return model.ParseRiskProfile(c.Scoring.RiskProfile)
}

// EngineOptions turns the scoring section into validated engine options.
func (c *Config) EngineOptions() (strategy.Options, error) {
	opts := strategy.Options{
		BaseAllocations: c.Scoring.BaseAllocations,
		DefaultBase:     c.Scoring.DefaultBase,
	}

	if len(c.Scoring.Weights) > 0 {
		w, err := strategy.NewWeightTableFromNames(c.Scoring.Weights)
		if err != nil {
			return opts, err
		}
		opts.Weights = w
	}

	if len(c.Scoring.ProfileWeights) > 0 {
		opts.ProfileWeights = map[model.RiskProfile]*strategy.WeightTable{}
		for name, weights := range c.Scoring.ProfileWeights {
			p, err := model.ParseRiskProfile(name)
			if err != nil {
				return opts, err
			}
			w, err := strategy.NewWeightTableFromNames(weights)
			if err != nil {
				return opts, fmt.Errorf("profile_weights.%s: %w", name, err)
			}
			opts.ProfileWeights[p] = w
		}
	}

	if len(c.Scoring.Bands) > 0 {
		bands := make([]strategy.Band, len(c.Scoring.Bands))
		for i, b := range c.Scoring.Bands {
			bands[i] = strategy.Band{Label: model.ActionLabel(strings.ToUpper(b.Label)), Min: b.Min, Inclusive: b.Inclusive}
		}
		floor := model.ActionAvoid
		if c.Scoring.Floor != "" {
			floor = model.ActionLabel(strings.ToUpper(c.Scoring.Floor))
		}
		l, err := strategy.NewLadder(bands, floor)
		if err != nil {
			return opts, err
		}
		opts.Ladder = l
	}

	if len(c.Scoring.Multipliers) > 0 || c.Scoring.SizingOffset != nil {
		mult := map[model.RiskProfile]float64{}
		for p, v := range strategy.DefaultMultipliers {
			mult[p] = v
		}
		for name, v := range c.Scoring.Multipliers {
			p, err := model.ParseRiskProfile(name)
			if err != nil {
				return opts, err
			}
			mult[p] = v
		}
		offset := strategy.DefaultSizingOffset
		if c.Scoring.SizingOffset != nil {
			offset = *c.Scoring.SizingOffset
		}
		s, err := strategy.NewSizing(mult, offset)
		if err != nil {
			return opts, err
		}
		opts.Sizing = s
	}

	if len(c.Scoring.RiskBands) > 0 {
		bands := map[model.RiskProfile]model.RiskBand{}
		for p, b := range strategy.DefaultRiskBands {
			bands[p] = b
		}
		for name, b := range c.Scoring.RiskBands {
			p, err := model.ParseRiskProfile(name)
			if err != nil {
				return opts, err
			}
			bands[p] = model.RiskBand{StopLossPct: b.StopLossPct, TakeProfitPct: b.TakeProfitPct}
		}
		rb, err := strategy.NewRiskBands(bands)
		if err != nil {
			return opts, err
		}
		opts.Bands = rb
	}

	return opts, nil
}

// ManagerOptions turns the portfolio section into manager options.
func (c *Config) ManagerOptions() (portfolio.Options, error) {
	p, err := c.Profile()
	if err != nil {
		return portfolio.Options{}, err
	}
	opts := portfolio.Options{
		StateFile:  c.Portfolio.StateFile,
		Priors:     c.Portfolio.Priors,
		TiltFactor: c.Portfolio.TiltFactor,
		Profile:    p,
	}
	if len(c.Portfolio.Alphas) > 0 {
		opts.Alphas = map[model.RiskProfile]float64{}
		for name, a := range c.Portfolio.Alphas {
			ap, err := model.ParseRiskProfile(name)
			if err != nil {
				return opts, err
			}
			opts.Alphas[ap] = a
		}
	}
	return opts, nil
}

// Validate checks everything the scoring engine and portfolio need. Any
// error is a *model.ConfigError, possibly wrapped.
func (c *Config) Validate() error {
	if _, err := c.Profile(); err != nil {
		return err
	}
	switch c.Provider.Kind {
	case "snapshot":
		if c.Provider.URL == "" && c.Provider.Path == "" {
			return &model.ConfigError{Field: "provider", Reason: "snapshot provider needs a url or a path"}
		}
	case "seeded":
		if len(c.Provider.Universe) == 0 {
			return &model.ConfigError{Field: "provider.universe", Reason: "seeded provider needs at least one asset"}
		}
	default:
		return &model.ConfigError{Field: "provider.kind", Reason: fmt.Sprintf("unknown provider '%s'", c.Provider.Kind)}
	}
	opts, err := c.EngineOptions()
	if err != nil {
		return err
	}
	if _, err := strategy.NewEngine(opts); err != nil {
		return err
	}
	if err := portfolio.ValidatePriors(c.Portfolio.Priors); err != nil {
		return &model.ConfigError{Field: "portfolio.priors", Reason: err.Error()}
	}
	if c.Portfolio.TiltFactor < 0 {
		return &model.ConfigError{Field: "portfolio.tilt_factor", Reason: "must be positive"}
	}
	if c.Portfolio.Value <= 0 {
		return &model.ConfigError{Field: "portfolio.value", Reason: "must be positive"}
	}
	return nil
}

// ValidateBot additionally requires the Telegram credentials.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return &model.ConfigError{Field: "telegram.bot_token", Reason: "required"}
	}
	if c.Telegram.ChatID == "" {
		return &model.ConfigError{Field: "telegram.chat_id", Reason: "required"}
	}
	return nil
}
