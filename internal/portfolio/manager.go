package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"QuantumFlow/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Manager owns the model portfolio: configured priors, the selected profile
// and the outcome of the last rebalance, persisted to a JSON state file.
type Manager struct {
	mu         sync.Mutex
	state      *model.PortfolioState
	priors     []model.AssetWeight
	tiltFactor float64
	alphas     map[model.RiskProfile]float64
	filePath   string
}

// Options configures a Manager. Zero TiltFactor and nil Alphas take defaults.
type Options struct {
	StateFile  string
	Priors     []model.AssetWeight
	TiltFactor float64
	Alphas     map[model.RiskProfile]float64
	Profile    model.RiskProfile
}

// RebalanceResult is what one Rebalance produced.
type RebalanceResult struct {
	Profile   model.RiskProfile
	Alpha     float64
	Positions []model.AssetPosition
	Fallback  bool
	Skipped   []string
}

// NewManager validates the priors and alphas and loads any saved state. A
// profile stored in the state file wins over opts.Profile.
func NewManager(opts Options) (*Manager, error) {
	if err := ValidatePriors(opts.Priors); err != nil {
		return nil, &model.ConfigError{Field: "portfolio.priors", Reason: err.Error()}
	}
	tilt := opts.TiltFactor
	if tilt == 0 {
		tilt = DefaultTiltFactor
	}
	if tilt < 0 || math.IsNaN(tilt) {
		return nil, &model.ConfigError{Field: "portfolio.tilt_factor", Reason: fmt.Sprintf("must be positive, got %f", tilt)}
	}
	alphas, err := resolveAlphas(opts.Alphas)
	if err != nil {
		return nil, err
	}

	state, err := LoadState(opts.StateFile)
	if err != nil {
		return nil, fmt.Errorf("load portfolio state: %w", err)
	}
	if !state.Profile.Valid() {
		if !opts.Profile.Valid() {
			return nil, &model.ConfigError{Field: "risk_profile", Reason: fmt.Sprintf("unknown risk profile '%s'", opts.Profile)}
		}
		state.Profile = opts.Profile
	}
	state.Alpha = alphas[state.Profile]

	priors := make([]model.AssetWeight, len(opts.Priors))
	copy(priors, opts.Priors)

	m := &Manager{
		state:      state,
		priors:     priors,
		tiltFactor: tilt,
		alphas:     alphas,
		filePath:   opts.StateFile,
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

func resolveAlphas(in map[model.RiskProfile]float64) (map[model.RiskProfile]float64, error) {
	out := make(map[model.RiskProfile]float64, len(model.Profiles))
	for _, p := range model.Profiles {
		a, ok := in[p]
		if !ok {
			a = DefaultAlphas[p]
		}
		if math.IsNaN(a) || a < 0 || a > 1 {
			return nil, &model.ConfigError{Field: "portfolio.alphas", Reason: fmt.Sprintf("alpha for %s must be within [0, 1], got %f", p, a)}
		}
		out[p] = a
	}
	for p := range in {
		if !p.Valid() {
			return nil, &model.ConfigError{Field: "portfolio.alphas", Reason: fmt.Sprintf("unknown risk profile '%s'", p)}
		}
	}
	return out, nil
}

// GetState returns a copy of the current state.
func (m *Manager) GetState() model.PortfolioState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *m.state
	s.Positions = append([]model.AssetPosition(nil), m.state.Positions...)
	return s
}

// Priors returns a copy of the configured prior weights.
func (m *Manager) Priors() []model.AssetWeight {
	return append([]model.AssetWeight(nil), m.priors...)
}

func (m *Manager) Profile() model.RiskProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Profile
}

// SetProfile changes the profile used by the next Rebalance.
func (m *Manager) SetProfile(p model.RiskProfile) error {
	if !p.Valid() {
		return &model.ConfigError{Field: "risk_profile", Reason: fmt.Sprintf("unknown risk profile '%s'", p)}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Profile = p
	m.state.Alpha = m.alphas[p]
	if err := m.save(); err != nil {
		log.Error().Err(err).Msg("failed to save portfolio state after profile change")
	}
	return nil
}

// Rebalance tilts the priors by the given composites and blends by the
// current profile's alpha. Priors with no composite are skipped and the rest
// re-based to 100. When every tilted weight floors to zero the priors are
// kept and Fallback is set.
func (m *Manager) Rebalance(composites map[string]float64) (*RebalanceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	skipped := []string{}
	basket, err := Rebase(m.priors, func(ticker string) bool {
		_, ok := composites[ticker]
		if !ok {
			skipped = append(skipped, ticker)
		}
		return ok
	})
	if err != nil {
		return nil, err
	}

	profile := m.state.Profile
	alpha := m.alphas[profile]
	fallback := false

	positions, err := TiltAndBlend(basket, composites, m.tiltFactor, alpha)
	var degenerate *DegenerateBasketError
	if errors.As(err, &degenerate) {
		log.Warn().Err(err).Str("profile", string(profile)).Msg("tilt produced an empty basket, keeping prior weights")
		positions = priorPositions(basket, composites)
		fallback = true
	} else if err != nil {
		return nil, fmt.Errorf("tilt basket: %w", err)
	}

	now := time.Now()
	m.state.Positions = positions
	m.state.Alpha = alpha
	m.state.Fallback = fallback
	m.state.RunCount++
	m.state.LastRunAt = now

	if err := m.save(); err != nil {
		log.Error().Err(err).Msg("failed to save portfolio state")
	}

	return &RebalanceResult{
		Profile:   profile,
		Alpha:     alpha,
		Positions: append([]model.AssetPosition(nil), positions...),
		Fallback:  fallback,
		Skipped:   skipped,
	}, nil
}

func priorPositions(basket []model.AssetWeight, composites map[string]float64) []model.AssetPosition {
	out := make([]model.AssetPosition, len(basket))
	for i, p := range basket {
		out[i] = model.AssetPosition{
			Ticker:          p.Ticker,
			PriorWeight:     p.Weight,
			Composite:       composites[p.Ticker],
			RawWeight:       p.Weight,
			PosteriorWeight: p.Weight,
			BlendedWeight:   p.Weight,
		}
	}
	return out
}

// TargetAmounts converts the last blended weights into money amounts for a
// portfolio of the given value, rounded to cents.
func (m *Manager) TargetAmounts(value decimal.Decimal) (map[string]decimal.Decimal, error) {
	if value.LessThan(decimal.NewFromFloat(0.01)) {
		return nil, fmt.Errorf("cannot compute target amounts for portfolio value %s", value.String())
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.state.Positions) == 0 {
		return nil, fmt.Errorf("no rebalance has run yet")
	}
	hundred := decimal.NewFromInt(100)
	out := make(map[string]decimal.Decimal, len(m.state.Positions))
	for _, p := range m.state.Positions {
		out[p.Ticker] = value.Mul(decimal.NewFromFloat(p.BlendedWeight)).Div(hundred).Round(2)
	}
	return out, nil
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}
