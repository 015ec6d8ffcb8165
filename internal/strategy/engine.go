package strategy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"QuantumFlow/internal/model"
)

// DefaultBaseAllocation applies to asset classes with no configured base.
const DefaultBaseAllocation = 0.05

// DefaultBaseAllocations is the per-asset-class base fraction of the portfolio.
var DefaultBaseAllocations = map[string]float64{
	"Equity":      0.05,
	"EquityIndex": 0.10,
	"Crypto":      0.03,
	"Commodity":   0.05,
	"Rates":       0.05,
}

// Options configures an Engine. Nil or empty fields take the defaults.
type Options struct {
	Weights         *WeightTable
	ProfileWeights  map[model.RiskProfile]*WeightTable
	Ladder          *Ladder
	Sizing          *Sizing
	Bands           *RiskBands
	BaseAllocations map[string]float64
	DefaultBase     float64
}

// Engine bundles the validated scoring configuration. All of its state is
// read-only after NewEngine, so one Engine can serve concurrent callers.
type Engine struct {
	weights        *WeightTable
	profileWeights map[model.RiskProfile]*WeightTable
	ladder         *Ladder
	sizing         *Sizing
	bands          *RiskBands
	baseAlloc      map[string]float64
	defaultBase    float64
}

func NewEngine(opts Options) (*Engine, error) {
	e := &Engine{
		weights:        opts.Weights,
		profileWeights: map[model.RiskProfile]*WeightTable{},
		ladder:         opts.Ladder,
		sizing:         opts.Sizing,
		bands:          opts.Bands,
		baseAlloc:      map[string]float64{},
		defaultBase:    opts.DefaultBase,
	}
	if e.weights == nil {
		e.weights = DefaultWeights()
	}
	if e.ladder == nil {
		e.ladder = DefaultLadder()
	}
	if e.sizing == nil {
		e.sizing = DefaultSizing()
	}
	if e.bands == nil {
		e.bands = DefaultRiskBandTable()
	}
	if e.defaultBase == 0 {
		e.defaultBase = DefaultBaseAllocation
	}
	if err := validBase("default_base_allocation", e.defaultBase); err != nil {
		return nil, err
	}

	for p, t := range opts.ProfileWeights {
		if !p.Valid() {
			return nil, &model.ConfigError{Field: "profile_weights", Reason: fmt.Sprintf("unknown risk profile '%s'", p)}
		}
		if t != nil {
			e.profileWeights[p] = t
		}
	}

	base := opts.BaseAllocations
	if len(base) == 0 {
		base = DefaultBaseAllocations
	}
	for class, v := range base {
		if err := validBase("base_allocations."+class, v); err != nil {
			return nil, err
		}
		e.baseAlloc[strings.ToLower(class)] = v
	}
	return e, nil
}

func validBase(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return &model.ConfigError{Field: field, Reason: fmt.Sprintf("base allocation must be within [0, 1], got %f", v)}
	}
	return nil
}

// WeightsFor returns the profile's own table, or the default one.
func (e *Engine) WeightsFor(p model.RiskProfile) *WeightTable {
	if t, ok := e.profileWeights[p]; ok {
		return t
	}
	return e.weights
}

// BaseAllocation looks up the asset class case-insensitively.
func (e *Engine) BaseAllocation(assetClass string) float64 {
	if v, ok := e.baseAlloc[strings.ToLower(assetClass)]; ok {
		return v
	}
	return e.defaultBase
}

// Ladder is the classifier the engine labels with.
func (e *Engine) Ladder() *Ladder { return e.ladder }

// Evaluate scores, classifies, sizes and bands a single asset. The only
// error is an unrecognized profile.
func (e *Engine) Evaluate(obs model.Observation, p model.RiskProfile) (model.Decision, error) {
	band, err := e.bands.For(p)
	if err != nil {
		return model.Decision{}, err
	}
	weights := e.WeightsFor(p)
	composite := Score(obs.Scores, weights)
	base := e.BaseAllocation(obs.Asset.AssetClass)
	alloc, err := e.sizing.Size(composite, p, base)
	if err != nil {
		return model.Decision{}, err
	}

	return model.Decision{
		Asset:         obs.Asset,
		Scores:        obs.Scores.Clone(),
		Contributions: Breakdown(obs.Scores, weights),
		Composite:     composite,
		Action:        e.ladder.Classify(composite),
		Profile:       p,
		BaseAlloc:     base,
		Allocation:    alloc,
		Band:          band,
		Clamped:       obs.Clamped,
	}, nil
}

// EvaluateAll evaluates every observation and sorts the result by composite,
// highest first. Ties keep input order.
func (e *Engine) EvaluateAll(obs []model.Observation, p model.RiskProfile) ([]model.Decision, error) {
	out := make([]model.Decision, 0, len(obs))
	for _, o := range obs {
		d, err := e.Evaluate(o, p)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", o.Asset.Ticker, err)
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Composite > out[j].Composite })
	return out, nil
}

// Composites indexes decisions by ticker.
func Composites(decisions []model.Decision) map[string]float64 {
	out := make(map[string]float64, len(decisions))
	for _, d := range decisions {
		out[d.Asset.Ticker] = d.Composite
	}
	return out
}
