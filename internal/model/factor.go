package model

import (
	"fmt"
	"strings"
)

// Factor names one independently computed expert opinion about an asset.
type Factor string

const (
	FactorMacro     Factor = "macro"
	FactorTechnical Factor = "technical"
	FactorSentiment Factor = "sentiment"
	FactorRisk      Factor = "risk"
)

// Factors lists every known factor in canonical order.
var Factors = []Factor{FactorMacro, FactorTechnical, FactorSentiment, FactorRisk}

// Valid reports whether f is one of the known factors.
func (f Factor) Valid() bool {
	for _, k := range Factors {
		if f == k {
			return true
		}
	}
	return false
}

// ParseFactor accepts "macro", "Macro" or the snapshot field form "macro_score".
func ParseFactor(s string) (Factor, error) {
	name := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "_score")
	f := Factor(name)
	if !f.Valid() {
		return "", fmt.Errorf("unknown factor '%s'", s)
	}
	return f, nil
}

// FactorScoreSet maps factor name to a score in [-1, 1] for one asset at one
// evaluation time. Treat as immutable once produced.
type FactorScoreSet map[Factor]float64

// Get returns the score for f, or 0 when the factor is missing.
func (s FactorScoreSet) Get(f Factor) float64 {
	return s[f]
}

func (s FactorScoreSet) Clone() FactorScoreSet {
	out := make(FactorScoreSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// AssetInfo is the static description of an asset the engine scores.
type AssetInfo struct {
	Ticker         string  `json:"ticker" yaml:"ticker"`
	Name           string  `json:"name" yaml:"name"`
	AssetClass     string  `json:"asset_class" yaml:"asset_class"`
	RealizedVol30D float64 `json:"realized_vol_30d_pct" yaml:"realized_vol_30d_pct"`
	Rationale      string  `json:"short_rationale" yaml:"short_rationale"`
}

// Observation is what a provider yields for one asset after the boundary
// clamp: the scores and which factors had to be clamped.
type Observation struct {
	Asset   AssetInfo
	Scores  FactorScoreSet
	Clamped []Factor
}
