package strategy

import (
	"fmt"

	"QuantumFlow/internal/model"
)

// DefaultRiskBands are the stop-loss / take-profit distances per profile.
var DefaultRiskBands = map[model.RiskProfile]model.RiskBand{
	model.ProfileConservative: {StopLossPct: 5, TakeProfitPct: 10},
	model.ProfileModerate:     {StopLossPct: 8, TakeProfitPct: 15},
	model.ProfileAggressive:   {StopLossPct: 12, TakeProfitPct: 25},
}

// RiskBands is a read-only lookup from profile to band.
type RiskBands struct {
	bands map[model.RiskProfile]model.RiskBand
}

// DefaultRiskBandTable serves DefaultRiskBands.
func DefaultRiskBandTable() *RiskBands {
	return &RiskBands{bands: DefaultRiskBands}
}

// NewRiskBands requires a positive stop loss and take profit for every profile.
func NewRiskBands(bands map[model.RiskProfile]model.RiskBand) (*RiskBands, error) {
	m := make(map[model.RiskProfile]model.RiskBand, len(model.Profiles))
	for _, p := range model.Profiles {
		b, ok := bands[p]
		if !ok {
			return nil, &model.ConfigError{Field: "risk_bands", Reason: fmt.Sprintf("missing band for %s", p)}
		}
		if b.StopLossPct <= 0 || b.TakeProfitPct <= 0 {
			return nil, &model.ConfigError{Field: "risk_bands", Reason: fmt.Sprintf("band for %s must have positive stop loss and take profit", p)}
		}
		m[p] = b
	}
	return &RiskBands{bands: m}, nil
}

// For returns the band for p.
func (r *RiskBands) For(p model.RiskProfile) (model.RiskBand, error) {
	b, ok := r.bands[p]
	if !ok {
		return model.RiskBand{}, &model.ConfigError{Field: "risk_profile", Reason: fmt.Sprintf("unknown risk profile '%s'", p)}
	}
	return b, nil
}

// RiskBandFor looks up the default band for p.
func RiskBandFor(p model.RiskProfile) (stopLossPct, takeProfitPct float64, err error) {
	b, err := DefaultRiskBandTable().For(p)
	if err != nil {
		return 0, 0, err
	}
	return b.StopLossPct, b.TakeProfitPct, nil
}
