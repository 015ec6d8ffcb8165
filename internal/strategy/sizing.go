package strategy

import (
	"fmt"
	"math"

	"QuantumFlow/internal/model"
)

// DefaultSizingOffset shifts the composite so that -0.6 and below size to zero.
const DefaultSizingOffset = 0.6

// DefaultMultipliers scale allocation by risk profile.
var DefaultMultipliers = map[model.RiskProfile]float64{
	model.ProfileConservative: 0.6,
	model.ProfileModerate:     1.0,
	model.ProfileAggressive:   1.4,
}

// SizeAllocation returns max(0, base * multiplier * (0.6 + composite)). A
// negative base or multiplier sizes to 0.
func SizeAllocation(composite, multiplier, baseAllocation float64) float64 {
	return sizeWithOffset(composite, multiplier, baseAllocation, DefaultSizingOffset)
}

func sizeWithOffset(composite, multiplier, base, offset float64) float64 {
	if base < 0 || multiplier < 0 {
		return 0
	}
	v := base * multiplier * (offset + composite)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// Sizing turns a composite into a suggested portfolio fraction.
type Sizing struct {
	multipliers map[model.RiskProfile]float64
	offset      float64
}

// DefaultSizing uses DefaultMultipliers and DefaultSizingOffset.
func DefaultSizing() *Sizing {
	return &Sizing{multipliers: DefaultMultipliers, offset: DefaultSizingOffset}
}

// NewSizing requires a non-negative multiplier for every known profile.
func NewSizing(multipliers map[model.RiskProfile]float64, offset float64) (*Sizing, error) {
	m := make(map[model.RiskProfile]float64, len(model.Profiles))
	for _, p := range model.Profiles {
		v, ok := multipliers[p]
		if !ok {
			return nil, &model.ConfigError{Field: "sizing.multipliers", Reason: fmt.Sprintf("missing multiplier for %s", p)}
		}
		if math.IsNaN(v) || v < 0 {
			return nil, &model.ConfigError{Field: "sizing.multipliers", Reason: fmt.Sprintf("multiplier for %s must be >= 0, got %f", p, v)}
		}
		m[p] = v
	}
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return nil, &model.ConfigError{Field: "sizing.offset", Reason: "offset must be finite"}
	}
	return &Sizing{multipliers: m, offset: offset}, nil
}

// Multiplier returns the profile's allocation multiplier.
func (s *Sizing) Multiplier(p model.RiskProfile) (float64, error) {
	v, ok := s.multipliers[p]
	if !ok {
		return 0, &model.ConfigError{Field: "risk_profile", Reason: fmt.Sprintf("unknown risk profile '%s'", p)}
	}
	return v, nil
}

// Size is monotonically non-decreasing in composite for a fixed profile and
// non-negative base, and never negative.
func (s *Sizing) Size(composite float64, p model.RiskProfile, baseAllocation float64) (float64, error) {
	mult, err := s.Multiplier(p)
	if err != nil {
		return 0, err
	}
	return sizeWithOffset(composite, mult, baseAllocation, s.offset), nil
}
