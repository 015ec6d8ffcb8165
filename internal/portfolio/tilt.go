package portfolio

import (
	"fmt"
	"math"

	"QuantumFlow/internal/model"

	"gonum.org/v1/gonum/floats"
)

// DefaultTiltFactor shifts weight by one percentage point per 0.1 of composite.
const DefaultTiltFactor = 10.0

const weightTolerance = 1e-6

// DefaultAlphas are the blend factors per profile: the share of the tilted
// posterior kept against the prior.
var DefaultAlphas = map[model.RiskProfile]float64{
	model.ProfileConservative: 0.4,
	model.ProfileModerate:     0.7,
	model.ProfileAggressive:   0.9,
}

// ProfileAlpha returns the default blend factor for p.
func ProfileAlpha(p model.RiskProfile) (float64, error) {
	a, ok := DefaultAlphas[p]
	if !ok {
		return 0, &model.ConfigError{Field: "risk_profile", Reason: fmt.Sprintf("unknown risk profile '%s'", p)}
	}
	return a, nil
}

// DegenerateBasketError means every tilted weight was floored to zero, so
// there is nothing to normalize against. Callers usually fall back to priors.
type DegenerateBasketError struct {
	Assets   int
	TotalRaw float64
}

func (e *DegenerateBasketError) Error() string {
	return fmt.Sprintf("degenerate basket: total raw weight %.6f across %d assets", e.TotalRaw, e.Assets)
}

// ValidatePriors checks the basket shape and that the weights total 100.
func ValidatePriors(priors []model.AssetWeight) error {
	if err := validateBasket(priors); err != nil {
		return err
	}
	values := make([]float64, len(priors))
	for i, p := range priors {
		values[i] = p.Weight
	}
	if sum := floats.Sum(values); math.Abs(sum-100) > weightTolerance {
		return fmt.Errorf("prior weights should sum to 100, got %f", sum)
	}
	return nil
}

func validateBasket(priors []model.AssetWeight) error {
	if len(priors) == 0 {
		return fmt.Errorf("basket is empty")
	}
	seen := map[string]bool{}
	for _, p := range priors {
		if p.Ticker == "" {
			return fmt.Errorf("prior weight with empty ticker")
		}
		if seen[p.Ticker] {
			return fmt.Errorf("duplicate ticker %s in basket", p.Ticker)
		}
		seen[p.Ticker] = true
		if math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) || p.Weight < 0 {
			return fmt.Errorf("invalid prior weight %f for %s", p.Weight, p.Ticker)
		}
	}
	return nil
}

// Normalize rescales raw weights to sum to 100. Scaling every input by the
// same positive constant leaves the output unchanged.
func Normalize(raw []float64) ([]float64, error) {
	total := floats.Sum(raw)
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("cannot normalize non-finite total %f", total)
	}
	if total <= 0 {
		return nil, &DegenerateBasketError{Assets: len(raw), TotalRaw: total}
	}
	out := make([]float64, len(raw))
	for i, w := range raw {
		out[i] = w / total * 100
	}
	return out, nil
}

// TiltBasket shifts each prior by composite*tiltFactor, floors at zero and
// re-normalizes to 100. A ticker with no composite is not tilted. Priors are
// expected to total 100 (see ValidatePriors) but only their shape is checked
// here.
func TiltBasket(priors []model.AssetWeight, composites map[string]float64, tiltFactor float64) ([]model.AssetPosition, error) {
	if err := validateBasket(priors); err != nil {
		return nil, err
	}
	if math.IsNaN(tiltFactor) || math.IsInf(tiltFactor, 0) || tiltFactor < 0 {
		return nil, fmt.Errorf("tilt factor must be a non-negative number, got %f", tiltFactor)
	}

	positions := make([]model.AssetPosition, len(priors))
	raw := make([]float64, len(priors))
	for i, p := range priors {
		composite := composites[p.Ticker]
		if math.IsNaN(composite) || math.IsInf(composite, 0) {
			return nil, fmt.Errorf("invalid composite %f for %s", composite, p.Ticker)
		}
		tilt := composite * tiltFactor
		raw[i] = math.Max(0, p.Weight+tilt)
		positions[i] = model.AssetPosition{
			Ticker:      p.Ticker,
			PriorWeight: p.Weight,
			Composite:   composite,
			TiltPct:     tilt,
			RawWeight:   raw[i],
		}
	}

	posterior, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	for i := range positions {
		positions[i].PosteriorWeight = posterior[i]
		positions[i].BlendedWeight = posterior[i]
	}
	return positions, nil
}

// Blend mixes posterior and prior weights by alpha and re-normalizes the
// result to 100 to absorb floating drift.
func Blend(positions []model.AssetPosition, alpha float64) ([]model.AssetPosition, error) {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("alpha must be within [0, 1], got %f", alpha)
	}
	mixed := make([]float64, len(positions))
	for i, p := range positions {
		mixed[i] = alpha*p.PosteriorWeight + (1-alpha)*p.PriorWeight
	}
	blended, err := Normalize(mixed)
	if err != nil {
		return nil, err
	}
	out := make([]model.AssetPosition, len(positions))
	copy(out, positions)
	for i := range out {
		out[i].BlendedWeight = blended[i]
	}
	return out, nil
}

// TiltAndBlend runs TiltBasket then Blend.
func TiltAndBlend(priors []model.AssetWeight, composites map[string]float64, tiltFactor, alpha float64) ([]model.AssetPosition, error) {
	positions, err := TiltBasket(priors, composites, tiltFactor)
	if err != nil {
		return nil, err
	}
	return Blend(positions, alpha)
}

// Rebase keeps the priors whose ticker passes keep and rescales them to 100.
func Rebase(priors []model.AssetWeight, keep func(ticker string) bool) ([]model.AssetWeight, error) {
	kept := []model.AssetWeight{}
	raw := []float64{}
	for _, p := range priors {
		if keep(p.Ticker) {
			kept = append(kept, p)
			raw = append(raw, p.Weight)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("no overlapping tickers between priors and scored assets")
	}
	scaled, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	for i := range kept {
		kept[i].Weight = scaled[i]
	}
	return kept, nil
}
