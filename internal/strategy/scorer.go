package strategy

import "QuantumFlow/internal/model"

// Score computes the composite: the weighted sum of factor scores. Factors
// the set does not carry contribute 0.
func Score(scores model.FactorScoreSet, weights *WeightTable) float64 {
	composite := 0.0
	for _, f := range weights.Factors() {
		composite += weights.Weight(f) * scores.Get(f)
	}
	return composite
}

// Breakdown returns each factor's contribution to Score, in canonical order.
func Breakdown(scores model.FactorScoreSet, weights *WeightTable) []model.Contribution {
	factors := weights.Factors()
	out := make([]model.Contribution, 0, len(factors))
	for _, f := range factors {
		w := weights.Weight(f)
		s := scores.Get(f)
		out = append(out, model.Contribution{
			Factor:   f,
			Score:    s,
			Weight:   w,
			Weighted: w * s,
		})
	}
	return out
}
