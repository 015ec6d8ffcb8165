package strategy

import (
	"fmt"
	"math"

	"QuantumFlow/internal/model"

	"gonum.org/v1/gonum/floats"
)

// WeightTolerance is how far a weight table may drift from summing to 1.
const WeightTolerance = 1e-6

// WeightTable maps factors to non-negative weights summing to 1.0. It is
// validated once at construction and never mutated, so concurrent reads are
// safe.
type WeightTable struct {
	weights map[model.Factor]float64
}

// NewWeightTable validates w and returns a table. Any violation is a
// *model.ConfigError.
func NewWeightTable(w map[model.Factor]float64) (*WeightTable, error) {
	if len(w) == 0 {
		return nil, &model.ConfigError{Field: "weights", Reason: "weight table is empty"}
	}
	values := make([]float64, 0, len(w))
	weights := make(map[model.Factor]float64, len(w))
	for f, v := range w {
		if !f.Valid() {
			return nil, &model.ConfigError{Field: "weights", Reason: fmt.Sprintf("unknown factor '%s'", f)}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, &model.ConfigError{Field: "weights." + string(f), Reason: fmt.Sprintf("weight must be a non-negative number, got %f", v)}
		}
		weights[f] = v
		values = append(values, v)
	}
	if sum := floats.Sum(values); math.Abs(sum-1) > WeightTolerance {
		return nil, &model.ConfigError{Field: "weights", Reason: fmt.Sprintf("weights sum to %.6f, must sum to 1.0", sum)}
	}
	return &WeightTable{weights: weights}, nil
}

// NewWeightTableFromNames is NewWeightTable for string-keyed config maps.
func NewWeightTableFromNames(w map[string]float64) (*WeightTable, error) {
	m := make(map[model.Factor]float64, len(w))
	for name, v := range w {
		f, err := model.ParseFactor(name)
		if err != nil {
			return nil, &model.ConfigError{Field: "weights", Reason: err.Error()}
		}
		m[f] = v
	}
	return NewWeightTable(m)
}

// DefaultWeights is the 30/30/20/20 macro/technical/sentiment/risk table.
func DefaultWeights() *WeightTable {
	return &WeightTable{weights: map[model.Factor]float64{
		model.FactorMacro:     0.30,
		model.FactorTechnical: 0.30,
		model.FactorSentiment: 0.20,
		model.FactorRisk:      0.20,
	}}
}

// Weight returns the weight of f, 0 if the table does not name it.
func (t *WeightTable) Weight(f model.Factor) float64 {
	return t.weights[f]
}

// Factors returns the factors the table names, in canonical order.
func (t *WeightTable) Factors() []model.Factor {
	out := make([]model.Factor, 0, len(t.weights))
	for _, f := range model.Factors {
		if _, ok := t.weights[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Sum adds the weights in canonical order.
func (t *WeightTable) Sum() float64 {
	sum := 0.0
	for _, f := range t.Factors() {
		sum += t.weights[f]
	}
	return sum
}

// Map returns a copy of the underlying weights.
func (t *WeightTable) Map() map[model.Factor]float64 {
	out := make(map[model.Factor]float64, len(t.weights))
	for k, v := range t.weights {
		out[k] = v
	}
	return out
}
