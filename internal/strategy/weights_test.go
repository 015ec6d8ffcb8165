package strategy

import (
	"errors"
	"testing"

	"QuantumFlow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWeightTable(t *testing.T) {
	tests := []struct {
		name    string
		weights map[model.Factor]float64
		wantErr bool
	}{
		{"default split", map[model.Factor]float64{"macro": 0.3, "technical": 0.3, "sentiment": 0.2, "risk": 0.2}, false},
		{"alternate split", map[model.Factor]float64{"macro": 0.25, "technical": 0.20, "sentiment": 0.35, "risk": 0.20}, false},
		{"single factor", map[model.Factor]float64{"risk": 1}, false},
		{"sums to 0.9", map[model.Factor]float64{"macro": 0.3, "technical": 0.3, "sentiment": 0.2, "risk": 0.1}, true},
		{"sums to 1.1", map[model.Factor]float64{"macro": 0.4, "technical": 0.3, "sentiment": 0.2, "risk": 0.2}, true},
		{"negative weight", map[model.Factor]float64{"macro": 1.2, "risk": -0.2}, true},
		{"unknown factor", map[model.Factor]float64{"macro": 0.5, "vibes": 0.5}, true},
		{"empty", map[model.Factor]float64{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewWeightTable(tt.weights)
			if tt.wantErr {
				var cfgErr *model.ConfigError
				assert.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, 1.0, table.Sum(), WeightTolerance)
		})
	}
}

func TestNewWeightTableFromNames(t *testing.T) {
	table, err := NewWeightTableFromNames(map[string]float64{
		"macro_score":     0.3,
		"Technical":       0.3,
		"sentiment_score": 0.2,
		"risk":            0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, model.Factors, table.Factors())

	_, err = NewWeightTableFromNames(map[string]float64{"momentum": 1})
	assert.Error(t, err)
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	assert.InDelta(t, 1.0, w.Sum(), WeightTolerance)
	assert.Equal(t, 0.30, w.Weight(model.FactorMacro))
	assert.Equal(t, 0.20, w.Weight(model.FactorRisk))

	m := w.Map()
	m[model.FactorMacro] = 99
	assert.Equal(t, 0.30, w.Weight(model.FactorMacro), "Map must return a copy")
}

func TestScore_Extremes(t *testing.T) {
	tables := []*WeightTable{DefaultWeights()}
	alt, err := NewWeightTable(map[model.Factor]float64{"macro": 0.25, "technical": 0.20, "sentiment": 0.35, "risk": 0.20})
	require.NoError(t, err)
	tables = append(tables, alt)

	for _, w := range tables {
		up := model.FactorScoreSet{}
		down := model.FactorScoreSet{}
		for _, f := range model.Factors {
			up[f] = 1
			down[f] = -1
		}
		assert.InDelta(t, 1.0, Score(up, w), 1e-9)
		assert.InDelta(t, -1.0, Score(down, w), 1e-9)
	}
}

func TestScore_MissingFactorsContributeZero(t *testing.T) {
	s := model.FactorScoreSet{model.FactorMacro: 1}
	assert.InDelta(t, 0.3, Score(s, DefaultWeights()), 1e-12)
	assert.Equal(t, 0.0, Score(model.FactorScoreSet{}, DefaultWeights()))
}
