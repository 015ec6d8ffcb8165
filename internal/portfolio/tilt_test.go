package portfolio

import (
	"errors"
	"testing"

	"QuantumFlow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basket(pairs ...interface{}) []model.AssetWeight {
	out := []model.AssetWeight{}
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, model.AssetWeight{Ticker: pairs[i].(string), Weight: pairs[i+1].(float64)})
	}
	return out
}

func weights(positions []model.AssetPosition, pick func(model.AssetPosition) float64) []float64 {
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = pick(p)
	}
	return out
}

func posterior(p model.AssetPosition) float64 { return p.PosteriorWeight }
func blended(p model.AssetPosition) float64   { return p.BlendedWeight }
func prior(p model.AssetPosition) float64     { return p.PriorWeight }

func TestTiltBasket_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		priors     []model.AssetWeight
		composites map[string]float64
		tilt       float64
		raw        []float64
		posterior  []float64
	}{
		{
			name:       "raw already sums to 100",
			priors:     basket("A", 60.0, "B", 40.0),
			composites: map[string]float64{"A": 0.5, "B": -0.5},
			tilt:       10,
			raw:        []float64{65, 35},
			posterior:  []float64{65, 35},
		},
		{
			name:       "full conviction both ways",
			priors:     basket("A", 50.0, "B", 50.0),
			composites: map[string]float64{"A": 1.0, "B": -1.0},
			tilt:       10,
			raw:        []float64{60, 40},
			posterior:  []float64{60, 40},
		},
		{
			name:       "out of domain composites still leave weight",
			priors:     basket("A", 50.0, "B", 50.0),
			composites: map[string]float64{"A": -2.0, "B": -2.0},
			tilt:       10,
			raw:        []float64{30, 30},
			posterior:  []float64{50, 50},
		},
		{
			name:       "raw does not sum to 100",
			priors:     basket("A", 50.0, "B", 30.0, "C", 20.0),
			composites: map[string]float64{"A": 0.5, "B": 0.2, "C": -1.0},
			tilt:       10,
			raw:        []float64{55, 32, 10},
			posterior:  []float64{55.0 / 97 * 100, 32.0 / 97 * 100, 10.0 / 97 * 100},
		},
		{
			name:       "missing composite is not tilted",
			priors:     basket("A", 50.0, "B", 50.0),
			composites: map[string]float64{"A": 1.0},
			tilt:       10,
			raw:        []float64{60, 50},
			posterior:  []float64{60.0 / 110 * 100, 50.0 / 110 * 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := TiltBasket(tt.priors, tt.composites, tt.tilt)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.raw, weights(out, func(p model.AssetPosition) float64 { return p.RawWeight }), 1e-9)
			assert.InDeltaSlice(t, tt.posterior, weights(out, posterior), 1e-9)
		})
	}
}

func TestTiltBasket_Degenerate(t *testing.T) {
	_, err := TiltBasket(basket("A", 10.0, "B", 10.0), map[string]float64{"A": -1, "B": -1}, 20)
	var degenerate *DegenerateBasketError
	require.True(t, errors.As(err, &degenerate), "expected DegenerateBasketError, got %v", err)
	assert.Equal(t, 2, degenerate.Assets)
	assert.Equal(t, 0.0, degenerate.TotalRaw)
}

func TestTiltBasket_Invalid(t *testing.T) {
	_, err := TiltBasket(nil, nil, 10)
	assert.Error(t, err)

	_, err = TiltBasket(basket("A", 50.0, "A", 50.0), nil, 10)
	assert.Error(t, err)

	_, err = TiltBasket(basket("A", -5.0, "B", 105.0), nil, 10)
	assert.Error(t, err)

	_, err = TiltBasket(basket("A", 50.0, "B", 50.0), nil, -1)
	assert.Error(t, err)
}

func TestNormalize_ScaleInvariant(t *testing.T) {
	raw := []float64{65, 35, 12.5, 0}
	base, err := Normalize(raw)
	require.NoError(t, err)

	for _, k := range []float64{0.001, 0.5, 3, 1e6} {
		scaled := make([]float64, len(raw))
		for i, v := range raw {
			scaled[i] = v * k
		}
		out, err := Normalize(scaled)
		require.NoError(t, err)
		assert.InDeltaSlice(t, base, out, 1e-9, "k=%v", k)
	}
}

func TestTiltBasket_ScaleInvariant(t *testing.T) {
	composites := map[string]float64{"A": 0.3, "B": -0.2, "C": 0.05}
	base, err := TiltBasket(basket("A", 40.0, "B", 35.0, "C", 25.0), composites, 10)
	require.NoError(t, err)

	// Scaling priors and tilt factor together scales every raw weight by k.
	k := 4.0
	scaled, err := TiltBasket(basket("A", 160.0, "B", 140.0, "C", 100.0), composites, 10*k)
	require.NoError(t, err)
	assert.InDeltaSlice(t, weights(base, posterior), weights(scaled, posterior), 1e-9)
}

func TestBlend_Extremes(t *testing.T) {
	positions, err := TiltBasket(basket("NVDA", 16.0, "MSFT", 22.0, "AAPL", 22.0, "BTCUSD", 20.0, "ETHUSD", 20.0),
		map[string]float64{"NVDA": 0.28, "MSFT": 0.41, "AAPL": 0.20, "BTCUSD": -0.36, "ETHUSD": -0.026}, 10)
	require.NoError(t, err)

	zero, err := Blend(positions, 0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, weights(positions, prior), weights(zero, blended), 1e-9)

	one, err := Blend(positions, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, weights(positions, posterior), weights(one, blended), 1e-9)

	mid, err := Blend(positions, 0.7)
	require.NoError(t, err)
	total := 0.0
	for i, p := range mid {
		total += p.BlendedWeight
		want := 0.7*positions[i].PosteriorWeight + 0.3*positions[i].PriorWeight
		assert.InDelta(t, want, p.BlendedWeight, 1e-9)
	}
	assert.InDelta(t, 100, total, 1e-9)

	_, err = Blend(positions, 1.2)
	assert.Error(t, err)
}

func TestTiltAndBlend(t *testing.T) {
	out, err := TiltAndBlend(basket("A", 60.0, "B", 40.0), map[string]float64{"A": 0.5, "B": -0.5}, 10, 0.4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{62, 38}, weights(out, blended), 1e-9)
}

func TestProfileAlpha(t *testing.T) {
	a, err := ProfileAlpha(model.ProfileConservative)
	require.NoError(t, err)
	assert.Equal(t, 0.4, a)
	a, err = ProfileAlpha(model.ProfileModerate)
	require.NoError(t, err)
	assert.Equal(t, 0.7, a)
	a, err = ProfileAlpha(model.ProfileAggressive)
	require.NoError(t, err)
	assert.Equal(t, 0.9, a)

	_, err = ProfileAlpha("BALANCED")
	assert.Error(t, err)
}

func TestValidatePriors(t *testing.T) {
	assert.NoError(t, ValidatePriors(basket("A", 16.0, "B", 22.0, "C", 22.0, "D", 20.0, "E", 20.0)))
	assert.Error(t, ValidatePriors(basket("A", 50.0, "B", 40.0)))
	assert.Error(t, ValidatePriors(nil))
}

func TestRebase(t *testing.T) {
	out, err := Rebase(basket("A", 50.0, "B", 30.0, "C", 20.0), func(t string) bool { return t != "C" })
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 62.5, out[0].Weight, 1e-9)
	assert.InDelta(t, 37.5, out[1].Weight, 1e-9)

	_, err = Rebase(basket("A", 100.0), func(string) bool { return false })
	assert.Error(t, err)
}
