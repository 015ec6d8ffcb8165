package calculator

import (
	"math"
	"testing"

	"QuantumFlow/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestClampScore(t *testing.T) {
	tests := []struct {
		in      float64
		want    float64
		clamped bool
	}{
		{0.3, 0.3, false},
		{1, 1, false},
		{-1, -1, false},
		{1.7, 1, true},
		{-3, -1, true},
		{math.NaN(), -1, true},
	}
	for _, tt := range tests {
		got, clamped := ClampScore(tt.in)
		assert.Equal(t, tt.want, got, "ClampScore(%v)", tt.in)
		assert.Equal(t, tt.clamped, clamped, "ClampScore(%v) clamped", tt.in)
	}
}

func TestRangePosition(t *testing.T) {
	pos, err := RangePosition(15, 10, 20)
	assert.NoError(t, err)
	assert.Equal(t, 0.5, pos)

	pos, err = RangePosition(25, 10, 20)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, pos)

	_, err = RangePosition(15, 20, 10)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Strongly supportive / bullish", Describe(0.5))
	assert.Equal(t, "Mildly supportive", Describe(0.1))
	assert.Equal(t, "Neutral / finely balanced", Describe(0.05))
	assert.Equal(t, "Neutral / finely balanced", Describe(-0.09))
	assert.Equal(t, "Mildly cautious", Describe(-0.1))
	assert.Equal(t, "Strongly cautious / defensive", Describe(-0.5))
}

func decision(ticker string, action model.ActionLabel, vol, composite float64, scores model.FactorScoreSet) model.Decision {
	return model.Decision{
		Asset:     model.AssetInfo{Ticker: ticker, RealizedVol30D: vol},
		Action:    action,
		Composite: composite,
		Scores:    scores,
	}
}

func TestExpertPanel(t *testing.T) {
	decisions := []model.Decision{
		decision("MSFT", model.ActionStrongOverweight, 22, 0.41, model.FactorScoreSet{
			model.FactorMacro: 0.5, model.FactorTechnical: 0.7, model.FactorSentiment: 0.55, model.FactorRisk: -0.3,
		}),
		decision("BTCUSD", model.ActionUnderweight, 55, -0.36, model.FactorScoreSet{
			model.FactorMacro: -0.1, model.FactorTechnical: -0.4, model.FactorSentiment: -0.35, model.FactorRisk: -0.7,
		}),
	}
	panel := ExpertPanel(decisions)
	assert.Len(t, panel, 4)
	assert.Equal(t, model.FactorMacro, panel[0].Factor)
	assert.InDelta(t, 0.2, panel[0].Mean, 1e-9)
	assert.Equal(t, "Mildly supportive", panel[0].Description)
	assert.InDelta(t, -0.5, panel[3].Mean, 1e-9)
	assert.Equal(t, "Strongly cautious / defensive", panel[3].Description)

	empty := ExpertPanel(nil)
	assert.Len(t, empty, 4)
	assert.Equal(t, 0.0, empty[1].Mean)
}

func TestBuildPlaybook(t *testing.T) {
	pb := BuildPlaybook([]model.Decision{
		decision("MSFT", model.ActionStrongOverweight, 22, 0.41, nil),
		decision("NVDA", model.ActionOverweight, 48, 0.2, nil),
		decision("AAPL", model.ActionNeutral, 20, 0, nil),
		decision("BTCUSD", model.ActionUnderweight, 55, -0.36, nil),
		decision("XYZ", model.ActionAvoid, 35, -0.6, nil),
	})
	assert.Equal(t, []string{"MSFT", "NVDA"}, pb.Favoured)
	assert.Equal(t, []string{"BTCUSD", "XYZ"}, pb.Unfavoured)
	assert.Equal(t, []string{"NVDA", "BTCUSD", "XYZ"}, pb.HighVol)
}

func TestDispersion(t *testing.T) {
	assert.Equal(t, 0.0, Dispersion(nil))
	got := Dispersion([]model.Decision{
		decision("A", model.ActionNeutral, 0, 0.2, nil),
		decision("B", model.ActionNeutral, 0, -0.2, nil),
	})
	assert.InDelta(t, 0.2, got, 1e-9)
}
