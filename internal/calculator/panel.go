package calculator

import (
	"QuantumFlow/internal/model"

	"gonum.org/v1/gonum/stat"
)

// HighVolatilityPct is the 30-day realized volatility at which an asset is
// flagged for tactical traders.
const HighVolatilityPct = 35.0

// PanelEntry is one expert's average view across the scored assets.
type PanelEntry struct {
	Factor      model.Factor
	Mean        float64
	Description string
}

// Describe turns an average factor score into a one-line stance.
func Describe(score float64) string {
	switch {
	case score >= 0.5:
		return "Strongly supportive / bullish"
	case score >= 0.1:
		return "Mildly supportive"
	case score <= -0.5:
		return "Strongly cautious / defensive"
	case score <= -0.1:
		return "Mildly cautious"
	default:
		return "Neutral / finely balanced"
	}
}

// ExpertPanel averages each factor over the decisions, in canonical factor
// order. An empty input yields zero means.
func ExpertPanel(decisions []model.Decision) []PanelEntry {
	out := make([]PanelEntry, 0, len(model.Factors))
	for _, f := range model.Factors {
		mean := 0.0
		if len(decisions) > 0 {
			values := make([]float64, len(decisions))
			for i, d := range decisions {
				values[i] = d.Scores.Get(f)
			}
			mean = stat.Mean(values, nil)
		}
		out = append(out, PanelEntry{Factor: f, Mean: mean, Description: Describe(mean)})
	}
	return out
}

// Playbook splits decisions into the tickers the engine favours, the ones
// to de-risk, and the ones volatile enough to warrant tight stops.
type Playbook struct {
	Favoured   []string
	Unfavoured []string
	HighVol    []string
}

func BuildPlaybook(decisions []model.Decision) Playbook {
	var pb Playbook
	for _, d := range decisions {
		switch {
		case d.Action.Favoured():
			pb.Favoured = append(pb.Favoured, d.Asset.Ticker)
		case d.Action.Unfavoured():
			pb.Unfavoured = append(pb.Unfavoured, d.Asset.Ticker)
		}
		if d.Asset.RealizedVol30D >= HighVolatilityPct {
			pb.HighVol = append(pb.HighVol, d.Asset.Ticker)
		}
	}
	return pb
}

// Dispersion is the population standard deviation of the composites, a
// rough gauge of how much the engine separates the assets.
func Dispersion(decisions []model.Decision) float64 {
	if len(decisions) < 2 {
		return 0
	}
	values := make([]float64, len(decisions))
	for i, d := range decisions {
		values[i] = d.Composite
	}
	return stat.PopStdDev(values, nil)
}
