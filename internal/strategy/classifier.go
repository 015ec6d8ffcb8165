package strategy

import (
	"fmt"

	"QuantumFlow/internal/model"
)

// Band is one rung of the threshold ladder. A score matches when it is
// above Min, or equal to Min and Inclusive is set.
type Band struct {
	Label     model.ActionLabel `yaml:"label"`
	Min       float64           `yaml:"min"`
	Inclusive bool              `yaml:"inclusive"`
}

func (b Band) matches(score float64) bool {
	return score > b.Min || (b.Inclusive && score == b.Min)
}

// Ladder maps composite scores to labels, evaluated from the highest band
// down; first match wins and anything below every band gets Floor.
type Ladder struct {
	bands []Band
	floor model.ActionLabel
}

// DefaultBands is the canonical 5-band ladder:
//
//	score >= 0.40          STRONG_OVERWEIGHT
//	0.15 <= score < 0.40   OVERWEIGHT
//	-0.15 < score < 0.15   NEUTRAL
//	-0.40 < score <= -0.15 UNDERWEIGHT
//	score <= -0.40         AVOID
var DefaultBands = []Band{
	{Label: model.ActionStrongOverweight, Min: 0.40, Inclusive: true},
	{Label: model.ActionOverweight, Min: 0.15, Inclusive: true},
	{Label: model.ActionNeutral, Min: -0.15, Inclusive: false},
	{Label: model.ActionUnderweight, Min: -0.40, Inclusive: false},
}

var defaultLadder = &Ladder{bands: DefaultBands, floor: model.ActionAvoid}

// DefaultLadder returns the canonical ladder.
func DefaultLadder() *Ladder {
	return defaultLadder
}

// NewLadder validates that bands are in strictly descending order of Min and
// carry known labels.
func NewLadder(bands []Band, floor model.ActionLabel) (*Ladder, error) {
	if len(bands) == 0 {
		return nil, &model.ConfigError{Field: "ladder", Reason: "at least one band is required"}
	}
	if !floor.Valid() {
		return nil, &model.ConfigError{Field: "ladder.floor", Reason: fmt.Sprintf("unknown label '%s'", floor)}
	}
	for i, b := range bands {
		if !b.Label.Valid() {
			return nil, &model.ConfigError{Field: fmt.Sprintf("ladder[%d]", i), Reason: fmt.Sprintf("unknown label '%s'", b.Label)}
		}
		if i > 0 && b.Min >= bands[i-1].Min {
			return nil, &model.ConfigError{
				Field:  fmt.Sprintf("ladder[%d]", i),
				Reason: fmt.Sprintf("min %.4f must be below previous band min %.4f", b.Min, bands[i-1].Min),
			}
		}
	}
	cp := make([]Band, len(bands))
	copy(cp, bands)
	return &Ladder{bands: cp, floor: floor}, nil
}

// Classify maps a composite score to a label. Total over all reals; NaN
// falls through to the floor.
func (l *Ladder) Classify(score float64) model.ActionLabel {
	for _, b := range l.bands {
		if b.matches(score) {
			return b.Label
		}
	}
	return l.floor
}

// Bands returns a copy of the ladder, highest band first.
func (l *Ladder) Bands() []Band {
	cp := make([]Band, len(l.bands))
	copy(cp, l.bands)
	return cp
}

// Floor is the label for scores below every band.
func (l *Ladder) Floor() model.ActionLabel { return l.floor }

// Classify maps a composite score to a label using the canonical ladder.
func Classify(score float64) model.ActionLabel {
	return defaultLadder.Classify(score)
}
