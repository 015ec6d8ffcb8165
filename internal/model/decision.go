package model

// ActionLabel is the discrete recommendation derived from a composite score.
type ActionLabel string

const (
	ActionStrongOverweight ActionLabel = "STRONG_OVERWEIGHT"
	ActionOverweight       ActionLabel = "OVERWEIGHT"
	ActionNeutral          ActionLabel = "NEUTRAL"
	ActionUnderweight      ActionLabel = "UNDERWEIGHT"
	ActionAvoid            ActionLabel = "AVOID"
)

// Actions lists the canonical labels from most to least favourable.
var Actions = []ActionLabel{
	ActionStrongOverweight,
	ActionOverweight,
	ActionNeutral,
	ActionUnderweight,
	ActionAvoid,
}

func (a ActionLabel) Valid() bool {
	for _, k := range Actions {
		if a == k {
			return true
		}
	}
	return false
}

// Favoured is true for the two overweight labels.
func (a ActionLabel) Favoured() bool {
	return a == ActionStrongOverweight || a == ActionOverweight
}

// Unfavoured is true for UNDERWEIGHT and AVOID.
func (a ActionLabel) Unfavoured() bool {
	return a == ActionUnderweight || a == ActionAvoid
}

// Contribution is one factor's share of a composite score.
type Contribution struct {
	Factor   Factor  `json:"factor"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Decision is the engine output for one asset under one risk profile.
type Decision struct {
	Asset         AssetInfo      `json:"asset"`
	Scores        FactorScoreSet `json:"scores"`
	Contributions []Contribution `json:"contributions"`
	Composite     float64        `json:"composite"`
	Action        ActionLabel    `json:"action"`
	Profile       RiskProfile    `json:"profile"`
	BaseAlloc     float64        `json:"base_allocation"`
	Allocation    float64        `json:"allocation"`
	Band          RiskBand       `json:"risk_band"`
	Clamped       []Factor       `json:"clamped,omitempty"`
}
