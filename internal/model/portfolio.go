package model

import "time"

// AssetWeight is a ticker with a weight in percent.
type AssetWeight struct {
	Ticker string  `json:"ticker" yaml:"ticker"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// AssetPosition is one row of a tilt run. Prior, posterior and blended
// weights are percentages that each sum to 100 across the basket.
type AssetPosition struct {
	Ticker          string  `json:"ticker"`
	PriorWeight     float64 `json:"prior_weight_pct"`
	Composite       float64 `json:"composite"`
	TiltPct         float64 `json:"tilt_pct"`
	RawWeight       float64 `json:"raw_new_weight"`
	PosteriorWeight float64 `json:"posterior_weight_pct"`
	BlendedWeight   float64 `json:"profile_weight_pct"`
}

// PortfolioState is the persisted model portfolio.
type PortfolioState struct {
	Profile   RiskProfile     `json:"profile"`
	Alpha     float64         `json:"alpha"`
	Positions []AssetPosition `json:"positions"`
	Fallback  bool            `json:"fallback"`
	RunCount  int             `json:"run_count"`
	LastRunAt time.Time       `json:"last_run_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
