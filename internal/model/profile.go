package model

import (
	"fmt"
	"strings"
)

// RiskProfile is the user-selected stance that scales sizing, risk bands and
// how strongly the model portfolio tilts away from its priors.
type RiskProfile string

const (
	ProfileConservative RiskProfile = "CONSERVATIVE"
	ProfileModerate     RiskProfile = "MODERATE"
	ProfileAggressive   RiskProfile = "AGGRESSIVE"
)

// Profiles lists the recognized profiles from least to most aggressive.
var Profiles = []RiskProfile{ProfileConservative, ProfileModerate, ProfileAggressive}

func (p RiskProfile) Valid() bool {
	switch p {
	case ProfileConservative, ProfileModerate, ProfileAggressive:
		return true
	}
	return false
}

// Title returns the display form, e.g. "Moderate".
func (p RiskProfile) Title() string {
	s := strings.ToLower(string(p))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseRiskProfile matches case-insensitively and accepts "balanced" as an
// alias for Moderate.
func ParseRiskProfile(s string) (RiskProfile, error) {
	m := map[string]RiskProfile{
		"CONSERVATIVE": ProfileConservative,
		"MODERATE":     ProfileModerate,
		"BALANCED":     ProfileModerate,
		"AGGRESSIVE":   ProfileAggressive,
	}
	for k, v := range m {
		if strings.EqualFold(k, strings.TrimSpace(s)) {
			return v, nil
		}
	}
	return "", &ConfigError{Field: "risk_profile", Reason: fmt.Sprintf("could not convert '%s' to known risk profile", s)}
}

// RiskBand holds the stop-loss and take-profit distances, in percent.
type RiskBand struct {
	StopLossPct   float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
}
