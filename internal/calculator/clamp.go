package calculator

import (
	"errors"
	"math"
)

// ScoreMin and ScoreMax bound every factor and composite score.
const (
	ScoreMin = -1.0
	ScoreMax = 1.0
)

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampScore limits a factor score to [-1, 1] and reports whether it moved.
func ClampScore(v float64) (float64, bool) {
	c := Clamp(v, ScoreMin, ScoreMax)
	return c, c != v || math.IsNaN(v)
}

// RangePosition returns where v sits between low and high (0.0~1.0).
func RangePosition(v, low, high float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	return Clamp((v-low)/(high-low), 0, 1), nil
}
