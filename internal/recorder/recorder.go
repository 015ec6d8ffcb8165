package recorder

import (
	"context"
	"time"

	"QuantumFlow/internal/model"
)

// Run is one evaluation pass: every decision made for a profile and, when
// the model portfolio was rebalanced, the resulting positions.
type Run struct {
	ID           string
	At           time.Time
	Source       string // provider name
	SnapshotDate string
	Profile      model.RiskProfile
	Decisions    []model.Decision
	Rebalance    *Rebalance
}

// Rebalance is the portfolio side of a Run.
type Rebalance struct {
	Alpha     float64
	Fallback  bool
	Positions []model.AssetPosition
}

// ProfileChange records a risk profile switch.
type ProfileChange struct {
	From   model.RiskProfile
	To     model.RiskProfile
	Source string // "telegram", "cli", ...
}

// HistoryEntry is one past decision for a ticker.
type HistoryEntry struct {
	RunID      string
	At         time.Time
	Ticker     string
	Profile    model.RiskProfile
	Composite  float64
	Action     model.ActionLabel
	Allocation float64
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordRun(ctx context.Context, run *Run) (string, error)
	RecordProfileChange(ctx context.Context, evt *ProfileChange) error
	History(ctx context.Context, ticker string, limit int) ([]HistoryEntry, error)
	Close() error
}

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)
