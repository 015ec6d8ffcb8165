package recorder

import (
	"context"

	"github.com/google/uuid"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ context.Context, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	return run.ID, nil
}

func (n *NoopRecorder) RecordProfileChange(_ context.Context, _ *ProfileChange) error { return nil }

func (n *NoopRecorder) History(_ context.Context, _ string, _ int) ([]HistoryEntry, error) {
	return nil, nil
}

func (n *NoopRecorder) Close() error { return nil }
