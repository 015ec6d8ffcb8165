package collector

import (
	"context"
	"fmt"
	"os"
	"sync"

	"QuantumFlow/internal/model"

	"github.com/rs/zerolog/log"
)

// LoadSnapshotFile reads a snapshot document from disk.
func LoadSnapshotFile(path string) (*model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return DecodeSnapshot(f)
}

// SnapshotProvider serves factor scores out of a snapshot document. The
// snapshot is loaded lazily and kept until Refresh.
type SnapshotProvider struct {
	mu      sync.RWMutex
	snap    *model.Snapshot
	path    string
	fetcher *SnapshotFetcher
}

// NewFileSnapshotProvider reads the snapshot from path on first use.
func NewFileSnapshotProvider(path string) *SnapshotProvider {
	return &SnapshotProvider{path: path}
}

// NewHTTPSnapshotProvider downloads the snapshot with f on first use.
func NewHTTPSnapshotProvider(f *SnapshotFetcher) *SnapshotProvider {
	return &SnapshotProvider{fetcher: f}
}

// NewStaticSnapshotProvider serves an already decoded snapshot.
func NewStaticSnapshotProvider(snap *model.Snapshot) *SnapshotProvider {
	return &SnapshotProvider{snap: snap}
}

func (p *SnapshotProvider) Name() string {
	switch {
	case p.fetcher != nil:
		return "snapshot-http"
	case p.path != "":
		return "snapshot-file"
	default:
		return "snapshot"
	}
}

// Refresh reloads the snapshot from its source.
func (p *SnapshotProvider) Refresh(ctx context.Context) error {
	var (
		snap *model.Snapshot
		err  error
	)
	switch {
	case p.fetcher != nil:
		snap, err = p.fetcher.Fetch(ctx)
	case p.path != "":
		snap, err = LoadSnapshotFile(p.path)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.snap = snap
	p.mu.Unlock()
	log.Info().Str("provider", p.Name()).Str("date", snap.Date).Int("assets", len(snap.AssetMatrix)).Msg("snapshot loaded")
	return nil
}

// Snapshot returns the current document, loading it if needed.
func (p *SnapshotProvider) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	p.mu.RLock()
	snap := p.snap
	p.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.snap == nil {
		return nil, fmt.Errorf("%s: no snapshot source configured", p.Name())
	}
	return p.snap, nil
}

func (p *SnapshotProvider) Assets(ctx context.Context) ([]model.AssetInfo, error) {
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.AssetInfo, len(snap.AssetMatrix))
	for i, row := range snap.AssetMatrix {
		out[i] = row.Info()
	}
	return out, nil
}

// FactorScores returns the row's scores. Missing score fields read as 0.
func (p *SnapshotProvider) FactorScores(ctx context.Context, assetID string) (model.FactorScoreSet, error) {
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	row, ok := snap.Row(assetID)
	if !ok {
		return nil, &UnknownAssetError{Provider: p.Name(), AssetID: assetID}
	}
	return row.FactorScores(), nil
}
