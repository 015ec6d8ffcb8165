package collector

import (
	"context"
	"sync"

	"QuantumFlow/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
type MockProvider struct {
	mu     sync.Mutex
	Infos  []model.AssetInfo
	Scores map[string]model.FactorScoreSet
	Err    error
	Calls  int
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Assets(_ context.Context) ([]model.AssetInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Infos != nil {
		return m.Infos, nil
	}
	out := make([]model.AssetInfo, 0, len(m.Scores))
	for ticker := range m.Scores {
		out = append(out, model.AssetInfo{Ticker: ticker})
	}
	return out, nil
}

func (m *MockProvider) FactorScores(_ context.Context, assetID string) (model.FactorScoreSet, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Scores[assetID]
	if !ok {
		return nil, &UnknownAssetError{Provider: m.Name(), AssetID: assetID}
	}
	return s.Clone(), nil
}
