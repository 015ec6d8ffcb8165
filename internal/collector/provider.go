package collector

import (
	"context"

	"QuantumFlow/internal/model"
)

// Provider supplies expert factor scores for a universe of assets.
type Provider interface {
	Name() string
	Assets(ctx context.Context) ([]model.AssetInfo, error)
	FactorScores(ctx context.Context, assetID string) (model.FactorScoreSet, error)
}

// UnknownAssetError is returned when a provider has no scores for an asset.
type UnknownAssetError struct {
	Provider string
	AssetID  string
}

func (e *UnknownAssetError) Error() string {
	return "provider " + e.Provider + ": unknown asset " + e.AssetID
}
