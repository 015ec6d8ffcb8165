package collector

import (
	"context"
	"fmt"

	"QuantumFlow/internal/calculator"
	"QuantumFlow/internal/metrics"
	"QuantumFlow/internal/model"

	"github.com/rs/zerolog/log"
)

// Collector pulls factor scores from a provider and enforces the [-1, 1]
// score domain at the boundary.
type Collector struct {
	Provider Provider
	Metrics  *metrics.Registry
}

// NewCollector creates a new Collector. m may be nil.
func NewCollector(p Provider, m *metrics.Registry) *Collector {
	return &Collector{Provider: p, Metrics: m}
}

// Collect fetches one asset's scores and clamps every value into [-1, 1].
// Each clamp is logged and counted, never returned as an error.
func (c *Collector) Collect(ctx context.Context, asset model.AssetInfo) (model.Observation, error) {
	raw, err := c.Provider.FactorScores(ctx, asset.Ticker)
	if err != nil {
		c.Metrics.RecordProviderError(c.Provider.Name())
		return model.Observation{}, fmt.Errorf("factor scores for %s: %w", asset.Ticker, err)
	}

	scores := make(model.FactorScoreSet, len(raw))
	var clamped []model.Factor
	for _, f := range model.Factors {
		v, ok := raw[f]
		if !ok {
			continue
		}
		bounded, moved := calculator.ClampScore(v)
		if moved {
			log.Warn().
				Str("asset", asset.Ticker).
				Str("factor", string(f)).
				Float64("raw", v).
				Float64("clamped", bounded).
				Msg("factor score outside [-1, 1], clamped")
			c.Metrics.RecordClamp(string(f))
			clamped = append(clamped, f)
		}
		scores[f] = bounded
	}
	for f := range raw {
		if !f.Valid() {
			log.Debug().Str("asset", asset.Ticker).Str("factor", string(f)).Msg("ignoring unknown factor")
		}
	}

	return model.Observation{Asset: asset, Scores: scores, Clamped: clamped}, nil
}

// CollectAll collects every asset the provider lists. A failing asset is
// logged and skipped; only a failure to list assets is returned.
func (c *Collector) CollectAll(ctx context.Context) ([]model.Observation, error) {
	assets, err := c.Provider.Assets(ctx)
	if err != nil {
		c.Metrics.RecordProviderError(c.Provider.Name())
		return nil, fmt.Errorf("list assets from %s: %w", c.Provider.Name(), err)
	}
	out := make([]model.Observation, 0, len(assets))
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obs, err := c.Collect(ctx, a)
		if err != nil {
			log.Warn().Err(err).Str("asset", a.Ticker).Msg("skipping asset")
			continue
		}
		out = append(out, obs)
	}
	return out, nil
}
