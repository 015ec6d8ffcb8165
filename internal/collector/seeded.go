package collector

import (
	"context"
	"hash/fnv"
	"math/rand"

	"QuantumFlow/internal/model"
)

// SeededProvider derives repeatable pseudo-random factor scores from the
// ticker. It stands in for a real expert feed in demos and dry runs.
type SeededProvider struct {
	Universe []model.AssetInfo
	Salt     string
}

func NewSeededProvider(universe []model.AssetInfo, salt string) *SeededProvider {
	return &SeededProvider{Universe: universe, Salt: salt}
}

func (p *SeededProvider) Name() string { return "seeded" }

func (p *SeededProvider) Assets(_ context.Context) ([]model.AssetInfo, error) {
	return append([]model.AssetInfo(nil), p.Universe...), nil
}

// FactorScores draws every factor uniformly from [-1, 1], in canonical
// factor order, from a source seeded by FNV-1a(salt + ticker).
func (p *SeededProvider) FactorScores(_ context.Context, assetID string) (model.FactorScoreSet, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(p.Salt))
	_, _ = h.Write([]byte(assetID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	out := make(model.FactorScoreSet, len(model.Factors))
	for _, f := range model.Factors {
		out[f] = rng.Float64()*2 - 1
	}
	return out, nil
}
