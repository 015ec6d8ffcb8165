package portfolio

import (
	"errors"
	"path/filepath"
	"testing"

	"QuantumFlow/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPriors() []model.AssetWeight {
	return basket("NVDA", 16.0, "MSFT", 22.0, "AAPL", 22.0, "BTCUSD", 20.0, "ETHUSD", 20.0)
}

func newTestManager(t *testing.T, profile model.RiskProfile) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "portfolio.json")
	m, err := NewManager(Options{StateFile: path, Priors: defaultPriors(), Profile: profile})
	require.NoError(t, err)
	return m, path
}

func TestNewManager_RejectsBadConfig(t *testing.T) {
	var cfgErr *model.ConfigError

	_, err := NewManager(Options{Priors: basket("A", 50.0, "B", 40.0), Profile: model.ProfileModerate})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "portfolio.priors", cfgErr.Field)

	_, err = NewManager(Options{Priors: defaultPriors(), Profile: "RECKLESS"})
	assert.True(t, errors.As(err, &cfgErr))

	_, err = NewManager(Options{Priors: defaultPriors(), Profile: model.ProfileModerate,
		Alphas: map[model.RiskProfile]float64{model.ProfileModerate: 1.5}})
	assert.True(t, errors.As(err, &cfgErr))
}

func TestManager_Rebalance(t *testing.T) {
	m, _ := newTestManager(t, model.ProfileModerate)

	res, err := m.Rebalance(map[string]float64{
		"NVDA": 0.28, "MSFT": 0.41, "AAPL": 0.20, "BTCUSD": -0.36, "ETHUSD": -0.026,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProfileModerate, res.Profile)
	assert.Equal(t, 0.7, res.Alpha)
	assert.False(t, res.Fallback)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Positions, 5)

	total := 0.0
	for _, p := range res.Positions {
		total += p.BlendedWeight
	}
	assert.InDelta(t, 100, total, 1e-9)
	assert.Greater(t, res.Positions[1].BlendedWeight, res.Positions[1].PriorWeight, "MSFT is tilted up")
	assert.Less(t, res.Positions[3].BlendedWeight, res.Positions[3].PriorWeight, "BTCUSD is tilted down")

	state := m.GetState()
	assert.Equal(t, 1, state.RunCount)
	assert.False(t, state.LastRunAt.IsZero())
}

func TestManager_RebalanceSkipsUnscored(t *testing.T) {
	m, _ := newTestManager(t, model.ProfileAggressive)

	res, err := m.Rebalance(map[string]float64{"MSFT": 0, "AAPL": 0})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"NVDA", "BTCUSD", "ETHUSD"}, res.Skipped)
	require.Len(t, res.Positions, 2)
	assert.InDelta(t, 50, res.Positions[0].BlendedWeight, 1e-9)
	assert.InDelta(t, 50, res.Positions[1].BlendedWeight, 1e-9)

	_, err = m.Rebalance(map[string]float64{"DOGE": 1})
	assert.Error(t, err)
}

func TestManager_RebalanceDegenerateFallsBack(t *testing.T) {
	m, err := NewManager(Options{Priors: basket("A", 50.0, "B", 50.0), TiltFactor: 100, Profile: model.ProfileModerate})
	require.NoError(t, err)

	res, err := m.Rebalance(map[string]float64{"A": -1, "B": -1})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.InDelta(t, 50, res.Positions[0].BlendedWeight, 1e-9)
	assert.InDelta(t, 50, res.Positions[1].BlendedWeight, 1e-9)
	assert.True(t, m.GetState().Fallback)
}

func TestManager_SetProfilePersists(t *testing.T) {
	m, path := newTestManager(t, model.ProfileModerate)

	require.NoError(t, m.SetProfile(model.ProfileConservative))
	assert.Equal(t, model.ProfileConservative, m.Profile())
	assert.Error(t, m.SetProfile("YOLO"))

	_, err := m.Rebalance(map[string]float64{"NVDA": 0.1, "MSFT": 0.1, "AAPL": 0.1, "BTCUSD": 0.1, "ETHUSD": 0.1})
	require.NoError(t, err)

	reloaded, err := NewManager(Options{StateFile: path, Priors: defaultPriors(), Profile: model.ProfileAggressive})
	require.NoError(t, err)
	state := reloaded.GetState()
	assert.Equal(t, model.ProfileConservative, state.Profile)
	assert.Equal(t, 0.4, state.Alpha)
	assert.Equal(t, 1, state.RunCount)
	assert.Len(t, state.Positions, 5)
}

func TestManager_TargetAmounts(t *testing.T) {
	m, _ := newTestManager(t, model.ProfileAggressive)

	_, err := m.TargetAmounts(decimal.NewFromInt(10000))
	assert.Error(t, err, "no rebalance yet")

	_, err = m.Rebalance(map[string]float64{"NVDA": 0, "MSFT": 0, "AAPL": 0, "BTCUSD": 0, "ETHUSD": 0})
	require.NoError(t, err)

	amounts, err := m.TargetAmounts(decimal.NewFromInt(10000))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1600).Equal(amounts["NVDA"]), "got %s", amounts["NVDA"])
	assert.True(t, decimal.NewFromInt(2200).Equal(amounts["MSFT"]), "got %s", amounts["MSFT"])

	_, err = m.TargetAmounts(decimal.Zero)
	assert.Error(t, err)
}

func TestLoadState_Missing(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, state.RunCount)

	state, err = LoadState("")
	require.NoError(t, err)
	assert.Empty(t, state.Positions)
}
