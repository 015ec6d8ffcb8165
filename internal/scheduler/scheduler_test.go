package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"QuantumFlow/internal/collector"
	"QuantumFlow/internal/metrics"
	"QuantumFlow/internal/model"
	"QuantumFlow/internal/portfolio"
	"QuantumFlow/internal/recorder"
	"QuantumFlow/internal/strategy"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func scores(macro, tech, sent, risk float64) model.FactorScoreSet {
	return model.FactorScoreSet{
		model.FactorMacro:     macro,
		model.FactorTechnical: tech,
		model.FactorSentiment: sent,
		model.FactorRisk:      risk,
	}
}

func newTestScheduler(t *testing.T, provider collector.Provider) (*Scheduler, *fakeSender, *metrics.Registry) {
	t.Helper()
	m := metrics.New()
	eng, err := strategy.NewEngine(strategy.Options{})
	require.NoError(t, err)
	pm, err := portfolio.NewManager(portfolio.Options{
		Priors: []model.AssetWeight{
			{Ticker: "NVDA", Weight: 16}, {Ticker: "MSFT", Weight: 22}, {Ticker: "AAPL", Weight: 22},
			{Ticker: "BTCUSD", Weight: 20}, {Ticker: "ETHUSD", Weight: 20},
		},
		Profile: model.ProfileModerate,
	})
	require.NoError(t, err)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "qf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	sender := &fakeSender{}
	s := NewScheduler(context.Background(), collector.NewCollector(provider, m), eng, pm, sender, rec, m)
	s.PortfolioValue = decimal.NewFromInt(100000)
	return s, sender, m
}

func snapshotProvider() collector.Provider {
	return collector.NewFileSnapshotProvider(filepath.Join("..", "collector", "testdata", "snapshot.json"))
}

func TestRunEvaluation_Snapshot(t *testing.T) {
	s, _, m := newTestScheduler(t, snapshotProvider())

	rep, err := s.RunEvaluation(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Decisions, 5)
	assert.Equal(t, "MSFT", rep.Decisions[0].Asset.Ticker)
	assert.Equal(t, model.ActionStrongOverweight, rep.Decisions[0].Action)
	assert.NotEmpty(t, rep.RunID)
	require.NotNil(t, rep.Snapshot)
	assert.Equal(t, "2025-11-21", rep.Snapshot.Date)
	require.NotNil(t, rep.Rebalance)
	assert.False(t, rep.Rebalance.Fallback)
	assert.Contains(t, rep.Playbook.HighVol, "BTCUSD")
	assert.Same(t, rep, s.Last())

	// ETHUSD risk_score of 1.4 is clamped at the boundary.
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Clamps.WithLabelValues("risk")))
	assert.InDelta(t, 0.41, testutil.ToFloat64(m.Composite.WithLabelValues("MSFT")), 1e-9)

	hist, err := s.Recorder.History(context.Background(), "MSFT", 5)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, rep.RunID, hist[0].RunID)
}

func TestRunEvaluation_DegenerateFallsBack(t *testing.T) {
	mock := &collector.MockProvider{
		Infos: []model.AssetInfo{{Ticker: "BTCUSD", AssetClass: "Crypto"}, {Ticker: "ETHUSD", AssetClass: "Crypto"}},
		Scores: map[string]model.FactorScoreSet{
			"BTCUSD": scores(-1, -1, -1, -1),
			"ETHUSD": scores(-1, -1, -1, -1),
		},
	}
	s, _, m := newTestScheduler(t, mock)
	pm, err := portfolio.NewManager(portfolio.Options{
		Priors:     []model.AssetWeight{{Ticker: "BTCUSD", Weight: 50}, {Ticker: "ETHUSD", Weight: 50}},
		TiltFactor: 60,
		Profile:    model.ProfileAggressive,
	})
	require.NoError(t, err)
	s.Portfolio = pm

	rep, err := s.RunEvaluation(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep.Rebalance)
	assert.True(t, rep.Rebalance.Fallback)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DegenerateBaskets))
	assert.Equal(t, model.ActionAvoid, rep.Decisions[0].Action)
}

func TestRunEvaluation_NoAssets(t *testing.T) {
	s, _, _ := newTestScheduler(t, &collector.MockProvider{Infos: []model.AssetInfo{}})
	_, err := s.RunEvaluation(context.Background())
	assert.Error(t, err)
}

func TestDailyTaskSendsReports(t *testing.T) {
	s, sender, _ := newTestScheduler(t, snapshotProvider())
	s.RunDailyNow()

	require.Len(t, sender.messages, 3)
	assert.Contains(t, sender.messages[0], "Market Regime")
	assert.Contains(t, sender.messages[0], "Decision Matrix")
	assert.Contains(t, sender.messages[1], "Cross-Asset Snapshot")
	assert.Contains(t, sender.messages[1], "<b>SPX</b> S&amp;P 500")
	assert.Contains(t, sender.messages[1], "Crypto Snapshot")
	assert.Contains(t, sender.messages[2], "Model Portfolio")
	assert.Contains(t, sender.messages[2], "Targets")
}

func TestHandleCommand(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestScheduler(t, snapshotProvider())

	assert.Contains(t, s.HandleCommand(ctx, "/portfolio"), "No rebalance has run yet")
	assert.Contains(t, s.HandleCommand(ctx, "/matrix"), "<b>MSFT</b> +0.41 STRONG_OVERWEIGHT")
	assert.Contains(t, s.HandleCommand(ctx, "/panel"), "Expert Panel")
	assert.Contains(t, s.HandleCommand(ctx, "/playbook@QuantumFlowBot"), "Today's Playbook")
	assert.Contains(t, s.HandleCommand(ctx, "/regime"), "Late-cycle expansion")
	markets := s.HandleCommand(ctx, "/markets")
	assert.Contains(t, markets, "1D +0.40% · 5D +1.10% · 1M +2.30% · YTD +14.80%")
	assert.Contains(t, markets, "<b>BTC</b> Bitcoin 86500.00 | 1D -1.80% · 7D -6.20% · 1M -12.40%")
	assert.Contains(t, s.HandleCommand(ctx, "/portfolio"), "Profile: Moderate")
	assert.Contains(t, s.HandleCommand(ctx, "/history msft"), "STRONG_OVERWEIGHT")
	assert.Contains(t, s.HandleCommand(ctx, "/history"), "Usage")
	assert.Contains(t, s.HandleCommand(ctx, "hello"), "Available commands")
	assert.Contains(t, s.HandleCommand(ctx, ""), "Available commands")
}

func TestHandleCommand_Profile(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestScheduler(t, snapshotProvider())

	assert.Contains(t, s.HandleCommand(ctx, "/profile"), "Current profile: Moderate (alpha 0.7)")
	assert.True(t, strings.HasPrefix(s.HandleCommand(ctx, "/profile YOLO"), "❌"))

	reply := s.HandleCommand(ctx, "/profile conservative")
	assert.Contains(t, reply, "Profile set to Conservative")
	assert.Equal(t, model.ProfileConservative, s.Portfolio.Profile())

	rep, err := s.RunEvaluation(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ProfileConservative, rep.Profile)
	assert.Equal(t, 0.4, rep.Rebalance.Alpha)
	assert.Equal(t, 5.0, rep.Decisions[0].Band.StopLossPct)
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(t, snapshotProvider())
	require.NoError(t, s.RegisterAll("0 30 22 * * 1-5", "0 0 8 * * 1"))
	assert.Len(t, s.Cron.Entries(), 2)
	assert.Error(t, s.RegisterAll("not a cron", "0 0 8 * * 1"))
}
