package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"QuantumFlow/internal/calculator"
	"QuantumFlow/internal/collector"
	"QuantumFlow/internal/metrics"
	"QuantumFlow/internal/model"
	"QuantumFlow/internal/notifier"
	"QuantumFlow/internal/portfolio"
	"QuantumFlow/internal/recorder"
	"QuantumFlow/internal/strategy"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Sender delivers formatted reports.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// snapshotSource is implemented by providers backed by a snapshot document.
type snapshotSource interface {
	Refresh(ctx context.Context) error
	Snapshot(ctx context.Context) (*model.Snapshot, error)
}

// Report is the outcome of one evaluation run.
type Report struct {
	RunID      string
	At         time.Time
	Profile    model.RiskProfile
	Decisions  []model.Decision
	Rebalance  *portfolio.RebalanceResult
	Snapshot   *model.Snapshot
	Panel      []calculator.PanelEntry
	Playbook   calculator.Playbook
	Dispersion float64
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron           *cron.Cron
	Collector      *collector.Collector
	Engine         *strategy.Engine
	Portfolio      *portfolio.Manager
	Notifier       Sender
	Recorder       recorder.Recorder
	Metrics        *metrics.Registry
	PortfolioValue decimal.Decimal
	Ctx            context.Context

	mu   sync.Mutex
	last *Report
}

// NewScheduler creates a new Scheduler. tn and m may be nil.
func NewScheduler(ctx context.Context, col *collector.Collector, eng *strategy.Engine, pm *portfolio.Manager, tn Sender, rec recorder.Recorder, m *metrics.Registry) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Engine:    eng,
		Portfolio: pm,
		Notifier:  tn,
		Recorder:  rec,
		Metrics:   m,
		Ctx:       ctx,
	}
}

// RegisterAll registers the daily evaluation and the weekly digest.
func (s *Scheduler) RegisterAll(dailyCron, weeklyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if _, err := s.Cron.AddFunc(weeklyCron, s.weeklyTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunDailyNow executes the daily task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

// Last returns the most recent report, or nil before the first run.
func (s *Scheduler) Last() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// RunEvaluation refreshes the provider, scores every asset for the current
// profile, rebalances the model portfolio and records the run.
func (s *Scheduler) RunEvaluation(ctx context.Context) (*Report, error) {
	profile := s.Portfolio.Profile()
	rep := &Report{At: time.Now(), Profile: profile}

	src, hasSnapshot := s.Collector.Provider.(snapshotSource)
	if hasSnapshot {
		if err := src.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("snapshot refresh failed, using cached copy")
		}
	}

	obs, err := s.Collector.CollectAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, errors.New("provider returned no scorable assets")
	}

	decisions, err := s.Engine.EvaluateAll(obs, profile)
	if err != nil {
		return nil, err
	}
	rep.Decisions = decisions
	for _, d := range decisions {
		s.Metrics.RecordDecision(d.Asset.Ticker, string(d.Action), string(profile), d.Composite, d.Allocation)
		log.Debug().
			Str("asset", d.Asset.Ticker).
			Str("profile", string(profile)).
			Float64("composite", d.Composite).
			Str("action", string(d.Action)).
			Msg("asset evaluated")
	}
	rep.Panel = calculator.ExpertPanel(decisions)
	rep.Playbook = calculator.BuildPlaybook(decisions)
	rep.Dispersion = calculator.Dispersion(decisions)

	res, err := s.Portfolio.Rebalance(strategy.Composites(decisions))
	if err != nil {
		log.Error().Err(err).Msg("portfolio rebalance failed")
	} else {
		rep.Rebalance = res
		if res.Fallback {
			s.Metrics.RecordDegenerateBasket()
		}
		for _, p := range res.Positions {
			s.Metrics.RecordWeight(p.Ticker, p.BlendedWeight)
		}
		if len(res.Skipped) > 0 {
			log.Warn().Strs("tickers", res.Skipped).Msg("priors without scores were left out of the rebalance")
		}
	}

	run := &recorder.Run{
		At:        rep.At,
		Source:    s.Collector.Provider.Name(),
		Profile:   profile,
		Decisions: decisions,
	}
	if hasSnapshot {
		if snap, err := src.Snapshot(ctx); err == nil {
			rep.Snapshot = snap
			run.SnapshotDate = snap.Date
		}
	}
	if res != nil {
		run.Rebalance = &recorder.Rebalance{Alpha: res.Alpha, Fallback: res.Fallback, Positions: res.Positions}
	}
	id, err := s.Recorder.RecordRun(ctx, run)
	if err != nil {
		log.Error().Err(err).Msg("record run")
	}
	rep.RunID = id

	s.mu.Lock()
	s.last = rep
	s.mu.Unlock()

	log.Info().
		Str("run_id", id).
		Str("profile", string(profile)).
		Int("assets", len(decisions)).
		Msg("evaluation completed")
	return rep, nil
}

func (s *Scheduler) dailyTask() {
	log.Info().Msg("running daily evaluation")
	timer := s.Metrics.StartJob("daily")
	rep, err := s.RunEvaluation(s.Ctx)
	if err != nil {
		timer.Stop("error")
		log.Error().Err(err).Msg("daily evaluation")
		s.trySend(fmt.Sprintf("❌ Daily evaluation failed: %v", err))
		return
	}
	timer.Stop("ok")

	var b strings.Builder
	if rep.Snapshot != nil {
		b.WriteString(notifier.FormatRegime(rep.Snapshot))
		b.WriteString("\n")
	}
	b.WriteString(notifier.FormatDecisionMatrix(rep.Decisions, rep.Profile, rep.At))
	s.trySend(b.String())
	if rep.Snapshot != nil {
		s.trySend(marketsReport(rep.Snapshot))
	}
	s.trySend(s.portfolioReport())
}

func (s *Scheduler) weeklyTask() {
	log.Info().Msg("running weekly digest")
	timer := s.Metrics.StartJob("weekly")
	rep, err := s.lastOrRun(s.Ctx)
	if err != nil {
		timer.Stop("error")
		log.Error().Err(err).Msg("weekly digest")
		return
	}
	timer.Stop("ok")
	s.trySend(notifier.FormatPanel(rep.Panel, rep.Dispersion) + "\n" + notifier.FormatPlaybook(rep.Playbook))
}

func (s *Scheduler) lastOrRun(ctx context.Context) (*Report, error) {
	if rep := s.Last(); rep != nil {
		return rep, nil
	}
	return s.RunEvaluation(ctx)
}

func marketsReport(snap *model.Snapshot) string {
	return notifier.FormatCrossAssets(snap.CrossAssets) + "\n" + notifier.FormatCrypto(snap.Crypto)
}

func (s *Scheduler) portfolioReport() string {
	state := s.Portfolio.GetState()
	var amounts map[string]decimal.Decimal
	if s.PortfolioValue.IsPositive() && len(state.Positions) > 0 {
		a, err := s.Portfolio.TargetAmounts(s.PortfolioValue)
		if err != nil {
			log.Warn().Err(err).Msg("target amounts")
		} else {
			amounts = a
		}
	}
	return notifier.FormatPortfolio(state, amounts)
}

const helpText = "Available commands:\n" +
	"• /run - evaluate now\n" +
	"• /matrix - decision matrix\n" +
	"• /portfolio - model portfolio\n" +
	"• /playbook - today's playbook\n" +
	"• /panel - expert panel\n" +
	"• /regime - market regime\n" +
	"• /markets - cross-asset and crypto snapshot\n" +
	"• /profile [conservative|moderate|aggressive]\n" +
	"• /history TICKER"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]

	switch cmd {
	case "/run":
		s.dailyTask()
		return ""
	case "/matrix":
		rep, err := s.lastOrRun(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatDecisionMatrix(rep.Decisions, rep.Profile, rep.At)
	case "/portfolio":
		return s.portfolioReport()
	case "/playbook":
		rep, err := s.lastOrRun(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatPlaybook(rep.Playbook)
	case "/panel":
		rep, err := s.lastOrRun(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatPanel(rep.Panel, rep.Dispersion)
	case "/regime":
		rep, err := s.lastOrRun(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		if rep.Snapshot == nil {
			return "No snapshot loaded; the current provider has no market regime."
		}
		return notifier.FormatRegime(rep.Snapshot)
	case "/markets":
		rep, err := s.lastOrRun(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		if rep.Snapshot == nil {
			return "No snapshot loaded; the current provider has no market data."
		}
		return marketsReport(rep.Snapshot)
	case "/profile":
		return s.handleProfile(ctx, args)
	case "/history":
		if len(args) == 0 {
			return "Usage: /history TICKER"
		}
		ticker := strings.ToUpper(args[0])
		entries, err := s.Recorder.History(ctx, ticker, 10)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatHistory(ticker, entries)
	default:
		return helpText
	}
}

func (s *Scheduler) handleProfile(ctx context.Context, args []string) string {
	current := s.Portfolio.Profile()
	if len(args) == 0 {
		state := s.Portfolio.GetState()
		return fmt.Sprintf("Current profile: %s (alpha %.1f)", current.Title(), state.Alpha)
	}
	p, err := model.ParseRiskProfile(args[0])
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	if err := s.Portfolio.SetProfile(p); err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	if err := s.Recorder.RecordProfileChange(ctx, &recorder.ProfileChange{From: current, To: p, Source: "telegram"}); err != nil {
		log.Error().Err(err).Msg("record profile change")
	}
	log.Info().Str("from", string(current)).Str("to", string(p)).Msg("risk profile changed")
	return fmt.Sprintf("✅ Profile set to %s. The next run uses it; send /run to evaluate now.", p.Title())
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
