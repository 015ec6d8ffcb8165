package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"QuantumFlow/internal/collector"
	"QuantumFlow/internal/metrics"
	"QuantumFlow/internal/notifier"
	"QuantumFlow/internal/scheduler"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newBotCmd() *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the scheduled Telegram bot",
		Long:  "Runs the daily evaluation and weekly digest on cron and answers Telegram commands until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("RUN_ON_START") == "true" {
				runOnStart = true
			}
			return runBot(runOnStart)
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run the daily evaluation immediately")
	return cmd
}

func runBot(runOnStart bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info().Str("version", version).Msgf("%s starting...", appName)
	if err := cfg.ValidateBot(); err != nil {
		log.Error().Err(err).Msg("config validation")
		return err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	log.Info().Str("provider", provider.Name()).Msg("factor score provider ready")

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	pm, err := buildManager(cfg, false)
	if err != nil {
		return err
	}
	reg := metrics.New()
	col := collector.NewCollector(provider, reg)

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	rec := buildRecorder(cfg)
	defer rec.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := reg.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	sched := scheduler.NewScheduler(ctx, col, eng, pm, tn, rec, reg)
	sched.PortfolioValue = decimal.NewFromFloat(cfg.Portfolio.Value)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.WeeklyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	if runOnStart {
		log.Info().Msg("run on start enabled, executing daily evaluation now")
		go sched.RunDailyNow()
	}

	log.Info().Str("profile", string(pm.Profile())).Msgf("%s is running. Press Ctrl+C to stop.", appName)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	return nil
}
