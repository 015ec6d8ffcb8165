package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"QuantumFlow/internal/collector"
	"QuantumFlow/internal/metrics"
	"QuantumFlow/internal/model"
	"QuantumFlow/internal/recorder"
	"QuantumFlow/internal/scheduler"

	"github.com/spf13/cobra"
)

func newEvaluateCmd() *cobra.Command {
	var (
		snapshotPath string
		profileName  string
		record       bool
		persist      bool
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score every asset once and print the decision matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if snapshotPath != "" {
				cfg.Provider.Kind = "snapshot"
				cfg.Provider.URL = ""
				cfg.Provider.Path = snapshotPath
			}
			if profileName != "" {
				cfg.Scoring.RiskProfile = profileName
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			provider, err := buildProvider(cfg)
			if err != nil {
				return err
			}
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			pm, err := buildManager(cfg, !persist)
			if err != nil {
				return err
			}
			if profileName != "" {
				p, err := cfg.Profile()
				if err != nil {
					return err
				}
				if err := pm.SetProfile(p); err != nil {
					return err
				}
			}

			var rec recorder.Recorder = recorder.NewNoopRecorder()
			if record {
				rec = buildRecorder(cfg)
			}
			defer rec.Close()

			ctx := context.Background()
			sched := scheduler.NewScheduler(ctx, collector.NewCollector(provider, metrics.New()), eng, pm, nil, rec, nil)
			rep, err := sched.RunEvaluation(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			printReport(out, rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Score a snapshot JSON file (- for stdin) instead of the configured provider")
	cmd.Flags().StringVar(&profileName, "profile", "", "Risk profile (conservative|moderate|aggressive)")
	cmd.Flags().BoolVar(&record, "record", false, "Record the run in the decision history")
	cmd.Flags().BoolVar(&persist, "persist", false, "Save the rebalanced portfolio to the state file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func printReport(w io.Writer, rep *scheduler.Report) {
	if rep.Snapshot != nil {
		fmt.Fprintf(w, "%s  %s  (%s)\n\n", rep.Snapshot.Date, rep.Snapshot.MarketRegime.Name, rep.Snapshot.MarketRegime.RiskMode)
	}
	fmt.Fprintf(w, "Profile: %s\n\n", rep.Profile.Title())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tCOMPOSITE\tACTION\tALLOC %\tSTOP %\tTAKE %\tCLAMPED")
	for _, d := range rep.Decisions {
		fmt.Fprintf(tw, "%s\t%+.3f\t%s\t%.2f\t%.0f\t%.0f\t%s\n",
			d.Asset.Ticker, d.Composite, d.Action, d.Allocation*100,
			d.Band.StopLossPct, d.Band.TakeProfitPct, factorList(d.Clamped))
	}
	tw.Flush()

	if rep.Rebalance != nil {
		fmt.Fprintf(w, "\nModel portfolio (alpha %.1f)\n", rep.Rebalance.Alpha)
		if rep.Rebalance.Fallback {
			fmt.Fprintln(w, "tilted basket was degenerate, holding priors")
		}
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TICKER\tPRIOR %\tTILT %\tPOSTERIOR %\tPROFILE %")
		for _, p := range rep.Rebalance.Positions {
			fmt.Fprintf(tw, "%s\t%.2f\t%+.2f\t%.2f\t%.2f\n",
				p.Ticker, p.PriorWeight, p.TiltPct, p.PosteriorWeight, p.BlendedWeight)
		}
		tw.Flush()
	}

	if rep.Snapshot != nil {
		printMarkets(w, rep.Snapshot)
	}

	fmt.Fprintln(w, "\nExpert panel")
	for _, e := range rep.Panel {
		fmt.Fprintf(w, "  %-10s %+.2f  %s\n", e.Factor, e.Mean, e.Description)
	}
	fmt.Fprintf(w, "  composite dispersion %.2f\n", rep.Dispersion)
	fmt.Fprintln(w, "\nPlaybook")
	fmt.Fprintf(w, "  favoured:   %s\n", tickerList(rep.Playbook.Favoured))
	fmt.Fprintf(w, "  unfavoured: %s\n", tickerList(rep.Playbook.Unfavoured))
	fmt.Fprintf(w, "  high vol:   %s\n", tickerList(rep.Playbook.HighVol))
	if rep.RunID != "" {
		fmt.Fprintf(w, "\nrun %s\n", rep.RunID)
	}
}

func printMarkets(w io.Writer, snap *model.Snapshot) {
	if len(snap.CrossAssets) > 0 {
		fmt.Fprintln(w, "\nCross-asset snapshot")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TICKER\tNAME\tREGION\tCLASS\tLEVEL\t1D %\t5D %\t1M %\tYTD %\tVOL %\tDD %")
		for _, r := range snap.CrossAssets {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%+.2f\t%+.2f\t%+.2f\t%+.2f\t%.1f\t%.1f\n",
				r.Ticker, r.Name, r.Region, r.AssetClass, r.Level,
				r.Chg1DPct, r.Chg5DPct, r.Chg1MPct, r.ChgYTDPct, r.RealizedVol30D, r.DrawdownPct)
		}
		tw.Flush()
	}
	if len(snap.Crypto) > 0 {
		fmt.Fprintln(w, "\nCrypto snapshot")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TICKER\tNAME\tPRICE\t1D %\t7D %\t1M %\tCOMMENT")
		for _, r := range snap.Crypto {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%+.2f\t%+.2f\t%+.2f\t%s\n",
				r.Ticker, r.Name, r.Price, r.Chg1DPct, r.Chg7DPct, r.Chg1MPct, r.Comment)
		}
		tw.Flush()
	}
}

func factorList(fs []model.Factor) string {
	if len(fs) == 0 {
		return "-"
	}
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}

func tickerList(ts []string) string {
	if len(ts) == 0 {
		return "none"
	}
	return strings.Join(ts, ", ")
}
