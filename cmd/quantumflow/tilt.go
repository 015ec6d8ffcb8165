package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"QuantumFlow/internal/collector"
	"QuantumFlow/internal/config"
	"QuantumFlow/internal/model"
	"QuantumFlow/internal/portfolio"
	"QuantumFlow/internal/strategy"

	"github.com/spf13/cobra"
)

func newTiltCmd() *cobra.Command {
	var (
		priorsFlag     string
		compositesFlag string
		snapshotPath   string
		profileName    string
		tiltFactor     float64
	)
	cmd := &cobra.Command{
		Use:   "tilt",
		Short: "Tilt a prior basket by composite scores and blend for a profile",
		Long: `Applies new = prior + composite * tilt_factor to every asset, renormalizes
to 100%, then blends posterior and prior with the profile's alpha.
Composites come from --composites or from scoring --snapshot.`,
		Example: "  quantumflow tilt --priors NVDA=60,MSFT=40 --composites NVDA=0.5,MSFT=-0.5 --profile conservative",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if profileName != "" {
				cfg.Scoring.RiskProfile = profileName
			}
			profile, err := cfg.Profile()
			if err != nil {
				return err
			}

			priors := cfg.Portfolio.Priors
			if priorsFlag != "" {
				if priors, err = parseWeights(priorsFlag); err != nil {
					return fmt.Errorf("--priors: %w", err)
				}
			}
			if err := portfolio.ValidatePriors(priors); err != nil {
				return err
			}
			if !cmd.Flags().Changed("tilt-factor") {
				tiltFactor = cfg.Portfolio.TiltFactor
			}

			var composites map[string]float64
			switch {
			case compositesFlag != "":
				parsed, err := parseWeights(compositesFlag)
				if err != nil {
					return fmt.Errorf("--composites: %w", err)
				}
				composites = make(map[string]float64, len(parsed))
				for _, w := range parsed {
					composites[w.Ticker] = w.Weight
				}
			case snapshotPath != "":
				if composites, err = scoreSnapshot(cfg, snapshotPath, profile); err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --composites or --snapshot is required")
			}

			alpha, err := portfolio.ProfileAlpha(profile)
			if err != nil {
				return err
			}
			mopts, err := cfg.ManagerOptions()
			if err != nil {
				return err
			}
			if a, ok := mopts.Alphas[profile]; ok {
				alpha = a
			}
			positions, err := portfolio.TiltAndBlend(priors, composites, tiltFactor, alpha)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Profile %s, alpha %.2f, tilt factor %.1f\n\n", profile.Title(), alpha, tiltFactor)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TICKER\tPRIOR %\tCOMPOSITE\tTILT %\tRAW\tPOSTERIOR %\tPROFILE %")
			for _, p := range positions {
				fmt.Fprintf(tw, "%s\t%.2f\t%+.3f\t%+.2f\t%.2f\t%.2f\t%.2f\n",
					p.Ticker, p.PriorWeight, p.Composite, p.TiltPct, p.RawWeight, p.PosteriorWeight, p.BlendedWeight)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&priorsFlag, "priors", "", "Prior basket as TICKER=PCT pairs (default from config)")
	cmd.Flags().StringVar(&compositesFlag, "composites", "", "Composite scores as TICKER=SCORE pairs")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Score this snapshot file for composites")
	cmd.Flags().StringVar(&profileName, "profile", "", "Risk profile (conservative|moderate|aggressive)")
	cmd.Flags().Float64Var(&tiltFactor, "tilt-factor", 0, "Percentage points per unit of composite (default from config)")
	return cmd
}

func scoreSnapshot(cfg *config.Config, path string, profile model.RiskProfile) (map[string]float64, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	eng, err := strategy.NewEngine(opts)
	if err != nil {
		return nil, err
	}
	col := collector.NewCollector(collector.NewFileSnapshotProvider(path), nil)
	obs, err := col.CollectAll(context.Background())
	if err != nil {
		return nil, err
	}
	decisions, err := eng.EvaluateAll(obs, profile)
	if err != nil {
		return nil, err
	}
	return strategy.Composites(decisions), nil
}

// parseWeights reads "A=1.5,B=-2" into ordered ticker/value pairs.
func parseWeights(s string) ([]model.AssetWeight, error) {
	var out []model.AssetWeight
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("expected TICKER=VALUE, got %q", part)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value for %s: %w", k, err)
		}
		out = append(out, model.AssetWeight{Ticker: strings.ToUpper(strings.TrimSpace(k)), Weight: f})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no entries")
	}
	return out, nil
}
