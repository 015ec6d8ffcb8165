package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"QuantumFlow/internal/calculator"
	"QuantumFlow/internal/model"
	"QuantumFlow/internal/recorder"

	"github.com/shopspring/decimal"
)

// RiskModeBadge maps a snapshot risk mode to a short badge.
func RiskModeBadge(mode string) string {
	m := html.EscapeString(strings.ToLower(strings.TrimSpace(mode)))
	switch {
	case m == "risk-off":
		return "🔴 risk-off"
	case strings.Contains(m, "risk-on"):
		return "🟢 " + m
	default:
		if m == "" {
			m = "mixed"
		}
		return "🟡 " + m
	}
}

func volBadge(regime string) string {
	switch strings.ToLower(regime) {
	case "high":
		return "🔺 high"
	case "low":
		return "🔻 low"
	case "":
		return "normal"
	default:
		return html.EscapeString(regime)
	}
}

func actionIcon(a model.ActionLabel) string {
	switch a {
	case model.ActionStrongOverweight:
		return "🟢🟢"
	case model.ActionOverweight:
		return "🟢"
	case model.ActionUnderweight:
		return "🟠"
	case model.ActionAvoid:
		return "🔴"
	default:
		return "⚪"
	}
}

// convictionBar draws where a composite sits on the [-1, 1] scale.
func convictionBar(composite float64) string {
	pos, err := calculator.RangePosition(composite, calculator.ScoreMin, calculator.ScoreMax)
	if err != nil {
		return ""
	}
	filled := int(math.Round(pos * 10))
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
}

// FormatRegime formats the snapshot's market regime and risk indicators.
func FormatRegime(snap *model.Snapshot) string {
	var b strings.Builder
	mr := snap.MarketRegime
	ri := snap.RiskIndicators

	b.WriteString(fmt.Sprintf("🌐 <b>Market Regime</b> | %s\n\n", html.EscapeString(snap.Date)))
	if mr.Name != "" {
		b.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(mr.Name)))
	}
	if mr.Comment != "" {
		b.WriteString(html.EscapeString(mr.Comment) + "\n")
	}
	b.WriteString(fmt.Sprintf("Global mood: %+.1f | Risk mode: %s | Vol: %s\n\n",
		mr.SentimentScore, RiskModeBadge(mr.RiskMode), volBadge(mr.VolatilityRegime)))

	b.WriteString(fmt.Sprintf("VIX: %.1f (1y pct %.0f) | MOVE: %.0f\n", ri.VIX, ri.VIXPercentile, ri.MOVE))
	b.WriteString(fmt.Sprintf("IG: %.0f bps | HY: %.0f bps\n", ri.IGSpreadBps, ri.HYSpreadBps))
	if ri.CreditComment != "" {
		b.WriteString(html.EscapeString(ri.CreditComment) + "\n")
	}

	if len(snap.Narratives) > 0 {
		b.WriteString("\n📰 <b>Key narratives:</b>\n")
		for _, n := range snap.Narratives {
			b.WriteString("  • " + html.EscapeString(n) + "\n")
		}
	}
	return b.String()
}

// FormatCrossAssets lists the snapshot's cross-asset rows: level, 1D/5D/1M/YTD
// change, 30d realized vol and drawdown from the 1y high.
func FormatCrossAssets(rows []model.CrossAsset) string {
	var b strings.Builder
	b.WriteString("🌍 <b>Cross-Asset Snapshot</b>\n\n")
	if len(rows) == 0 {
		b.WriteString("No cross-asset data in snapshot.\n")
		return b.String()
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("<b>%s</b> %s (%s, %s) %.2f\n",
			html.EscapeString(r.Ticker), html.EscapeString(r.Name), html.EscapeString(r.Region),
			html.EscapeString(r.AssetClass), r.Level))
		b.WriteString(fmt.Sprintf("   1D %+.2f%% · 5D %+.2f%% · 1M %+.2f%% · YTD %+.2f%%\n",
			r.Chg1DPct, r.Chg5DPct, r.Chg1MPct, r.ChgYTDPct))
		b.WriteString(fmt.Sprintf("   vol %.1f%% · drawdown %.1f%%\n", r.RealizedVol30D, r.DrawdownPct))
	}
	return b.String()
}

// FormatCrypto lists the snapshot's crypto rows.
func FormatCrypto(rows []model.CryptoRow) string {
	var b strings.Builder
	b.WriteString("🪙 <b>Crypto Snapshot</b>\n\n")
	if len(rows) == 0 {
		b.WriteString("No crypto data in snapshot.\n")
		return b.String()
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("<b>%s</b> %s %.2f | 1D %+.2f%% · 7D %+.2f%% · 1M %+.2f%%\n",
			html.EscapeString(r.Ticker), html.EscapeString(r.Name), r.Price, r.Chg1DPct, r.Chg7DPct, r.Chg1MPct))
		if r.Comment != "" {
			b.WriteString("   " + html.EscapeString(r.Comment) + "\n")
		}
	}
	return b.String()
}

// FormatDecisionMatrix lists every decision with its composite, label,
// suggested allocation and risk band.
func FormatDecisionMatrix(decisions []model.Decision, profile model.RiskProfile, asOf time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>QuantumFlow Decision Matrix</b> | %s\n", asOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Profile: %s\n\n", profile.Title()))

	if len(decisions) == 0 {
		b.WriteString("No assets scored.\n")
		return b.String()
	}

	band := decisions[0].Band
	for _, d := range decisions {
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %+.2f %s | alloc %.2f%% %s\n",
			actionIcon(d.Action), html.EscapeString(d.Asset.Ticker), d.Composite, d.Action, d.Allocation*100,
			convictionBar(d.Composite)))
		parts := make([]string, 0, len(d.Contributions))
		for _, c := range d.Contributions {
			parts = append(parts, fmt.Sprintf("%s %+.2f", c.Factor, c.Score))
		}
		if len(parts) > 0 {
			b.WriteString("   " + strings.Join(parts, " · ") + "\n")
		}
		if len(d.Clamped) > 0 {
			names := make([]string, len(d.Clamped))
			for i, f := range d.Clamped {
				names[i] = string(f)
			}
			b.WriteString(fmt.Sprintf("   ⚠️ clamped: %s\n", strings.Join(names, ", ")))
		}
	}
	b.WriteString(fmt.Sprintf("\n🛡 Stop loss %.0f%% | Take profit %.0f%%\n", band.StopLossPct, band.TakeProfitPct))
	return b.String()
}

// FormatPortfolio shows prior, posterior and profile-blended weights, plus
// money amounts when provided.
func FormatPortfolio(state model.PortfolioState, amounts map[string]decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("📦 <b>Model Portfolio</b>\n")
	b.WriteString(fmt.Sprintf("Profile: %s (alpha %.1f)\n\n", state.Profile.Title(), state.Alpha))

	if len(state.Positions) == 0 {
		b.WriteString("No rebalance has run yet.\n")
		return b.String()
	}

	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-7s %6s %6s %6s %6s\n", "Ticker", "Prior", "Tilt", "Post", "Prof"))
	for _, p := range state.Positions {
		b.WriteString(fmt.Sprintf("%-7s %5.1f%% %+5.1f%% %5.1f%% %5.1f%%\n",
			html.EscapeString(p.Ticker), p.PriorWeight, p.TiltPct, p.PosteriorWeight, p.BlendedWeight))
	}
	b.WriteString("</pre>\n")

	if len(amounts) > 0 {
		b.WriteString("\n💰 <b>Targets:</b>\n")
		for _, p := range state.Positions {
			if amt, ok := amounts[p.Ticker]; ok {
				b.WriteString(fmt.Sprintf("  %s: %s\n", html.EscapeString(p.Ticker), amt.StringFixed(2)))
			}
		}
	}
	if state.Fallback {
		b.WriteString("\n⚠️ Every tilted weight floored to zero; prior weights kept.\n")
	}
	if !state.LastRunAt.IsZero() {
		b.WriteString(fmt.Sprintf("\nLast rebalance: %s (run #%d)\n", state.LastRunAt.Format("2006-01-02 15:04"), state.RunCount))
	}
	return b.String()
}

// FormatPanel formats the per-expert averages and, when non-zero, the
// spread of composites across the matrix.
func FormatPanel(panel []calculator.PanelEntry, dispersion float64) string {
	var b strings.Builder
	b.WriteString("🧠 <b>Expert Panel</b>\n\n")
	for _, e := range panel {
		b.WriteString(fmt.Sprintf("%s: %+.2f (%s)\n", expertName(e.Factor), e.Mean, e.Description))
	}
	if dispersion > 0 {
		b.WriteString(fmt.Sprintf("\nComposite dispersion: %.2f\n", dispersion))
	}
	return b.String()
}

func expertName(f model.Factor) string {
	switch f {
	case model.FactorMacro:
		return "Macro &amp; Regime"
	case model.FactorTechnical:
		return "Technical"
	case model.FactorSentiment:
		return "Sentiment &amp; News"
	case model.FactorRisk:
		return "Risk &amp; Stress"
	default:
		return html.EscapeString(string(f))
	}
}

// FormatPlaybook turns the playbook lists into guidance for long-term
// investors and tactical traders.
func FormatPlaybook(pb calculator.Playbook) string {
	var b strings.Builder
	b.WriteString("📘 <b>Today's Playbook</b>\n\n")

	b.WriteString("<b>Long-term investors:</b>\n")
	if len(pb.Favoured) > 0 {
		b.WriteString(fmt.Sprintf("  • Build core exposure around %s, scaling in gradually.\n", joinTickers(pb.Favoured)))
	} else {
		b.WriteString("  • Stay diversified; no strong long-term conviction today.\n")
	}

	b.WriteString("\n<b>Tactical traders:</b>\n")
	if len(pb.HighVol) > 0 {
		b.WriteString(fmt.Sprintf("  • Expect large swings in %s; tight stops only.\n", joinTickers(pb.HighVol)))
	}
	if len(pb.Unfavoured) > 0 {
		b.WriteString(fmt.Sprintf("  • Reduce risk or wait for better entries in %s.\n", joinTickers(pb.Unfavoured)))
	}
	if len(pb.HighVol) == 0 && len(pb.Unfavoured) == 0 {
		b.WriteString("  • No clear de-risking zones; environment remains mixed.\n")
	}
	return b.String()
}

// FormatHistory lists past decisions for one ticker.
func FormatHistory(ticker string, entries []recorder.HistoryEntry) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕘 <b>History %s</b>\n\n", html.EscapeString(ticker)))
	if len(entries) == 0 {
		b.WriteString("No recorded decisions.\n")
		return b.String()
	}
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%s %s %+.2f %s\n",
			e.At.Format("2006-01-02"), actionIcon(e.Action), e.Composite, e.Action))
	}
	return b.String()
}

func joinTickers(tickers []string) string {
	out := make([]string, len(tickers))
	for i, t := range tickers {
		out[i] = "<b>" + html.EscapeString(t) + "</b>"
	}
	return strings.Join(out, ", ")
}
