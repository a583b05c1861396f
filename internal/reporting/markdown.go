package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"signal-oracle-lab/internal/scoring"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", r.RunID))

	// Configuration
	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Initial Capital | $%.2f |\n", r.Config.InitialCapitalUSD))
	sb.WriteString(fmt.Sprintf("| Position Size | %.1f%% |\n", r.Config.PositionSizePct))
	sb.WriteString(fmt.Sprintf("| Take Profit | %.1f%% |\n", r.Config.TakeProfitPct))
	sb.WriteString(fmt.Sprintf("| Stop Loss | %.1f%% |\n", r.Config.StopLossPct))
	sb.WriteString(fmt.Sprintf("| Min Score | %d |\n", r.Config.MinScore))
	sb.WriteString(fmt.Sprintf("| Max Positions | %d |\n", r.Config.MaxPositions))
	if len(r.Config.Tokens) > 0 {
		sb.WriteString(fmt.Sprintf("| Token Filter | %s |\n", strings.Join(r.Config.Tokens, ", ")))
	}
	if r.Config.MaxRiskLevel != "" {
		sb.WriteString(fmt.Sprintf("| Max Risk Level | %s |\n", r.Config.MaxRiskLevel))
	}
	sb.WriteString("\n")

	// Performance
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Signals Replayed | %d |\n", r.SignalsReplayed))
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.Metrics.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Wins / Losses / Breakeven | %d / %d / %d |\n",
		r.Metrics.WinningTrades, r.Metrics.LosingTrades, r.Metrics.BreakevenTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", r.Metrics.WinRatePct))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatProfitFactor(r.Metrics.ProfitFactor)))
	sb.WriteString(fmt.Sprintf("| Avg PnL | %.2f%% |\n", r.Metrics.AvgPnlPct))
	sb.WriteString(fmt.Sprintf("| Final Capital | $%.2f |\n", r.FinalCapitalUSD))
	sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% |\n", r.TotalReturnPct))
	sb.WriteString(fmt.Sprintf("| Max Win Streak | %d |\n", r.Metrics.MaxWinStreak))
	sb.WriteString(fmt.Sprintf("| Max Loss Streak | %d |\n", r.Metrics.MaxLossStreak))
	sb.WriteString("\n")

	// Best / worst trades
	if r.Metrics.BestTrade != nil {
		sb.WriteString(fmt.Sprintf("Best trade: %s %+.2f%% (%s)\n\n",
			r.Metrics.BestTrade.Symbol, r.Metrics.BestTrade.PnlPct, r.Metrics.BestTrade.ExitReason))
	}
	if r.Metrics.WorstTrade != nil {
		sb.WriteString(fmt.Sprintf("Worst trade: %s %+.2f%% (%s)\n\n",
			r.Metrics.WorstTrade.Symbol, r.Metrics.WorstTrade.PnlPct, r.Metrics.WorstTrade.ExitReason))
	}

	// Trades
	sb.WriteString("## Trades\n\n")
	if len(r.Trades) > 0 {
		sb.WriteString("| Token | Symbol | Score | Confidence | Entry | Exit | PnL USD | PnL % | ROI bps | ATH % | Reason | Outcome |\n")
		sb.WriteString("|-------|--------|-------|------------|-------|------|---------|-------|---------|-------|--------|--------|\n")
		for i := range r.Trades {
			t := &r.Trades[i]
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %.8f | %.8f | %.2f | %.2f | %d | %.2f | %s | %s |\n",
				shortAddr(t.Token), t.Symbol, t.SignalScore, scoring.ConfidenceLevel(t.SignalScore),
				t.EntryPrice, t.ExitPrice, t.PnlUSD, t.PnlPct, t.RoiBps(), t.ATHPnlPct,
				t.ExitReason, t.Outcome))
		}
	} else {
		sb.WriteString("No trades executed.\n")
	}
	sb.WriteString("\n")

	// Warnings
	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- signal `%s` (%s): %s\n", w.SignalID, shortAddr(w.Token), w.Reason))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatProfitFactor renders the all-wins sentinel as "inf".
func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}

// shortAddr abbreviates a mint address for table readability.
func shortAddr(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + ".." + addr[len(addr)-4:]
}
