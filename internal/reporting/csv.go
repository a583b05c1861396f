package reporting

import (
	"fmt"
	"strings"

	"signal-oracle-lab/internal/domain"
)

// RenderTradesCSV renders the trade ledger as CSV string.
func RenderTradesCSV(trades []domain.Trade) string {
	var sb strings.Builder

	// Header
	sb.WriteString("trade_id,token,symbol,signal_id,signal_score,")
	sb.WriteString("entry_price,entry_time_ms,exit_price,exit_time_ms,exit_reason,")
	sb.WriteString("quantity,invested_usd,pnl_usd,pnl_pct,roi_bps,ath_price,ath_pnl_pct,outcome\n")

	// Rows
	for i := range trades {
		t := &trades[i]
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%d,%.10f,%d,%.10f,%d,%s,%.6f,%.2f,%.2f,%.4f,%d,%.10f,%.4f,%s\n",
			t.TradeID,
			t.Token,
			t.Symbol,
			t.SignalID,
			t.SignalScore,
			t.EntryPrice,
			t.EntryTime,
			t.ExitPrice,
			t.ExitTime,
			t.ExitReason,
			t.Quantity,
			t.InvestedUSD,
			t.PnlUSD,
			t.PnlPct,
			t.RoiBps(),
			t.ATHPrice,
			t.ATHPnlPct,
			t.Outcome,
		))
	}

	return sb.String()
}

// RenderEquityCSV renders the equity curve as CSV string.
func RenderEquityCSV(points []domain.EquityPoint) string {
	var sb strings.Builder

	sb.WriteString("timestamp_ms,capital_usd\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%d,%.2f\n", p.Timestamp, p.CapitalUSD))
	}

	return sb.String()
}
