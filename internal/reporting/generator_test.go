package reporting

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
	"signal-oracle-lab/internal/storage/memory"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func sampleTrade(id string, pnlUSD, pnlPct float64) domain.Trade {
	outcome := domain.ClassifyOutcome(pnlUSD)
	return domain.Trade{
		TradeID:     id,
		Token:       "GvE3GZq8N1rQYU9KHcH4YjpBbwpUfVu3EB7ieHxxxx1",
		Symbol:      "MEME",
		SignalID:    "sig-" + id,
		SignalScore: 82,
		EntryPrice:  0.001,
		EntryTime:   1000,
		ExitPrice:   0.001 * (1 + pnlPct/100),
		ExitTime:    2000,
		ExitReason:  domain.ExitReasonTakeProfit,
		Quantity:    1000000,
		InvestedUSD: 1000,
		PnlUSD:      pnlUSD,
		PnlPct:      pnlPct,
		ATHPrice:    0.0016,
		ATHPnlPct:   60,
		Outcome:     outcome,
	}
}

func setupStoredRun(t *testing.T) (*Generator, string) {
	t.Helper()
	ctx := context.Background()

	runStore := memory.NewBacktestRunStore()
	tradeStore := memory.NewTradeStore()
	equityStore := memory.NewEquityCurveStore()

	trades := []domain.Trade{
		sampleTrade("t1", 500, 50),
		sampleTrade("t2", -200, -20),
	}
	if err := tradeStore.InsertBulk(ctx, "run-1", trades); err != nil {
		t.Fatalf("insert trades: %v", err)
	}

	if err := equityStore.InsertBulk(ctx, "run-1", []domain.EquityPoint{
		{Timestamp: 1000, CapitalUSD: 9000},
		{Timestamp: 2000, CapitalUSD: 10300},
	}); err != nil {
		t.Fatalf("insert equity: %v", err)
	}

	best := sampleTrade("t1", 500, 50)
	summary := &storage.RunSummary{
		RunID: "run-1",
		Config: domain.BacktestConfig{
			InitialCapitalUSD: 10000,
			PositionSizePct:   10,
			TakeProfitPct:     50,
			StopLossPct:       20,
			MinScore:          70,
			MaxPositions:      3,
		},
		Metrics: domain.Metrics{
			TotalTrades:   2,
			WinningTrades: 1,
			LosingTrades:  1,
			WinRatePct:    50,
			ProfitFactor:  2.5,
			AvgPnlPct:     15,
			BestTrade:     &best,
			MaxWinStreak:  1,
			MaxLossStreak: 1,
		},
		FinalCapitalUSD: 10300,
		SignalsReplayed: 25,
		CreatedAt:       1700000000000,
	}
	if err := runStore.Insert(ctx, summary); err != nil {
		t.Fatalf("insert run summary: %v", err)
	}

	gen := NewGenerator(runStore, tradeStore, equityStore).WithClock(fixedClock)
	return gen, "run-1"
}

func TestGenerator_Generate(t *testing.T) {
	gen, runID := setupStoredRun(t)

	rep, err := gen.Generate(context.Background(), runID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if rep.RunID != runID {
		t.Errorf("run id = %s", rep.RunID)
	}
	if !rep.GeneratedAt.Equal(fixedClock()) {
		t.Errorf("generated at = %v", rep.GeneratedAt)
	}
	if len(rep.Trades) != 2 {
		t.Errorf("trades = %d, want 2", len(rep.Trades))
	}
	if len(rep.EquityCurve) != 2 {
		t.Errorf("equity points = %d, want 2", len(rep.EquityCurve))
	}
	if math.Abs(rep.TotalReturnPct-3) > 1e-9 {
		t.Errorf("total return = %v, want 3", rep.TotalReturnPct)
	}
}

func TestGenerator_UnknownRun(t *testing.T) {
	gen, _ := setupStoredRun(t)

	_, err := gen.Generate(context.Background(), "nonexistent")
	if err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestRenderMarkdown(t *testing.T) {
	gen, runID := setupStoredRun(t)

	rep, err := gen.Generate(context.Background(), runID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	md := RenderMarkdown(rep)

	for _, want := range []string{
		"# Backtest Report",
		"Run: `run-1`",
		"| Initial Capital | $10000.00 |",
		"| Win Rate | 50.00% |",
		"| Profit Factor | 2.50 |",
		"| Total Return | 3.00% |",
		"Best trade: MEME +50.00%",
		"## Trades",
		"TAKE_PROFIT",
		"| HIGH |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_InfiniteProfitFactor(t *testing.T) {
	rep := &Report{
		GeneratedAt: fixedClock(),
		RunID:       "run-inf",
		Config:      domain.BacktestConfig{InitialCapitalUSD: 1000, PositionSizePct: 10, TakeProfitPct: 50, StopLossPct: 20, MaxPositions: 1},
		Metrics:     domain.Metrics{TotalTrades: 1, WinningTrades: 1, WinRatePct: 100, ProfitFactor: math.Inf(1)},
	}

	md := RenderMarkdown(rep)
	if !strings.Contains(md, "| Profit Factor | inf |") {
		t.Error("infinite profit factor not rendered as inf")
	}
	if !strings.Contains(md, "No trades executed.") {
		t.Error("empty ledger note missing")
	}
}

func TestReportJSON_AllWins(t *testing.T) {
	win := sampleTrade("t1", 500, 50)
	result := &domain.BacktestResult{
		RunID:  "run-wins",
		Config: domain.BacktestConfig{InitialCapitalUSD: 1000, PositionSizePct: 10, TakeProfitPct: 50, StopLossPct: 20, MaxPositions: 1},
		Trades: []domain.Trade{win},
		Metrics: domain.Metrics{
			TotalTrades:   1,
			WinningTrades: 1,
			WinRatePct:    100,
			ProfitFactor:  math.Inf(1),
			BestTrade:     &win,
		},
		FinalCapitalUSD: 1500,
	}

	rep := FromResult(result, fixedClock())
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		t.Fatalf("marshal all-wins report: %v", err)
	}
	if !strings.Contains(string(data), `"profit_factor": -1`) {
		t.Errorf("infinite profit factor not encoded as -1:\n%s", data)
	}

	var got Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if !math.IsInf(got.Metrics.ProfitFactor, 1) {
		t.Errorf("profit factor = %v, want +Inf", got.Metrics.ProfitFactor)
	}
}

func TestRenderMarkdown_Warnings(t *testing.T) {
	rep := &Report{
		GeneratedAt: fixedClock(),
		RunID:       "run-w",
		Config:      domain.BacktestConfig{InitialCapitalUSD: 1000, PositionSizePct: 10, TakeProfitPct: 50, StopLossPct: 20, MaxPositions: 1},
		Warnings: []domain.SignalWarning{
			{SignalID: "sig-1", Token: "mint-1", Reason: "no price data"},
		},
	}

	md := RenderMarkdown(rep)
	if !strings.Contains(md, "## Warnings") || !strings.Contains(md, "no price data") {
		t.Error("warnings section missing")
	}
}

func TestRenderTradesCSV(t *testing.T) {
	trades := []domain.Trade{
		sampleTrade("t1", 500, 50),
		sampleTrade("t2", -200, -20),
	}

	csv := RenderTradesCSV(trades)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "trade_id,token,symbol,signal_id,signal_score") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "t1") || !strings.Contains(lines[1], "WIN") {
		t.Errorf("unexpected first row: %s", lines[1])
	}
	// ROI bps for +50% is 5000.
	if !strings.Contains(lines[1], ",5000,") {
		t.Errorf("roi bps missing from row: %s", lines[1])
	}
}

func TestRenderEquityCSV(t *testing.T) {
	csv := RenderEquityCSV([]domain.EquityPoint{
		{Timestamp: 1000, CapitalUSD: 9000},
		{Timestamp: 2000, CapitalUSD: 10300},
	})

	want := "timestamp_ms,capital_usd\n1000,9000.00\n2000,10300.00\n"
	if csv != want {
		t.Errorf("csv = %q, want %q", csv, want)
	}
}
