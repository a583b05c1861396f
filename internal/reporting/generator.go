package reporting

import (
	"context"
	"fmt"
	"time"

	"signal-oracle-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	runStore    storage.BacktestRunStore
	tradeStore  storage.TradeStore
	equityStore storage.EquityCurveStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	runStore storage.BacktestRunStore,
	tradeStore storage.TradeStore,
	equityStore storage.EquityCurveStore,
) *Generator {
	return &Generator{
		runStore:    runStore,
		tradeStore:  tradeStore,
		equityStore: equityStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate assembles the report for a stored run.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	summary, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	trades, err := g.tradeStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades for run %s: %w", runID, err)
	}

	curve, err := g.equityStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load equity curve for run %s: %w", runID, err)
	}

	rep := &Report{
		GeneratedAt:     g.now(),
		RunID:           summary.RunID,
		Config:          summary.Config,
		SignalsReplayed: summary.SignalsReplayed,
		Metrics:         summary.Metrics,
		FinalCapitalUSD: summary.FinalCapitalUSD,
		Trades:          trades,
		EquityCurve:     curve,
	}
	if summary.Config.InitialCapitalUSD > 0 {
		rep.TotalReturnPct = (summary.FinalCapitalUSD - summary.Config.InitialCapitalUSD) /
			summary.Config.InitialCapitalUSD * 100
	}
	return rep, nil
}
