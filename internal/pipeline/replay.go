// Package pipeline wires storage, scoring, dedup, simulation and reporting
// into end-to-end runs.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"signal-oracle-lab/internal/backtest"
	"signal-oracle-lab/internal/dedup"
	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/observability"
	"signal-oracle-lab/internal/reporting"
	"signal-oracle-lab/internal/scoring"
	"signal-oracle-lab/internal/storage"
)

// Output file names written by a replay run.
const (
	ReportFileName      = "REPORT_BACKTEST.md"
	TradesFileName      = "trades.csv"
	EquityCurveFileName = "equity_curve.csv"
)

// ReplayStats summarizes what happened to the signal stream before the
// simulator saw it.
type ReplayStats struct {
	SignalsLoaded   int
	ScoresRaised    int
	ScoresLowered   int
	Duplicates      int
	SignalsReplayed int
}

// ReplayPipeline loads stored signals, re-scores them through confluence
// rules, drops window duplicates, simulates the remainder, and persists
// plus renders the result.
type ReplayPipeline struct {
	signalStore storage.SignalStore
	tradeStore  storage.TradeStore
	runStore    storage.BacktestRunStore
	equityStore storage.EquityCurveStore

	window    time.Duration
	outputDir string
	clock     func() time.Time
	logger    *log.Logger
}

// NewReplayPipeline creates a pipeline over the given stores. outputDir
// may be empty to skip writing report files.
func NewReplayPipeline(
	signalStore storage.SignalStore,
	tradeStore storage.TradeStore,
	runStore storage.BacktestRunStore,
	equityStore storage.EquityCurveStore,
	outputDir string,
) *ReplayPipeline {
	return &ReplayPipeline{
		signalStore: signalStore,
		tradeStore:  tradeStore,
		runStore:    runStore,
		equityStore: equityStore,
		window:      dedup.DefaultWindow,
		outputDir:   outputDir,
		clock:       func() time.Time { return time.Now().UTC() },
		logger:      log.Default(),
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *ReplayPipeline) WithClock(clock func() time.Time) *ReplayPipeline {
	p.clock = clock
	return p
}

// WithDedupWindow overrides the suppression window.
func (p *ReplayPipeline) WithDedupWindow(window time.Duration) *ReplayPipeline {
	p.window = window
	return p
}

// WithLogger sets the pipeline logger.
func (p *ReplayPipeline) WithLogger(logger *log.Logger) *ReplayPipeline {
	p.logger = logger
	return p
}

// Run replays stored signals from [start, end] (ms, inclusive) through the
// full chain and returns the simulation result.
func (p *ReplayPipeline) Run(ctx context.Context, start, end int64, cfg domain.BacktestConfig) (*domain.BacktestResult, *ReplayStats, error) {
	began := p.clock()

	signals, err := p.signalStore.GetByTimeRange(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("load signals: %w", err)
	}

	stats := &ReplayStats{SignalsLoaded: len(signals)}
	accepted := p.prepare(signals, stats)

	result, err := backtest.Run(ctx, accepted, cfg)
	if err != nil {
		observability.RecordBacktestRun("error", p.clock().Sub(began).Seconds(), 0, 0)
		return nil, nil, err
	}
	observability.RecordBacktestRun("ok", p.clock().Sub(began).Seconds(), len(result.Trades), result.SignalsReplayed)
	observability.DefaultMetrics.LastSuccessfulRun.Set(float64(p.clock().Unix()))

	if err := p.persist(ctx, result); err != nil {
		return nil, nil, err
	}
	if err := p.writeOutputs(result); err != nil {
		return nil, nil, err
	}

	p.logger.Printf("replayed %d signals (%d duplicates dropped): %d trades, final capital %.2f",
		stats.SignalsLoaded, stats.Duplicates, len(result.Trades), result.FinalCapitalUSD)

	return result, stats, nil
}

// prepare re-scores signals in event-time order and drops window duplicates.
// The deduplicator's clock follows signal event time, so replays are
// deterministic regardless of wall-clock.
func (p *ReplayPipeline) prepare(signals []*domain.Signal, stats *ReplayStats) []*domain.Signal {
	ordered := make([]*domain.Signal, len(signals))
	copy(ordered, signals)
	backtest.SortSignals(ordered)

	var eventTime time.Time
	dd := dedup.New(p.window, dedup.WithClock(func() time.Time { return eventTime }))

	accepted := make([]*domain.Signal, 0, len(ordered))
	for _, sig := range ordered {
		eventTime = time.UnixMilli(sig.Timestamp)

		adjusted := scoring.AdjustedScore(sig.Score, domain.FactorsFromSignal(sig))
		observability.RecordSignalScored(sig.Score, adjusted)
		switch {
		case adjusted > sig.Score:
			stats.ScoresRaised++
		case adjusted < sig.Score:
			stats.ScoresLowered++
		}

		if dd.IsDuplicate(sig.Token, adjusted) {
			observability.RecordDuplicateSuppressed()
			stats.Duplicates++
			continue
		}

		rescored := *sig
		rescored.Score = adjusted
		accepted = append(accepted, &rescored)
	}

	stats.SignalsReplayed = len(accepted)
	return accepted
}

// persist stores the run summary, trade ledger and equity curve.
func (p *ReplayPipeline) persist(ctx context.Context, r *domain.BacktestResult) error {
	if err := p.tradeStore.InsertBulk(ctx, r.RunID, r.Trades); err != nil {
		return fmt.Errorf("persist trades: %w", err)
	}
	if err := p.equityStore.InsertBulk(ctx, r.RunID, r.EquityCurve); err != nil {
		return fmt.Errorf("persist equity curve: %w", err)
	}

	summary := &storage.RunSummary{
		RunID:           r.RunID,
		Config:          r.Config,
		Metrics:         r.Metrics,
		FinalCapitalUSD: r.FinalCapitalUSD,
		SignalsReplayed: r.SignalsReplayed,
		CreatedAt:       p.clock().UnixMilli(),
	}
	if err := p.runStore.Insert(ctx, summary); err != nil {
		return fmt.Errorf("persist run summary: %w", err)
	}
	return nil
}

// writeOutputs renders the markdown report and CSV exports.
func (p *ReplayPipeline) writeOutputs(r *domain.BacktestResult) error {
	if p.outputDir == "" {
		return nil
	}

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return err
	}

	report := reporting.FromResult(r, p.clock())

	reportMD := reporting.RenderMarkdown(report)
	if err := os.WriteFile(filepath.Join(p.outputDir, ReportFileName), []byte(reportMD), 0644); err != nil {
		return err
	}

	tradesCSV := reporting.RenderTradesCSV(r.Trades)
	if err := os.WriteFile(filepath.Join(p.outputDir, TradesFileName), []byte(tradesCSV), 0644); err != nil {
		return err
	}

	equityCSV := reporting.RenderEquityCSV(r.EquityCurve)
	if err := os.WriteFile(filepath.Join(p.outputDir, EquityCurveFileName), []byte(equityCSV), 0644); err != nil {
		return err
	}

	return nil
}
