package reporting

import (
	"time"

	"signal-oracle-lab/internal/domain"
)

// Report is a rendered view of one backtest run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string

	// Inputs
	Config          domain.BacktestConfig
	SignalsReplayed int

	// Outcome
	Metrics         domain.Metrics
	FinalCapitalUSD float64
	TotalReturnPct  float64 // (final - initial) / initial * 100

	// Trade ledger, chronological by exit time.
	Trades []domain.Trade

	// Capital over time.
	EquityCurve []domain.EquityPoint

	// Signals that could not be used for entry.
	Warnings []domain.SignalWarning
}

// FromResult builds a report directly from a simulation result.
func FromResult(r *domain.BacktestResult, generatedAt time.Time) *Report {
	rep := &Report{
		GeneratedAt:     generatedAt,
		RunID:           r.RunID,
		Config:          r.Config,
		SignalsReplayed: r.SignalsReplayed,
		Metrics:         r.Metrics,
		FinalCapitalUSD: r.FinalCapitalUSD,
		Trades:          r.Trades,
		EquityCurve:     r.EquityCurve,
		Warnings:        r.Warnings,
	}
	if r.Config.InitialCapitalUSD > 0 {
		rep.TotalReturnPct = (r.FinalCapitalUSD - r.Config.InitialCapitalUSD) / r.Config.InitialCapitalUSD * 100
	}
	return rep
}
