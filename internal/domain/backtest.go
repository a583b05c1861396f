package domain

import "fmt"

// BacktestConfig holds simulator parameters supplied by the caller.
type BacktestConfig struct {
	InitialCapitalUSD float64 // starting capital, > 0
	PositionSizePct   float64 // percent of available capital per trade, (0, 100]
	TakeProfitPct     float64 // exit when price rises this percent above entry, > 0
	StopLossPct       float64 // exit when price falls this percent below entry, > 0
	MinScore          int     // minimum qualifying adjusted score, 0-100
	MaxPositions      int     // concurrent open position cap, >= 1

	// Optional narrowing filters. Empty/zero means no filter.
	Tokens       []string  // restrict entries to these token mints
	MaxRiskLevel RiskLevel // skip entries riskier than this level
}

// ConfigError reports an invalid BacktestConfig value. Fatal to a run;
// returned before any signal is processed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid backtest config: %s %s", e.Field, e.Reason)
}

// Validate checks config bounds. Returns *ConfigError naming the offending
// field, or nil.
func (c *BacktestConfig) Validate() error {
	if c.InitialCapitalUSD <= 0 {
		return &ConfigError{Field: "InitialCapitalUSD", Reason: "must be positive"}
	}
	if c.PositionSizePct <= 0 || c.PositionSizePct > 100 {
		return &ConfigError{Field: "PositionSizePct", Reason: "must be in (0, 100]"}
	}
	if c.TakeProfitPct <= 0 {
		return &ConfigError{Field: "TakeProfitPct", Reason: "must be positive"}
	}
	if c.StopLossPct <= 0 {
		return &ConfigError{Field: "StopLossPct", Reason: "must be positive"}
	}
	if c.MinScore < 0 || c.MinScore > 100 {
		return &ConfigError{Field: "MinScore", Reason: "must be in [0, 100]"}
	}
	if c.MaxPositions < 1 {
		return &ConfigError{Field: "MaxPositions", Reason: "must be at least 1"}
	}
	if c.MaxRiskLevel != "" {
		if _, ok := riskRank[c.MaxRiskLevel]; !ok {
			return &ConfigError{Field: "MaxRiskLevel", Reason: "unknown risk level"}
		}
	}
	return nil
}

// EquityPoint is one sample of the portfolio capital trajectory.
// Recorded on every simulated entry and exit.
type EquityPoint struct {
	Timestamp  int64 // Unix ms
	CapitalUSD float64
}

// SignalWarning flags a signal that could not be used for trade entry.
// Non-fatal; collected and surfaced alongside the result.
type SignalWarning struct {
	SignalID string
	Token    string
	Reason   string
}

// Metrics aggregates trade ledger statistics.
type Metrics struct {
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	BreakevenTrades int

	WinRatePct   float64
	ProfitFactor float64 // math.Inf(1) when wins exist and losses do not
	AvgPnlPct    float64

	BestTrade  *Trade // nil when no trades
	WorstTrade *Trade // nil when no trades

	CurrentWinStreak  int
	CurrentLossStreak int
	MaxWinStreak      int
	MaxLossStreak     int
}

// BacktestResult is the full output of one simulation run. Immutable once
// computed.
type BacktestResult struct {
	RunID  string
	Config BacktestConfig

	Trades      []Trade       // chronological by exit time
	EquityCurve []EquityPoint // chronological, one point per entry/exit
	Metrics     Metrics

	FinalCapitalUSD float64
	Warnings        []SignalWarning
	SignalsReplayed int
}
