package storage

import (
	"context"

	"signal-oracle-lab/internal/domain"
)

// SignalStore provides access to scored-signal storage.
type SignalStore interface {
	// Insert adds a new signal. Returns ErrDuplicateKey if the signal id exists.
	Insert(ctx context.Context, s *domain.Signal) error

	// InsertBulk adds multiple signals atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, signals []*domain.Signal) error

	// GetByID retrieves a signal by its id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, signalID string) (*domain.Signal, error)

	// GetByToken retrieves all signals for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, token string) ([]*domain.Signal, error)

	// GetByTimeRange retrieves signals within [start, end] (inclusive, ms),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Signal, error)
}

// TradeStore provides access to simulated-trade storage.
type TradeStore interface {
	// InsertBulk adds a run's trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, runID string, trades []domain.Trade) error

	// GetByRunID retrieves all trades for a run, ordered by exit time ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.Trade, error)

	// GetByToken retrieves all trades for a token across runs, ordered by entry time ASC.
	GetByToken(ctx context.Context, token string) ([]domain.Trade, error)
}

// RunSummary is the persisted form of one backtest run.
type RunSummary struct {
	RunID           string
	Config          domain.BacktestConfig
	Metrics         domain.Metrics
	FinalCapitalUSD float64
	SignalsReplayed int
	CreatedAt       int64 // Unix ms
}

// BacktestRunStore provides access to run summaries.
type BacktestRunStore interface {
	// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *RunSummary) error

	// GetByID retrieves a run summary. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*RunSummary, error)
}

// EquityCurveStore provides access to equity curve time series.
type EquityCurveStore interface {
	// InsertBulk adds a run's full equity curve in one shot. A run's curve
	// is immutable: returns ErrDuplicateKey if the run already has points.
	InsertBulk(ctx context.Context, runID string, points []domain.EquityPoint) error

	// GetByRunID retrieves all points for a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.EquityPoint, error)
}
