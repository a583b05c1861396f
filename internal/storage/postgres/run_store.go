package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"signal-oracle-lab/internal/storage"
)

// BacktestRunStore implements storage.BacktestRunStore using PostgreSQL.
type BacktestRunStore struct {
	pool *Pool
}

// NewBacktestRunStore creates a new BacktestRunStore.
func NewBacktestRunStore(pool *Pool) *BacktestRunStore {
	return &BacktestRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestRunStore = (*BacktestRunStore)(nil)

// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
// Metrics JSON encoding (including the +Inf ProfitFactor sentinel stored
// as -1) is handled by domain.Metrics itself.
func (s *BacktestRunStore) Insert(ctx context.Context, r *storage.RunSummary) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	config, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("marshal run config: %w", err)
	}
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return fmt.Errorf("marshal run metrics: %w", err)
	}

	query := `
		INSERT INTO backtest_runs (
			run_id, config, metrics, final_capital_usd, signals_replayed, created_at_ms
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.pool.Exec(ctx, query,
		r.RunID, config, metrics, r.FinalCapitalUSD, r.SignalsReplayed, r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest run: %w", err)
	}
	return nil
}

// GetByID retrieves a run summary. Returns ErrNotFound if not exists.
func (s *BacktestRunStore) GetByID(ctx context.Context, runID string) (*storage.RunSummary, error) {
	query := `
		SELECT run_id, config, metrics, final_capital_usd, signals_replayed, created_at_ms
		FROM backtest_runs
		WHERE run_id = $1
	`

	var r storage.RunSummary
	var config, metrics []byte

	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&r.RunID, &config, &metrics, &r.FinalCapitalUSD, &r.SignalsReplayed, &r.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest run by id: %w", err)
	}

	if err := json.Unmarshal(config, &r.Config); err != nil {
		return nil, fmt.Errorf("unmarshal run config: %w", err)
	}
	if err := json.Unmarshal(metrics, &r.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal run metrics: %w", err)
	}

	return &r, nil
}
