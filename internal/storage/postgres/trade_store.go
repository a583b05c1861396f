package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	trade_id, run_id, token, symbol, signal_id, signal_score,
	entry_price, entry_time_ms, exit_price, exit_time_ms, exit_reason,
	quantity, invested_usd, pnl_usd, pnl_pct, ath_price, ath_pnl_pct, outcome
`

// InsertBulk adds a run's trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, runID string, trades []domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trades (
			trade_id, run_id, token, symbol, signal_id, signal_score,
			entry_price, entry_time_ms, exit_price, exit_time_ms, exit_reason,
			quantity, invested_usd, pnl_usd, pnl_pct, ath_price, ath_pnl_pct, outcome
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18
		)
	`

	for _, t := range trades {
		if t.TradeID == "" {
			return storage.ErrInvalidInput
		}

		_, err := tx.Exec(ctx, query,
			t.TradeID, runID, t.Token, t.Symbol, t.SignalID, t.SignalScore,
			t.EntryPrice, t.EntryTime, t.ExitPrice, t.ExitTime, t.ExitReason,
			t.Quantity, t.InvestedUSD, t.PnlUSD, t.PnlPct, t.ATHPrice, t.ATHPnlPct, string(t.Outcome),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all trades for a run, ordered by exit time ASC.
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) ([]domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE run_id = $1
		ORDER BY exit_time_ms ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trades by run id: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByToken retrieves all trades for a token across runs, ordered by entry time ASC.
func (s *TradeStore) GetByToken(ctx context.Context, token string) ([]domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE token = $1
		ORDER BY entry_time_ms ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("get trades by token: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]domain.Trade, error) {
	trades := make([]domain.Trade, 0)

	for rows.Next() {
		var t domain.Trade
		var runID, outcome string

		err := rows.Scan(
			&t.TradeID, &runID, &t.Token, &t.Symbol, &t.SignalID, &t.SignalScore,
			&t.EntryPrice, &t.EntryTime, &t.ExitPrice, &t.ExitTime, &t.ExitReason,
			&t.Quantity, &t.InvestedUSD, &t.PnlUSD, &t.PnlPct, &t.ATHPrice, &t.ATHPnlPct, &outcome,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.Outcome = domain.Outcome(outcome)
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
