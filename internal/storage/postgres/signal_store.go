package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

const signalColumns = `
	signal_id, token, symbol, timestamp_ms, score, risk_level, sources,
	price_usd, market_cap_usd, liquidity_usd, volume_5m_usd, volume_1h_usd,
	price_change_5m_pct, price_change_1h_pct, age_minutes, buy_ratio_pct
`

const insertSignalQuery = `
	INSERT INTO signals (
		signal_id, token, symbol, timestamp_ms, score, risk_level, sources, sources_bitmap,
		price_usd, market_cap_usd, liquidity_usd, volume_5m_usd, volume_1h_usd,
		price_change_5m_pct, price_change_1h_pct, age_minutes, buy_ratio_pct
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8,
		$9, $10, $11, $12, $13,
		$14, $15, $16, $17
	)
`

// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
func (s *SignalStore) Insert(ctx context.Context, sig *domain.Signal) error {
	if sig == nil || sig.ID == "" {
		return storage.ErrInvalidInput
	}

	sources, err := json.Marshal(sig.Sources)
	if err != nil {
		return fmt.Errorf("marshal signal sources: %w", err)
	}

	_, err = s.pool.Exec(ctx, insertSignalQuery,
		sig.ID, sig.Token, sig.Symbol, sig.Timestamp, sig.Score, string(sig.RiskLevel), sources,
		int16(domain.EncodeSourcesBitmap(sig.Sources)),
		sig.Market.PriceUSD, sig.Market.MarketCapUSD, sig.Market.LiquidityUSD,
		sig.Market.Volume5mUSD, sig.Market.Volume1hUSD,
		sig.Market.PriceChange5mPct, sig.Market.PriceChange1hPct,
		sig.Market.AgeMinutes, sig.Market.BuyRatioPct,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// InsertBulk adds multiple signals atomically. Fails entire batch on any duplicate.
func (s *SignalStore) InsertBulk(ctx context.Context, signals []*domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sig := range signals {
		if sig == nil || sig.ID == "" {
			return storage.ErrInvalidInput
		}

		sources, err := json.Marshal(sig.Sources)
		if err != nil {
			return fmt.Errorf("marshal signal sources: %w", err)
		}

		_, err = tx.Exec(ctx, insertSignalQuery,
			sig.ID, sig.Token, sig.Symbol, sig.Timestamp, sig.Score, string(sig.RiskLevel), sources,
			int16(domain.EncodeSourcesBitmap(sig.Sources)),
			sig.Market.PriceUSD, sig.Market.MarketCapUSD, sig.Market.LiquidityUSD,
			sig.Market.Volume5mUSD, sig.Market.Volume1hUSD,
			sig.Market.PriceChange5mPct, sig.Market.PriceChange1hPct,
			sig.Market.AgeMinutes, sig.Market.BuyRatioPct,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert signal in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a signal by its id. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(ctx context.Context, signalID string) (*domain.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE signal_id = $1`

	row := s.pool.QueryRow(ctx, query, signalID)
	sig, err := scanSignal(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal by id: %w", err)
	}
	return sig, nil
}

// GetByToken retrieves all signals for a token, ordered by timestamp ASC.
func (s *SignalStore) GetByToken(ctx context.Context, token string) ([]*domain.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE token = $1
		ORDER BY timestamp_ms ASC, signal_id ASC
	`

	rows, err := s.pool.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("get signals by token: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetByTimeRange retrieves signals within [start, end] inclusive, ordered
// by timestamp ASC.
func (s *SignalStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE timestamp_ms >= $1 AND timestamp_ms <= $2
		ORDER BY timestamp_ms ASC, signal_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get signals by time range: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// scanSignal scans a single row into a Signal.
func scanSignal(row pgx.Row) (*domain.Signal, error) {
	var sig domain.Signal
	var riskLevel string
	var sources []byte

	err := row.Scan(
		&sig.ID, &sig.Token, &sig.Symbol, &sig.Timestamp, &sig.Score, &riskLevel, &sources,
		&sig.Market.PriceUSD, &sig.Market.MarketCapUSD, &sig.Market.LiquidityUSD,
		&sig.Market.Volume5mUSD, &sig.Market.Volume1hUSD,
		&sig.Market.PriceChange5mPct, &sig.Market.PriceChange1hPct,
		&sig.Market.AgeMinutes, &sig.Market.BuyRatioPct,
	)
	if err != nil {
		return nil, err
	}

	sig.RiskLevel = domain.RiskLevel(riskLevel)
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &sig.Sources); err != nil {
			return nil, fmt.Errorf("unmarshal signal sources: %w", err)
		}
	}
	return &sig, nil
}

// scanSignals scans multiple rows into a slice of Signal.
func scanSignals(rows pgx.Rows) ([]*domain.Signal, error) {
	var signals []*domain.Signal

	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}
		signals = append(signals, sig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal rows: %w", err)
	}

	return signals, nil
}
