package clickhouse

import (
	"context"
	"fmt"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
)

// EquityCurveStore implements storage.EquityCurveStore using ClickHouse.
// Curves are append-once time series, a natural fit for MergeTree.
type EquityCurveStore struct {
	conn *Conn
}

// NewEquityCurveStore creates a new EquityCurveStore.
func NewEquityCurveStore(conn *Conn) *EquityCurveStore {
	return &EquityCurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk adds a run's full equity curve in one shot. MergeTree does not
// enforce uniqueness, so immutability is checked explicitly before insert:
// returns ErrDuplicateKey if the run already has points.
func (s *EquityCurveStore) InsertBulk(ctx context.Context, runID string, points []domain.EquityPoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	exists, err := s.exists(ctx, runID)
	if err != nil {
		return fmt.Errorf("check existing curve: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_curve (run_id, seq, timestamp_ms, capital_usd)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	// seq preserves the simulator's recording order for tied timestamps.
	for i, p := range points {
		if err := batch.Append(runID, uint32(i), uint64(p.Timestamp), p.CapitalUSD); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all points for a run, ordered by timestamp ASC.
// Tied timestamps keep insertion order.
func (s *EquityCurveStore) GetByRunID(ctx context.Context, runID string) ([]domain.EquityPoint, error) {
	query := `
		SELECT timestamp_ms, capital_usd
		FROM equity_curve
		WHERE run_id = ?
		ORDER BY timestamp_ms ASC, seq ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query equity curve by run id: %w", err)
	}
	defer rows.Close()

	points := make([]domain.EquityPoint, 0)
	for rows.Next() {
		var timestampMs uint64
		var capital float64
		if err := rows.Scan(&timestampMs, &capital); err != nil {
			return nil, fmt.Errorf("scan equity point row: %w", err)
		}
		points = append(points, domain.EquityPoint{
			Timestamp:  int64(timestampMs),
			CapitalUSD: capital,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equity point rows: %w", err)
	}

	return points, nil
}

// exists checks if a run already has curve points.
func (s *EquityCurveStore) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM equity_curve WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
