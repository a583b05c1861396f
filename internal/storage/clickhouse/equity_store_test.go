package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
)

func TestEquityCurveStore_InsertAndGetByRunID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEquityCurveStore(conn)

	points := []domain.EquityPoint{
		{Timestamp: 3000, CapitalUSD: 8500},
		{Timestamp: 1000, CapitalUSD: 9000},
		{Timestamp: 2000, CapitalUSD: 11000},
	}
	require.NoError(t, store.InsertBulk(ctx, "run-1", points))

	retrieved, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, retrieved, 3)

	// Ordered by timestamp ASC.
	assert.Equal(t, int64(1000), retrieved[0].Timestamp)
	assert.InDelta(t, 9000.0, retrieved[0].CapitalUSD, 0.0001)
	assert.Equal(t, int64(2000), retrieved[1].Timestamp)
	assert.Equal(t, int64(3000), retrieved[2].Timestamp)
}

func TestEquityCurveStore_CurveIsImmutable(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEquityCurveStore(conn)

	require.NoError(t, store.InsertBulk(ctx, "run-1", []domain.EquityPoint{
		{Timestamp: 1000, CapitalUSD: 9000},
	}))

	err := store.InsertBulk(ctx, "run-1", []domain.EquityPoint{
		{Timestamp: 2000, CapitalUSD: 9500},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestEquityCurveStore_TiedTimestampsKeepInsertOrder(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEquityCurveStore(conn)

	points := []domain.EquityPoint{
		{Timestamp: 1000, CapitalUSD: 9000},
		{Timestamp: 1000, CapitalUSD: 8000},
		{Timestamp: 2000, CapitalUSD: 8500},
	}
	require.NoError(t, store.InsertBulk(ctx, "run-1", points))

	retrieved, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, retrieved, 3)
	assert.InDelta(t, 9000.0, retrieved[0].CapitalUSD, 0.0001)
	assert.InDelta(t, 8000.0, retrieved[1].CapitalUSD, 0.0001)
}

func TestEquityCurveStore_UnknownRunIsEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEquityCurveStore(conn)

	retrieved, err := store.GetByRunID(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, retrieved)
}

func TestEquityCurveStore_RunsAreIsolated(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEquityCurveStore(conn)

	require.NoError(t, store.InsertBulk(ctx, "run-1", []domain.EquityPoint{
		{Timestamp: 1000, CapitalUSD: 9000},
	}))
	require.NoError(t, store.InsertBulk(ctx, "run-2", []domain.EquityPoint{
		{Timestamp: 1000, CapitalUSD: 5000},
		{Timestamp: 2000, CapitalUSD: 5500},
	}))

	retrieved, err := store.GetByRunID(ctx, "run-2")
	require.NoError(t, err)
	assert.Len(t, retrieved, 2)
}
