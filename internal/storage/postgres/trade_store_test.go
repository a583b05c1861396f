package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
)

func createTestTrade(id, token string, entryTs, exitTs int64) domain.Trade {
	return domain.Trade{
		TradeID:     id,
		Token:       token,
		Symbol:      "TEST",
		SignalID:    "sig-" + id,
		SignalScore: 78,
		EntryPrice:  0.001,
		EntryTime:   entryTs,
		ExitPrice:   0.0015,
		ExitTime:    exitTs,
		ExitReason:  domain.ExitReasonTakeProfit,
		Quantity:    1000000,
		InvestedUSD: 1000,
		PnlUSD:      500,
		PnlPct:      50,
		ATHPrice:    0.0016,
		ATHPnlPct:   60,
		Outcome:     domain.OutcomeWin,
	}
}

func TestTradeStore_InsertBulkAndGetByRunID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trades := []domain.Trade{
		createTestTrade("trade-002", "mint-1", 2000, 4000),
		createTestTrade("trade-001", "mint-2", 1000, 3000),
	}
	require.NoError(t, store.InsertBulk(ctx, "run-1", trades))

	retrieved, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)

	// Ordered by exit time ASC.
	assert.Equal(t, "trade-001", retrieved[0].TradeID)
	assert.Equal(t, "trade-002", retrieved[1].TradeID)

	got := retrieved[0]
	assert.Equal(t, "mint-2", got.Token)
	assert.Equal(t, "sig-trade-001", got.SignalID)
	assert.Equal(t, 78, got.SignalScore)
	assert.InDelta(t, 0.001, got.EntryPrice, 1e-9)
	assert.InDelta(t, 500.0, got.PnlUSD, 0.0001)
	assert.Equal(t, domain.ExitReasonTakeProfit, got.ExitReason)
	assert.Equal(t, domain.OutcomeWin, got.Outcome)
}

func TestTradeStore_InsertBulkDuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.InsertBulk(ctx, "run-1", []domain.Trade{
		createTestTrade("trade-001", "mint-1", 1000, 2000),
	}))

	err := store.InsertBulk(ctx, "run-2", []domain.Trade{
		createTestTrade("trade-002", "mint-1", 1500, 2500),
		createTestTrade("trade-001", "mint-1", 1000, 2000), // duplicate id
	})
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	retrieved, err := store.GetByRunID(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, retrieved, "failed batch must not leave partial rows")
}

func TestTradeStore_GetByToken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.InsertBulk(ctx, "run-1", []domain.Trade{
		createTestTrade("trade-001", "mint-1", 3000, 5000),
		createTestTrade("trade-002", "mint-1", 1000, 2000),
		createTestTrade("trade-003", "mint-2", 1500, 2500),
	}))

	retrieved, err := store.GetByToken(ctx, "mint-1")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)

	// Ordered by entry time ASC.
	assert.Equal(t, "trade-002", retrieved[0].TradeID)
	assert.Equal(t, "trade-001", retrieved[1].TradeID)
}

func TestTradeStore_EmptyRunIsEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(pool)

	retrieved, err := store.GetByRunID(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, retrieved)
}
