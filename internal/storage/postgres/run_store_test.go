package postgres

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
)

func createTestRunSummary(runID string) *storage.RunSummary {
	best := createTestTrade("trade-best", "mint-1", 1000, 2000)
	return &storage.RunSummary{
		RunID: runID,
		Config: domain.BacktestConfig{
			InitialCapitalUSD: 10000,
			PositionSizePct:   10,
			TakeProfitPct:     50,
			StopLossPct:       20,
			MinScore:          70,
			MaxPositions:      3,
		},
		Metrics: domain.Metrics{
			TotalTrades:   4,
			WinningTrades: 3,
			LosingTrades:  1,
			WinRatePct:    75,
			ProfitFactor:  2.5,
			AvgPnlPct:     18.75,
			BestTrade:     &best,
			MaxWinStreak:  3,
			MaxLossStreak: 1,
		},
		FinalCapitalUSD: 11750,
		SignalsReplayed: 120,
		CreatedAt:       1700000000000,
	}
}

func TestBacktestRunStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBacktestRunStore(pool)

	summary := createTestRunSummary("run-1")
	require.NoError(t, store.Insert(ctx, summary))

	retrieved, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, summary.RunID, retrieved.RunID)
	assert.Equal(t, summary.Config, retrieved.Config)
	assert.Equal(t, summary.Metrics.TotalTrades, retrieved.Metrics.TotalTrades)
	assert.InDelta(t, summary.Metrics.ProfitFactor, retrieved.Metrics.ProfitFactor, 0.0001)
	require.NotNil(t, retrieved.Metrics.BestTrade)
	assert.Equal(t, "trade-best", retrieved.Metrics.BestTrade.TradeID)
	assert.InDelta(t, summary.FinalCapitalUSD, retrieved.FinalCapitalUSD, 0.01)
	assert.Equal(t, summary.SignalsReplayed, retrieved.SignalsReplayed)
	assert.Equal(t, summary.CreatedAt, retrieved.CreatedAt)
}

func TestBacktestRunStore_InfiniteProfitFactorRoundTrips(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBacktestRunStore(pool)

	summary := createTestRunSummary("run-inf")
	summary.Metrics.ProfitFactor = math.Inf(1)
	require.NoError(t, store.Insert(ctx, summary))

	retrieved, err := store.GetByID(ctx, "run-inf")
	require.NoError(t, err)
	assert.True(t, math.IsInf(retrieved.Metrics.ProfitFactor, 1))
}

func TestBacktestRunStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBacktestRunStore(pool)

	require.NoError(t, store.Insert(ctx, createTestRunSummary("run-1")))

	err := store.Insert(ctx, createTestRunSummary("run-1"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBacktestRunStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBacktestRunStore(pool)

	_, err := store.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
