package memory

import (
	"context"
	"errors"
	"testing"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
)

func testRunSummary(runID string) *storage.RunSummary {
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
		Metrics:         domain.Metrics{TotalTrades: 5, WinningTrades: 3, LosingTrades: 2, WinRatePct: 60},
		FinalCapitalUSD: 11200,
		SignalsReplayed: 40,
		CreatedAt:       1700000000000,
	}
}

func TestBacktestRunStore_InsertAndGet(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRunSummary("run1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FinalCapitalUSD != 11200 || got.Metrics.TotalTrades != 5 {
		t.Errorf("unexpected summary: %+v", got)
	}
}

func TestBacktestRunStore_DuplicateKey(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRunSummary("run1")); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := store.Insert(ctx, testRunSummary("run1"))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestBacktestRunStore_NotFound(t *testing.T) {
	store := NewBacktestRunStore()

	_, err := store.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBacktestRunStore_InvalidInput(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil summary, got %v", err)
	}
	if err := store.Insert(ctx, &storage.RunSummary{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty run id, got %v", err)
	}
}
