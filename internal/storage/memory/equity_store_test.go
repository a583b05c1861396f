package memory

import (
	"context"
	"errors"
	"testing"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
)

func TestEquityCurveStore_InsertAndGet(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	points := []domain.EquityPoint{
		{Timestamp: 1000, CapitalUSD: 9000},
		{Timestamp: 2000, CapitalUSD: 11000},
	}
	if err := store.InsertBulk(ctx, "run1", points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2", len(got))
	}
	if got[1].CapitalUSD != 11000 {
		t.Errorf("last point capital = %v, want 11000", got[1].CapitalUSD)
	}
}

func TestEquityCurveStore_CurveIsImmutable(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	points := []domain.EquityPoint{{Timestamp: 1000, CapitalUSD: 9000}}
	if err := store.InsertBulk(ctx, "run1", points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	err := store.InsertBulk(ctx, "run1", []domain.EquityPoint{{Timestamp: 2000, CapitalUSD: 9500}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey on second insert, got %v", err)
	}

	// Mutating the caller's slice must not affect the stored curve.
	points[0].CapitalUSD = 1

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if got[0].CapitalUSD != 9000 {
		t.Error("store shared the points slice with the caller")
	}
}

func TestEquityCurveStore_TiedTimestampsKeepInsertOrder(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	points := []domain.EquityPoint{
		{Timestamp: 1000, CapitalUSD: 9000},
		{Timestamp: 1000, CapitalUSD: 8000},
		{Timestamp: 2000, CapitalUSD: 8500},
	}
	if err := store.InsertBulk(ctx, "run1", points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if got[0].CapitalUSD != 9000 || got[1].CapitalUSD != 8000 {
		t.Errorf("tied timestamps reordered: %v, %v", got[0].CapitalUSD, got[1].CapitalUSD)
	}
}

func TestEquityCurveStore_UnknownRunIsEmpty(t *testing.T) {
	store := NewEquityCurveStore()

	got, err := store.GetByRunID(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d points for unknown run, want 0", len(got))
	}
}
