package pipeline

import (
	"context"
	"testing"

	"signal-oracle-lab/internal/domain"
)

func TestLoadFixtures(t *testing.T) {
	f := newReplayFixture(t, "")
	if err := LoadFixtures(context.Background(), f.signalStore); err != nil {
		t.Fatalf("LoadFixtures() error = %v", err)
	}

	signals, err := f.signalStore.GetByTimeRange(context.Background(), FixtureStart, FixtureEnd)
	if err != nil {
		t.Fatalf("GetByTimeRange() error = %v", err)
	}
	if len(signals) != 7 {
		t.Errorf("fixture signals = %d, want 7", len(signals))
	}

	// Second load collides on every id.
	if err := LoadFixtures(context.Background(), f.signalStore); err == nil {
		t.Error("second LoadFixtures() succeeded, want duplicate key error")
	}
}

// The fixture timeline is built to exercise all three exit paths under a
// plain config: ALPHA take-profits, BETA stop-losses, GAMMA is carried to
// end of data.
func TestLoadFixtures_ReplaysAllExitPaths(t *testing.T) {
	f := newReplayFixture(t, "")
	if err := LoadFixtures(context.Background(), f.signalStore); err != nil {
		t.Fatalf("LoadFixtures() error = %v", err)
	}

	cfg := domain.BacktestConfig{
		InitialCapitalUSD: 10_000,
		PositionSizePct:   10,
		TakeProfitPct:     50,
		StopLossPct:       30,
		MinScore:          60,
		MaxPositions:      5,
	}

	result, stats, err := f.pipeline.Run(context.Background(), FixtureStart, FixtureEnd, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1 (the repeat ALPHA signal)", stats.Duplicates)
	}
	if len(result.Trades) != 3 {
		t.Fatalf("trades = %d, want 3", len(result.Trades))
	}

	reasons := make(map[string]int)
	for _, trade := range result.Trades {
		reasons[trade.ExitReason]++
	}
	for _, want := range []string{
		domain.ExitReasonTakeProfit,
		domain.ExitReasonStopLoss,
		domain.ExitReasonEndOfData,
	} {
		if reasons[want] != 1 {
			t.Errorf("exit reason %q count = %d, want 1 (all: %v)", want, reasons[want], reasons)
		}
	}
}
