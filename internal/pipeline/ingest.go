package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"signal-oracle-lab/internal/dedup"
	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/observability"
	"signal-oracle-lab/internal/scoring"
	"signal-oracle-lab/internal/storage"
)

// defaultPurgeInterval is how often the ingestor compacts dedup state.
const defaultPurgeInterval = 10 * time.Minute

// IngestorOptions configures an Ingestor.
type IngestorOptions struct {
	Signals       <-chan *domain.Signal
	SignalStore   storage.SignalStore
	DedupWindow   time.Duration // zero uses the dedup default
	PurgeInterval time.Duration // zero uses defaultPurgeInterval
	Logger        *log.Logger
}

// IngestStats counts what happened to the live stream so far. Read after
// Run returns.
type IngestStats struct {
	Received   int
	Duplicates int
	Stored     int
	Replayed   int // signals already present in the store
}

// Ingestor consumes a live signal stream, re-scores each signal through
// the confluence rules, drops window duplicates, and persists the rest.
type Ingestor struct {
	signals       <-chan *domain.Signal
	store         storage.SignalStore
	dedup         *dedup.Deduplicator
	purgeInterval time.Duration
	logger        *log.Logger

	stats IngestStats
}

// NewIngestor creates an ingestor over a signal channel, typically
// feed.Client.Signals().
func NewIngestor(opts IngestorOptions) *Ingestor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	purge := opts.PurgeInterval
	if purge <= 0 {
		purge = defaultPurgeInterval
	}
	return &Ingestor{
		signals:       opts.Signals,
		store:         opts.SignalStore,
		dedup:         dedup.New(opts.DedupWindow),
		purgeInterval: purge,
		logger:        logger,
	}
}

// Run consumes the stream until ctx is canceled or the channel closes.
// A closed channel is a normal shutdown, not an error.
func (in *Ingestor) Run(ctx context.Context) error {
	purgeTicker := time.NewTicker(in.purgeInterval)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-purgeTicker.C:
			removed := in.dedup.Purge()
			observability.UpdateTrackedTokens(in.dedup.Tracked())
			if removed > 0 {
				in.logger.Printf("purged %d expired dedup entries", removed)
			}
		case sig, ok := <-in.signals:
			if !ok {
				in.logger.Printf("signal stream closed: received=%d stored=%d duplicates=%d",
					in.stats.Received, in.stats.Stored, in.stats.Duplicates)
				return nil
			}
			in.handle(ctx, sig)
		}
	}
}

// Stats returns the counters accumulated so far. Not synchronized; call
// after Run returns.
func (in *Ingestor) Stats() IngestStats {
	return in.stats
}

func (in *Ingestor) handle(ctx context.Context, sig *domain.Signal) {
	in.stats.Received++
	observability.RecordSignalReceived()

	adjusted := scoring.AdjustedScore(sig.Score, domain.FactorsFromSignal(sig))
	observability.RecordSignalScored(sig.Score, adjusted)

	if in.dedup.IsDuplicate(sig.Token, adjusted) {
		in.stats.Duplicates++
		observability.RecordDuplicateSuppressed()
		return
	}
	observability.UpdateTrackedTokens(in.dedup.Tracked())

	stored := *sig
	stored.Score = adjusted

	if err := in.store.Insert(ctx, &stored); err != nil {
		// Deterministic ids make frame replays collide here; the signal is
		// already stored, so this is not a failure.
		if errors.Is(err, storage.ErrDuplicateKey) {
			in.stats.Replayed++
			return
		}
		in.logger.Printf("store signal %s: %v", stored.ID, err)
		return
	}
	in.stats.Stored++
	in.logger.Printf("signal %s %s score=%d->%d %s", stored.ID, stored.Symbol,
		sig.Score, adjusted, scoring.RecommendedAction(adjusted, stored.RiskLevel))
}
