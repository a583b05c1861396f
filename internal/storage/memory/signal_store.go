package memory

import (
	"context"
	"sort"
	"sync"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Signal // keyed by signal id
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{
		data: make(map[string]*domain.Signal),
	}
}

// Insert adds a new signal. Returns ErrDuplicateKey if the signal id exists.
func (s *SignalStore) Insert(_ context.Context, sig *domain.Signal) error {
	if sig == nil || sig.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sig.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[sig.ID] = copySignal(sig)
	return nil
}

// InsertBulk adds multiple signals atomically. Fails entire batch on any duplicate.
func (s *SignalStore) InsertBulk(_ context.Context, signals []*domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(signals))
	for _, sig := range signals {
		if sig == nil || sig.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[sig.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[sig.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[sig.ID] = struct{}{}
	}

	for _, sig := range signals {
		s.data[sig.ID] = copySignal(sig)
	}
	return nil
}

// GetByID retrieves a signal by its id. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(_ context.Context, signalID string) (*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, exists := s.data[signalID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySignal(sig), nil
}

// GetByToken retrieves all signals for a token, ordered by timestamp ASC.
func (s *SignalStore) GetByToken(_ context.Context, token string) ([]*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Signal
	for _, sig := range s.data {
		if sig.Token == token {
			result = append(result, copySignal(sig))
		}
	}
	sortSignals(result)
	return result, nil
}

// GetByTimeRange retrieves signals within [start, end] inclusive, ordered by
// timestamp ASC.
func (s *SignalStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Signal
	for _, sig := range s.data {
		if sig.Timestamp >= start && sig.Timestamp <= end {
			result = append(result, copySignal(sig))
		}
	}
	sortSignals(result)
	return result, nil
}

// sortSignals orders by (timestamp ASC, id ASC) for deterministic reads.
func sortSignals(signals []*domain.Signal) {
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Timestamp != signals[j].Timestamp {
			return signals[i].Timestamp < signals[j].Timestamp
		}
		return signals[i].ID < signals[j].ID
	})
}

// copySignal clones a signal including its contributions slice.
func copySignal(sig *domain.Signal) *domain.Signal {
	cp := *sig
	if len(sig.Sources) > 0 {
		cp.Sources = make([]domain.SourceContribution, len(sig.Sources))
		copy(cp.Sources, sig.Sources)
	}
	return &cp
}

var _ storage.SignalStore = (*SignalStore)(nil)
