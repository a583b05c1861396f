package memory

import (
	"context"
	"sort"
	"sync"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu    sync.RWMutex
	data  map[string]domain.Trade // keyed by trade id
	byRun map[string][]string     // run id -> trade ids in insertion order
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data:  make(map[string]domain.Trade),
		byRun: make(map[string][]string),
	}
}

// InsertBulk adds a run's trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, runID string, trades []domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.TradeID] = struct{}{}
	}

	for _, t := range trades {
		s.data[t.TradeID] = t
		s.byRun[runID] = append(s.byRun[runID], t.TradeID)
	}
	return nil
}

// GetByRunID retrieves all trades for a run, ordered by exit time ASC.
func (s *TradeStore) GetByRunID(_ context.Context, runID string) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byRun[runID]
	result := make([]domain.Trade, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.data[id])
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ExitTime < result[j].ExitTime
	})
	return result, nil
}

// GetByToken retrieves all trades for a token across runs, ordered by entry
// time ASC.
func (s *TradeStore) GetByToken(_ context.Context, token string) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Trade
	for _, t := range s.data {
		if t.Token == token {
			result = append(result, t)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].EntryTime != result[j].EntryTime {
			return result[i].EntryTime < result[j].EntryTime
		}
		return result[i].TradeID < result[j].TradeID
	})
	return result, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
