package backtest

import (
	"sort"

	"signal-oracle-lab/internal/domain"
)

// SortSignals orders signals by timestamp ASC. The sort is stable: signals
// sharing a timestamp keep their input sequence order, which makes replay
// output deterministic for any input permutation of distinct timestamps.
func SortSignals(signals []*domain.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Timestamp < signals[j].Timestamp
	})
}

// IsSorted reports whether signals are already in non-decreasing timestamp
// order.
func IsSorted(signals []*domain.Signal) bool {
	for i := 1; i < len(signals); i++ {
		if signals[i-1].Timestamp > signals[i].Timestamp {
			return false
		}
	}
	return true
}
