// Package dedup suppresses repeated signals for the same token within a
// rolling time window, with a score-improvement override.
package dedup

import (
	"sync"
	"time"
)

// DefaultWindow is the suppression window applied when none is configured.
const DefaultWindow = 30 * time.Minute

// scoreOverrideDelta is the minimum score improvement over the previously
// observed score that lets a repeat signal through inside the window.
const scoreOverrideDelta = 10

// seenState tracks one token inside the dedup window.
type seenState struct {
	firstSeen time.Time
	count     int
	lastScore int
}

// Deduplicator gates repeated signals per token. All methods are safe for
// concurrent use; per-token state is owned exclusively by this type.
type Deduplicator struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]*seenState
	clock  func() time.Time
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithClock sets a custom time source for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(d *Deduplicator) {
		d.clock = clock
	}
}

// New creates a Deduplicator with the given suppression window.
// Non-positive window falls back to DefaultWindow.
func New(window time.Duration, opts ...Option) *Deduplicator {
	if window <= 0 {
		window = DefaultWindow
	}
	d := &Deduplicator{
		window: window,
		seen:   make(map[string]*seenState),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsDuplicate reports whether a signal for token should be suppressed, and
// updates per-token state as a side effect.
//
// First observation of a token starts tracking and passes. A repeat inside
// the window is suppressed unless its score beats the previously recorded
// score by at least scoreOverrideDelta; the comparison uses the score from
// before this call's own update, and lastScore is updated either way. A
// repeat outside the window resets tracking as if the token were unseen.
func (d *Deduplicator) IsDuplicate(token string, score int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()

	state, tracked := d.seen[token]
	if !tracked || now.Sub(state.firstSeen) >= d.window {
		d.seen[token] = &seenState{
			firstSeen: now,
			count:     1,
			lastScore: score,
		}
		return false
	}

	state.count++

	// Compare against the score recorded before this call; the order
	// matters for suppression behavior and must not be swapped with the
	// update below.
	override := score >= state.lastScore+scoreOverrideDelta
	state.lastScore = score

	return !override
}

// Frequency returns the observation count for a token, or 0 if untracked.
func (d *Deduplicator) Frequency(token string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, tracked := d.seen[token]
	if !tracked {
		return 0
	}
	return state.count
}

// Tracked returns the number of tokens currently under observation.
func (d *Deduplicator) Tracked() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Purge drops entries whose first observation is older than twice the
// window. Intended to be called periodically; independent of suppression.
func (d *Deduplicator) Purge() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := d.clock().Add(-2 * d.window)
	removed := 0
	for token, state := range d.seen {
		if state.firstSeen.Before(cutoff) {
			delete(d.seen, token)
			removed++
		}
	}
	return removed
}

// Reset clears all tracked state. Primarily for test isolation.
func (d *Deduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]*seenState)
}
