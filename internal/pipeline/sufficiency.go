package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/storage"
)

// SufficiencyCheck is one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult holds all checks plus any integrity errors found.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string
}

// SufficiencyThresholds configures the checker. Zero values fall back to
// the defaults below.
type SufficiencyThresholds struct {
	MinSignals  int           // minimum signals in the replay range
	MinTokens   int           // minimum distinct tokens
	MinCoverage time.Duration // minimum first-to-last signal span
}

const (
	defaultMinSignals  = 10
	defaultMinTokens   = 3
	defaultMinCoverage = time.Hour
)

// SufficiencyChecker validates that a stored signal range carries enough
// data for a meaningful replay before one is run.
type SufficiencyChecker struct {
	signalStore storage.SignalStore
	thresholds  SufficiencyThresholds
}

// NewSufficiencyChecker creates a checker with default thresholds.
func NewSufficiencyChecker(signalStore storage.SignalStore) *SufficiencyChecker {
	return &SufficiencyChecker{
		signalStore: signalStore,
		thresholds: SufficiencyThresholds{
			MinSignals:  defaultMinSignals,
			MinTokens:   defaultMinTokens,
			MinCoverage: defaultMinCoverage,
		},
	}
}

// WithThresholds overrides the default thresholds. Zero fields keep their
// defaults.
func (c *SufficiencyChecker) WithThresholds(t SufficiencyThresholds) *SufficiencyChecker {
	if t.MinSignals > 0 {
		c.thresholds.MinSignals = t.MinSignals
	}
	if t.MinTokens > 0 {
		c.thresholds.MinTokens = t.MinTokens
	}
	if t.MinCoverage > 0 {
		c.thresholds.MinCoverage = t.MinCoverage
	}
	return c
}

// Check loads the range once and runs every criterion against it.
func (c *SufficiencyChecker) Check(ctx context.Context, start, end int64) (*SufficiencyResult, error) {
	signals, err := c.signalStore.GetByTimeRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load signals: %w", err)
	}

	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 5),
		AllPass: true,
		Errors:  []string{},
	}

	add := func(check SufficiencyCheck, errs []string) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
			result.Errors = append(result.Errors, errs...)
		}
	}

	add(c.checkSignalCount(signals), nil)
	add(c.checkDistinctTokens(signals), nil)
	add(c.checkCoverage(signals), nil)

	check, errs := c.checkDuplicateIDs(signals)
	add(check, errs)

	check, errs = c.checkPriceable(signals)
	add(check, errs)

	return result, nil
}

func (c *SufficiencyChecker) checkSignalCount(signals []*domain.Signal) SufficiencyCheck {
	return SufficiencyCheck{
		Name:      "Signals in range",
		Threshold: fmt.Sprintf(">= %d", c.thresholds.MinSignals),
		Actual:    fmt.Sprintf("%d", len(signals)),
		Pass:      len(signals) >= c.thresholds.MinSignals,
	}
}

func (c *SufficiencyChecker) checkDistinctTokens(signals []*domain.Signal) SufficiencyCheck {
	tokens := make(map[string]struct{})
	for _, sig := range signals {
		tokens[sig.Token] = struct{}{}
	}
	return SufficiencyCheck{
		Name:      "Distinct tokens",
		Threshold: fmt.Sprintf(">= %d", c.thresholds.MinTokens),
		Actual:    fmt.Sprintf("%d", len(tokens)),
		Pass:      len(tokens) >= c.thresholds.MinTokens,
	}
}

// checkCoverage measures the first-to-last signal span. A thin span means
// every position exits as END_OF_DATA and the metrics say nothing.
func (c *SufficiencyChecker) checkCoverage(signals []*domain.Signal) SufficiencyCheck {
	threshold := fmt.Sprintf(">= %s", c.thresholds.MinCoverage)
	if len(signals) == 0 {
		return SufficiencyCheck{
			Name:      "Data coverage",
			Threshold: threshold,
			Actual:    "0s (no signals)",
			Pass:      false,
		}
	}

	minTs, maxTs := signals[0].Timestamp, signals[0].Timestamp
	for _, sig := range signals {
		if sig.Timestamp < minTs {
			minTs = sig.Timestamp
		}
		if sig.Timestamp > maxTs {
			maxTs = sig.Timestamp
		}
	}

	span := time.Duration(maxTs-minTs) * time.Millisecond
	return SufficiencyCheck{
		Name:      "Data coverage",
		Threshold: threshold,
		Actual:    span.String(),
		Pass:      span >= c.thresholds.MinCoverage,
	}
}

func (c *SufficiencyChecker) checkDuplicateIDs(signals []*domain.Signal) (SufficiencyCheck, []string) {
	seen := make(map[string]int)
	for _, sig := range signals {
		seen[sig.ID]++
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	duplicates := 0
	var errors []string
	for _, id := range ids {
		if count := seen[id]; count > 1 {
			duplicates++
			errors = append(errors, fmt.Sprintf("duplicate signal id: %s (count=%d)", id, count))
		}
	}

	return SufficiencyCheck{
		Name:      "Duplicate signal id count",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", duplicates),
		Pass:      duplicates == 0,
	}, errors
}

// checkPriceable requires every signal to carry a usable entry price, either
// a direct quote or a market cap the simulator can derive one from.
func (c *SufficiencyChecker) checkPriceable(signals []*domain.Signal) (SufficiencyCheck, []string) {
	total := len(signals)
	if total == 0 {
		return SufficiencyCheck{
			Name:      "Priceable signals",
			Threshold: "= 100%",
			Actual:    "0/0 (no signals)",
			Pass:      true,
		}, nil
	}

	unpriceable := 0
	var errors []string
	for _, sig := range signals {
		if sig.Market.PriceUSD <= 0 && sig.Market.MarketCapUSD <= 0 {
			unpriceable++
			errors = append(errors, fmt.Sprintf("no price or market cap for signal %s (token %s)", sig.ID, sig.Token))
		}
	}

	priceable := total - unpriceable
	pct := float64(priceable) / float64(total) * 100

	return SufficiencyCheck{
		Name:      "Priceable signals",
		Threshold: "= 100%",
		Actual:    fmt.Sprintf("%.1f%% (%d/%d)", pct, priceable, total),
		Pass:      unpriceable == 0,
	}, errors
}
