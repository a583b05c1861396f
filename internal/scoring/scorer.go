// Package scoring implements the confluence rule table that adjusts a
// signal's base score from the agreement of independent sources and the
// token's market context.
package scoring

import (
	"math"

	"signal-oracle-lab/internal/domain"
)

// rule is one independently additive scoring rule. Bonuses carry positive
// deltas, penalties negative ones. No rule caps the running total; only the
// final result is clamped to [0, 100].
type rule struct {
	name    string
	applies func(f domain.ConfluenceFactors) bool
	delta   int
}

// RuleDelta is one applied rule and its contribution, for audit output.
type RuleDelta struct {
	Name  string
	Delta int
}

// Threshold boundaries are inclusive/exclusive exactly as written; changing
// >= to > here changes published scores.
var rules = []rule{
	// Multi-source confluence, highest applicable tier only.
	{"three_plus_sources", func(f domain.ConfluenceFactors) bool { return f.SourceCount >= 3 }, 15},
	{"two_sources", func(f domain.ConfluenceFactors) bool { return f.SourceCount == 2 }, 8},

	{"elite_wallet", func(f domain.ConfluenceFactors) bool { return f.HasEliteWallet }, 20},
	{"elite_plus_volume", func(f domain.ConfluenceFactors) bool { return f.HasEliteWallet && f.HasVolumeSpike }, 10},
	{"sniper_plus_kol", func(f domain.ConfluenceFactors) bool { return f.HasSniperWallet && f.HasKOLMention }, 8},

	{"strong_narrative", func(f domain.ConfluenceFactors) bool { return f.NarrativeStrength > 0.8 }, 10},
	{"moderate_narrative", func(f domain.ConfluenceFactors) bool { return f.NarrativeStrength > 0.6 && f.NarrativeStrength <= 0.8 }, 5},

	{"micro_cap", func(f domain.ConfluenceFactors) bool { return f.MarketCapUSD < 50_000 }, 10},
	{"small_cap", func(f domain.ConfluenceFactors) bool { return f.MarketCapUSD >= 50_000 && f.MarketCapUSD < 100_000 }, 5},

	{"fresh_token", func(f domain.ConfluenceFactors) bool { return f.AgeMinutes < 10 }, 10},
	{"young_token", func(f domain.ConfluenceFactors) bool { return f.AgeMinutes >= 10 && f.AgeMinutes < 30 }, 5},

	{"strong_buy_pressure", func(f domain.ConfluenceFactors) bool { return f.BuyRatioPct >= 80 }, 10},
	{"buy_pressure", func(f domain.ConfluenceFactors) bool { return f.BuyRatioPct >= 70 && f.BuyRatioPct < 80 }, 5},

	// Penalties.
	{"single_source", func(f domain.ConfluenceFactors) bool { return f.SourceCount == 1 }, -10},
	{"stale_token", func(f domain.ConfluenceFactors) bool { return f.AgeMinutes > 120 }, -10},
	{"aging_token", func(f domain.ConfluenceFactors) bool { return f.AgeMinutes > 60 && f.AgeMinutes <= 120 }, -5},
	{"large_cap", func(f domain.ConfluenceFactors) bool { return f.MarketCapUSD > 1_000_000 }, -15},
	{"mid_cap", func(f domain.ConfluenceFactors) bool { return f.MarketCapUSD > 500_000 && f.MarketCapUSD <= 1_000_000 }, -10},
	{"heavy_sell_pressure", func(f domain.ConfluenceFactors) bool { return f.BuyRatioPct < 50 }, -15},
	{"sell_pressure", func(f domain.ConfluenceFactors) bool { return f.BuyRatioPct >= 50 && f.BuyRatioPct < 60 }, -5},
}

// AdjustedScore applies the rule table to a base score and clamps the result
// to [0, 100]. Deterministic, no side effects.
func AdjustedScore(base int, f domain.ConfluenceFactors) int {
	total := base
	for _, r := range rules {
		if r.applies(f) {
			total += r.delta
		}
	}
	return clampScore(total)
}

// RuleBreakdown returns the deltas of all rules that fired, in table order.
func RuleBreakdown(f domain.ConfluenceFactors) []RuleDelta {
	var fired []RuleDelta
	for _, r := range rules {
		if r.applies(f) {
			fired = append(fired, RuleDelta{Name: r.name, Delta: r.delta})
		}
	}
	return fired
}

// clampScore bounds a score to [0, 100] and rounds fractional inputs in the
// float-based path below.
func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// AdjustedScoreFloat is AdjustedScore for callers holding a fractional base
// score; the result is rounded to the nearest integer before clamping.
func AdjustedScoreFloat(base float64, f domain.ConfluenceFactors) int {
	delta := 0
	for _, r := range rules {
		if r.applies(f) {
			delta += r.delta
		}
	}
	return clampScore(int(math.Round(base + float64(delta))))
}
