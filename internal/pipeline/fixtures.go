package pipeline

import (
	"context"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/idhash"
	"signal-oracle-lab/internal/storage"
)

// FixtureStart is the event time of the first fixture signal,
// 2024-01-01 00:00:00 UTC.
const FixtureStart = int64(1704067200000)

// FixtureEnd bounds the fixture timeline.
const FixtureEnd = FixtureStart + 30*60*1000

// LoadFixtures seeds the signal store with a small deterministic timeline
// for demo runs: one token that take-profits, one that stop-losses, one
// carried to end of data, plus a repeat signal the deduplicator drops.
func LoadFixtures(ctx context.Context, signalStore storage.SignalStore) error {
	for _, sig := range fixtureSignals() {
		if err := signalStore.Insert(ctx, sig); err != nil {
			return err
		}
	}
	return nil
}

func fixtureSignals() []*domain.Signal {
	const (
		mintAlpha = "So11111111111111111111111111111111111111112"
		mintBeta  = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
		mintGamma = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	)

	signals := []*domain.Signal{
		// ALPHA: fresh micro cap with elite wallet plus volume spike,
		// adjusts to 88. Entry at 0.000050.
		fixtureSignal(mintAlpha, "ALPHA", FixtureStart, 20, domain.RiskMedium,
			[]domain.SourceContribution{
				{Source: domain.SourceEliteWallet, Weight: 0.6, RawScore: 85},
				{Source: domain.SourceVolumeSpike, Weight: 0.4, RawScore: 70},
			},
			domain.MarketSnapshot{PriceUSD: 0.000050, MarketCapUSD: 48_000, AgeMinutes: 6, BuyRatioPct: 82},
		),
		// Repeat two minutes later at 83: inside the window without a big
		// enough improvement, so the deduplicator drops it.
		fixtureSignal(mintAlpha, "ALPHA", FixtureStart+2*60*1000, 20, domain.RiskMedium,
			[]domain.SourceContribution{
				{Source: domain.SourceEliteWallet, Weight: 0.6, RawScore: 85},
				{Source: domain.SourceVolumeSpike, Weight: 0.4, RawScore: 72},
			},
			domain.MarketSnapshot{PriceUSD: 0.000060, MarketCapUSD: 58_000, AgeMinutes: 8, BuyRatioPct: 80},
		),
		// Three-source repeat at 100 overrides suppression; its price more
		// than doubles the entry and take-profits the ALPHA position.
		fixtureSignal(mintAlpha, "ALPHA", FixtureStart+8*60*1000, 45, domain.RiskMedium,
			[]domain.SourceContribution{
				{Source: domain.SourceEliteWallet, Weight: 0.5, RawScore: 92},
				{Source: domain.SourceVolumeSpike, Weight: 0.3, RawScore: 85},
				{Source: domain.SourceKOLMention, Weight: 0.2, RawScore: 75},
			},
			domain.MarketSnapshot{PriceUSD: 0.000105, MarketCapUSD: 102_000, AgeMinutes: 14, BuyRatioPct: 84},
		),

		// BETA: single-source KOL call at 78. Entry at 0.000200.
		fixtureSignal(mintBeta, "BETA", FixtureStart+4*60*1000, 78, domain.RiskHigh,
			[]domain.SourceContribution{
				{Source: domain.SourceKOLMention, Weight: 1.0, RawScore: 78},
			},
			domain.MarketSnapshot{PriceUSD: 0.000200, MarketCapUSD: 195_000, AgeMinutes: 25, BuyRatioPct: 74},
		),
		// Sell-side volume spike at 88 clears the override bar; the 45%
		// drawdown stop-losses the BETA position.
		fixtureSignal(mintBeta, "BETA", FixtureStart+12*60*1000, 85, domain.RiskHigh,
			[]domain.SourceContribution{
				{Source: domain.SourceVolumeSpike, Weight: 0.7, RawScore: 88},
				{Source: domain.SourceSocialBuzz, Weight: 0.3, RawScore: 60},
			},
			domain.MarketSnapshot{PriceUSD: 0.000110, MarketCapUSD: 108_000, AgeMinutes: 33, BuyRatioPct: 55},
		),

		// GAMMA: sniper plus strong narrative at 70. Entry at 0.000080.
		fixtureSignal(mintGamma, "GAMMA", FixtureStart+20*60*1000, 52, domain.RiskLow,
			[]domain.SourceContribution{
				{Source: domain.SourceSniperWallet, Weight: 0.5, RawScore: 70},
				{Source: domain.SourceNarrative, Weight: 0.5, RawScore: 85},
			},
			domain.MarketSnapshot{PriceUSD: 0.000080, MarketCapUSD: 150_000, AgeMinutes: 40, BuyRatioPct: 65},
		),
		// Drift-up repeat at 80, just enough to override. GAMMA is carried
		// to end of data at a small gain.
		fixtureSignal(mintGamma, "GAMMA", FixtureStart+26*60*1000, 57, domain.RiskLow,
			[]domain.SourceContribution{
				{Source: domain.SourceVolumeSpike, Weight: 0.5, RawScore: 60},
				{Source: domain.SourceNarrative, Weight: 0.5, RawScore: 82},
			},
			domain.MarketSnapshot{PriceUSD: 0.000086, MarketCapUSD: 158_000, AgeMinutes: 46, BuyRatioPct: 72},
		),
	}

	return signals
}

func fixtureSignal(
	token, symbol string,
	ts int64,
	score int,
	risk domain.RiskLevel,
	sources []domain.SourceContribution,
	market domain.MarketSnapshot,
) *domain.Signal {
	return &domain.Signal{
		ID:        idhash.ComputeSignalID(token, ts, sources[0].Source),
		Token:     token,
		Symbol:    symbol,
		Timestamp: ts,
		Score:     score,
		RiskLevel: risk,
		Sources:   sources,
		Market:    market,
	}
}
