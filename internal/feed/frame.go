package feed

import (
	"encoding/json"
	"fmt"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/idhash"
)

// Wire format for signal frames pushed by the aggregator.

type signalFrame struct {
	Op   string     `json:"op"`
	Data *frameData `json:"data"`
}

type frameData struct {
	Token       string        `json:"token"`
	Symbol      string        `json:"symbol"`
	TimestampMs int64         `json:"timestamp_ms"`
	Score       int           `json:"score"`
	RiskLevel   string        `json:"risk_level"`
	Sources     []frameSource `json:"sources"`
	// Compact form used by frames relayed from the on-chain oracle,
	// which publishes sources as a bitmap. Ignored when Sources is set.
	SourcesBitmap uint8        `json:"sources_bitmap"`
	Market        *frameMarket `json:"market"`
}

type frameSource struct {
	Source   string  `json:"source"`
	Weight   float64 `json:"weight"`
	RawScore float64 `json:"raw_score"`
}

type frameMarket struct {
	PriceUSD         float64 `json:"price_usd"`
	MarketCapUSD     float64 `json:"market_cap_usd"`
	LiquidityUSD     float64 `json:"liquidity_usd"`
	Volume5mUSD      float64 `json:"volume_5m_usd"`
	Volume1hUSD      float64 `json:"volume_1h_usd"`
	PriceChange5mPct float64 `json:"price_change_5m_pct"`
	PriceChange1hPct float64 `json:"price_change_1h_pct"`
	AgeMinutes       float64 `json:"age_minutes"`
	BuyRatioPct      float64 `json:"buy_ratio_pct"`
}

// DecodeSignalFrame parses and validates one aggregator frame, returning
// the domain signal it carries. The signal id is derived deterministically
// so replays of the same frame produce the same signal.
func DecodeSignalFrame(message []byte) (*domain.Signal, error) {
	var frame signalFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return nil, fmt.Errorf("unmarshal signal frame: %w", err)
	}
	if frame.Op != "signal" {
		return nil, fmt.Errorf("unexpected frame op %q", frame.Op)
	}
	if frame.Data == nil {
		return nil, fmt.Errorf("signal frame missing data")
	}
	d := frame.Data

	if err := ValidateMint(d.Token); err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if d.TimestampMs <= 0 {
		return nil, fmt.Errorf("invalid timestamp %d", d.TimestampMs)
	}
	if d.Score < 0 || d.Score > 100 {
		return nil, fmt.Errorf("score %d out of range", d.Score)
	}
	risk := domain.RiskLevel(d.RiskLevel)
	if !risk.AtMost(domain.RiskExtreme) {
		return nil, fmt.Errorf("unknown risk level %q", d.RiskLevel)
	}
	if len(d.Sources) == 0 && d.SourcesBitmap != 0 {
		// The chain does not publish per-source weights, only the tags.
		for _, tag := range domain.DecodeSourcesBitmap(d.SourcesBitmap) {
			d.Sources = append(d.Sources, frameSource{Source: tag})
		}
	}
	if len(d.Sources) == 0 {
		return nil, fmt.Errorf("signal frame has no sources")
	}

	sources := make([]domain.SourceContribution, len(d.Sources))
	for i, src := range d.Sources {
		sources[i] = domain.SourceContribution{
			Source:   src.Source,
			Weight:   src.Weight,
			RawScore: src.RawScore,
		}
	}

	sig := &domain.Signal{
		ID:        idhash.ComputeSignalID(d.Token, d.TimestampMs, sources[0].Source),
		Token:     d.Token,
		Symbol:    d.Symbol,
		Timestamp: d.TimestampMs,
		Score:     d.Score,
		RiskLevel: risk,
		Sources:   sources,
	}
	if d.Market != nil {
		sig.Market = domain.MarketSnapshot{
			PriceUSD:         d.Market.PriceUSD,
			MarketCapUSD:     d.Market.MarketCapUSD,
			LiquidityUSD:     d.Market.LiquidityUSD,
			Volume5mUSD:      d.Market.Volume5mUSD,
			Volume1hUSD:      d.Market.Volume1hUSD,
			PriceChange5mPct: d.Market.PriceChange5mPct,
			PriceChange1hPct: d.Market.PriceChange1hPct,
			AgeMinutes:       d.Market.AgeMinutes,
			BuyRatioPct:      d.Market.BuyRatioPct,
		}
	}
	return sig, nil
}
