package domain

// RiskLevel classifies how risky a signal's token is considered upstream.
type RiskLevel string

// Risk level constants.
const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskExtreme RiskLevel = "EXTREME"
)

// riskRank orders risk levels from safest to riskiest for filter comparisons.
var riskRank = map[RiskLevel]int{
	RiskLow:     0,
	RiskMedium:  1,
	RiskHigh:    2,
	RiskExtreme: 3,
}

// AtMost reports whether r is at or below the given maximum risk level.
// Unknown levels are treated as riskier than EXTREME.
func (r RiskLevel) AtMost(max RiskLevel) bool {
	rr, ok := riskRank[r]
	if !ok {
		return false
	}
	mr, ok := riskRank[max]
	if !ok {
		return false
	}
	return rr <= mr
}

// Source tag constants for signal contributions.
// Values match the bit positions used in the on-chain sources bitmap.
const (
	SourceEliteWallet  = "ELITE_WALLET"
	SourceSniperWallet = "SNIPER_WALLET"
	SourceVolumeSpike  = "VOLUME_SPIKE"
	SourceKOLMention   = "KOL_MENTION"
	SourceNarrative    = "NARRATIVE"
	SourceSocialBuzz   = "SOCIAL_BUZZ"
)

// sourceBit maps a source tag to its bit in the compact bitmap form.
var sourceBit = map[string]uint8{
	SourceEliteWallet:  1 << 0,
	SourceSniperWallet: 1 << 1,
	SourceVolumeSpike:  1 << 2,
	SourceKOLMention:   1 << 3,
	SourceNarrative:    1 << 4,
	SourceSocialBuzz:   1 << 5,
}

// bitSource is the inverse of sourceBit, in bit order.
var bitSource = []string{
	SourceEliteWallet,
	SourceSniperWallet,
	SourceVolumeSpike,
	SourceKOLMention,
	SourceNarrative,
	SourceSocialBuzz,
}

// SourceContribution is one detector's vote on a signal.
type SourceContribution struct {
	Source   string  // source tag, see constants above
	Weight   float64 // contribution weight assigned upstream
	RawScore float64 // detector's raw score before confluence adjustment
}

// MarketSnapshot captures token market context at signal time.
// Optional fields use zero as "absent".
type MarketSnapshot struct {
	PriceUSD         float64 // token price, 0 when the aggregator had no quote
	MarketCapUSD     float64
	LiquidityUSD     float64
	Volume5mUSD      float64
	Volume1hUSD      float64
	PriceChange5mPct float64 // may be negative
	PriceChange1hPct float64 // may be negative
	AgeMinutes       float64 // token age at signal time
	BuyRatioPct      float64 // share of buys among 5m transactions, 0-100
}

// Signal is one observation about a token produced by the aggregation layer.
// Immutable once produced; the core never mutates it.
type Signal struct {
	ID        string // opaque identifier, see idhash.ComputeSignalID
	Token     string // token mint address (base58)
	Symbol    string
	Timestamp int64 // Unix timestamp in milliseconds (event time)
	Score     int   // base score 0-100 before confluence adjustment
	RiskLevel RiskLevel
	Sources   []SourceContribution // ordered as reported upstream
	Market    MarketSnapshot
}

// EncodeSourcesBitmap packs contribution tags into the uint8 bitmap form
// used by the on-chain oracle account. Unknown tags are dropped.
func EncodeSourcesBitmap(sources []SourceContribution) uint8 {
	var bm uint8
	for _, s := range sources {
		bm |= sourceBit[s.Source]
	}
	return bm
}

// DecodeSourcesBitmap expands a bitmap back into source tags, in bit order.
func DecodeSourcesBitmap(bm uint8) []string {
	var tags []string
	for i, tag := range bitSource {
		if bm&(1<<uint(i)) != 0 {
			tags = append(tags, tag)
		}
	}
	return tags
}
