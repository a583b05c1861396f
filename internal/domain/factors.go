package domain

// ConfluenceFactors is the explicit projection of a Signal consumed by the
// confluence scorer. All numeric fields are finite and non-negative except
// the percentage-change derived ones.
type ConfluenceFactors struct {
	SourceCount       int
	HasEliteWallet    bool
	HasSniperWallet   bool
	HasVolumeSpike    bool
	HasKOLMention     bool
	NarrativeStrength float64 // 0-1
	MarketCapUSD      float64
	AgeMinutes        float64
	BuyRatioPct       float64 // 0-100
}

// FactorsFromSignal derives scorer input from a signal.
// NarrativeStrength comes from the NARRATIVE contribution's raw score
// normalized to 0-1; absent narrative source means strength 0.
func FactorsFromSignal(s *Signal) ConfluenceFactors {
	f := ConfluenceFactors{
		SourceCount:  len(s.Sources),
		MarketCapUSD: s.Market.MarketCapUSD,
		AgeMinutes:   s.Market.AgeMinutes,
		BuyRatioPct:  s.Market.BuyRatioPct,
	}

	for _, c := range s.Sources {
		switch c.Source {
		case SourceEliteWallet:
			f.HasEliteWallet = true
		case SourceSniperWallet:
			f.HasSniperWallet = true
		case SourceVolumeSpike:
			f.HasVolumeSpike = true
		case SourceKOLMention:
			f.HasKOLMention = true
		case SourceNarrative:
			strength := c.RawScore / 100
			if strength < 0 {
				strength = 0
			}
			if strength > 1 {
				strength = 1
			}
			f.NarrativeStrength = strength
		}
	}

	return f
}
