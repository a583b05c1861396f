package scoring

import "signal-oracle-lab/internal/domain"

// ConfidenceLevel labels for notification and report formatting.
const (
	ConfidenceVeryHigh = "VERY HIGH"
	ConfidenceHigh     = "HIGH"
	ConfidenceModerate = "MODERATE"
	ConfidenceLow      = "LOW"
	ConfidenceVeryLow  = "VERY LOW"
)

// ConfidenceLevel maps an adjusted score to its confidence band.
func ConfidenceLevel(score int) string {
	switch {
	case score >= 85:
		return ConfidenceVeryHigh
	case score >= 70:
		return ConfidenceHigh
	case score >= 55:
		return ConfidenceModerate
	case score >= 40:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// RecommendedAction derives a human-readable action label from score and
// risk level. Used only for reporting, never for simulation control.
func RecommendedAction(score int, risk domain.RiskLevel) string {
	if risk == domain.RiskExtreme {
		return "AVOID - extreme risk"
	}

	switch {
	case score >= 85:
		if risk == domain.RiskHigh {
			return "SMALL ENTRY - strong signal, elevated risk"
		}
		return "ENTER - strong confluence"
	case score >= 70:
		if risk == domain.RiskHigh {
			return "WATCH - wait for risk to cool off"
		}
		return "ENTER SMALL - good confluence"
	case score >= 55:
		return "WATCH - moderate confluence"
	default:
		return "SKIP - weak signal"
	}
}
