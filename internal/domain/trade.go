package domain

// PositionStatus tracks the lifecycle of a simulated position.
type PositionStatus string

// Position status constants.
const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

// Exit reason codes for closed positions.
const (
	ExitReasonTakeProfit = "TAKE_PROFIT"
	ExitReasonStopLoss   = "STOP_LOSS"
	ExitReasonEndOfData  = "END_OF_DATA"
)

// Outcome classifies a closed trade for reporting.
type Outcome string

// Outcome constants.
const (
	OutcomeWin       Outcome = "WIN"
	OutcomeLoss      Outcome = "LOSS"
	OutcomeBreakeven Outcome = "BREAKEVEN"
)

// ClassifyOutcome maps realized PnL to an outcome class.
func ClassifyOutcome(pnl float64) Outcome {
	switch {
	case pnl > 0:
		return OutcomeWin
	case pnl < 0:
		return OutcomeLoss
	default:
		return OutcomeBreakeven
	}
}

// Position is a simulated holding for one token. Created on entry, mutated
// on each price observation while open, finalized exactly once on close.
type Position struct {
	Token       string
	Symbol      string
	SignalID    string // originating signal
	SignalScore int    // adjusted score that triggered entry
	EntryPrice  float64
	EntryTime   int64 // Unix ms
	Quantity    float64
	InvestedUSD float64
	Status      PositionStatus

	// ATH tracking, updated on every price observation while open.
	ATHPrice  float64
	ATHPnlPct float64

	// Set only when closed.
	RealizedPnl float64
}

// Trade is a closed position projected for reporting.
type Trade struct {
	TradeID     string // deterministic hash, see idhash.ComputeTradeID
	Token       string
	Symbol      string
	SignalID    string
	SignalScore int

	EntryPrice float64
	EntryTime  int64 // Unix ms
	ExitPrice  float64
	ExitTime   int64 // Unix ms
	ExitReason string

	Quantity    float64
	InvestedUSD float64
	PnlUSD      float64
	PnlPct      float64
	ATHPrice    float64
	ATHPnlPct   float64
	Outcome     Outcome
}

// RoiBps returns the trade's return in basis points (1 bps = 0.01%),
// the convention used by the on-chain oracle account. Guarded against a
// zero entry price.
func (t *Trade) RoiBps() int64 {
	if t.EntryPrice <= 0 {
		return 0
	}
	return int64(((t.ExitPrice - t.EntryPrice) / t.EntryPrice) * 10000)
}
