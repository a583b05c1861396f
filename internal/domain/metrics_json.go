package domain

import (
	"encoding/json"
	"math"
)

// metricsJSON is the wire form of Metrics, shared by report output and the
// run store's JSONB column. JSON cannot represent +Inf, so the all-wins
// ProfitFactor sentinel travels as -1.
type metricsJSON struct {
	TotalTrades       int     `json:"total_trades"`
	WinningTrades     int     `json:"winning_trades"`
	LosingTrades      int     `json:"losing_trades"`
	BreakevenTrades   int     `json:"breakeven_trades"`
	WinRatePct        float64 `json:"win_rate_pct"`
	ProfitFactor      float64 `json:"profit_factor"`
	AvgPnlPct         float64 `json:"avg_pnl_pct"`
	BestTrade         *Trade  `json:"best_trade,omitempty"`
	WorstTrade        *Trade  `json:"worst_trade,omitempty"`
	CurrentWinStreak  int     `json:"current_win_streak"`
	CurrentLossStreak int     `json:"current_loss_streak"`
	MaxWinStreak      int     `json:"max_win_streak"`
	MaxLossStreak     int     `json:"max_loss_streak"`
}

// MarshalJSON encodes an infinite ProfitFactor as -1.
func (m Metrics) MarshalJSON() ([]byte, error) {
	w := metricsJSON{
		TotalTrades:       m.TotalTrades,
		WinningTrades:     m.WinningTrades,
		LosingTrades:      m.LosingTrades,
		BreakevenTrades:   m.BreakevenTrades,
		WinRatePct:        m.WinRatePct,
		ProfitFactor:      m.ProfitFactor,
		AvgPnlPct:         m.AvgPnlPct,
		BestTrade:         m.BestTrade,
		WorstTrade:        m.WorstTrade,
		CurrentWinStreak:  m.CurrentWinStreak,
		CurrentLossStreak: m.CurrentLossStreak,
		MaxWinStreak:      m.MaxWinStreak,
		MaxLossStreak:     m.MaxLossStreak,
	}
	if math.IsInf(w.ProfitFactor, 1) {
		w.ProfitFactor = -1
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores the -1 sentinel back to +Inf.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	var w metricsJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Metrics{
		TotalTrades:       w.TotalTrades,
		WinningTrades:     w.WinningTrades,
		LosingTrades:      w.LosingTrades,
		BreakevenTrades:   w.BreakevenTrades,
		WinRatePct:        w.WinRatePct,
		ProfitFactor:      w.ProfitFactor,
		AvgPnlPct:         w.AvgPnlPct,
		BestTrade:         w.BestTrade,
		WorstTrade:        w.WorstTrade,
		CurrentWinStreak:  w.CurrentWinStreak,
		CurrentLossStreak: w.CurrentLossStreak,
		MaxWinStreak:      w.MaxWinStreak,
		MaxLossStreak:     w.MaxLossStreak,
	}
	if m.ProfitFactor == -1 {
		m.ProfitFactor = math.Inf(1)
	}
	return nil
}
