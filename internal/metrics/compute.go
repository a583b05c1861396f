// Package metrics derives aggregate statistics from a backtest trade ledger.
package metrics

import (
	"math"

	"signal-oracle-lab/internal/domain"
)

// Compute calculates all ledger metrics. Pure, no side effects.
// Trades must be in chronological order (the simulator appends them that
// way); streak metrics depend on it.
func Compute(trades []domain.Trade) domain.Metrics {
	n := len(trades)
	if n == 0 {
		return domain.Metrics{}
	}

	m := domain.Metrics{TotalTrades: n}

	var grossProfit, grossLoss, pnlPctSum float64
	for i := range trades {
		t := &trades[i]
		pnlPctSum += t.PnlPct

		switch t.Outcome {
		case domain.OutcomeWin:
			m.WinningTrades++
			grossProfit += t.PnlUSD
		case domain.OutcomeLoss:
			m.LosingTrades++
			grossLoss += t.PnlUSD
		default:
			m.BreakevenTrades++
		}

		if m.BestTrade == nil || t.PnlPct > m.BestTrade.PnlPct {
			m.BestTrade = t
		}
		if m.WorstTrade == nil || t.PnlPct < m.WorstTrade.PnlPct {
			m.WorstTrade = t
		}
	}

	m.WinRatePct = float64(m.WinningTrades) / float64(n) * 100
	m.AvgPnlPct = pnlPctSum / float64(n)
	m.ProfitFactor = computeProfitFactor(grossProfit, grossLoss, m.WinningTrades, m.LosingTrades)

	m.CurrentWinStreak, m.CurrentLossStreak, m.MaxWinStreak, m.MaxLossStreak = computeStreaks(trades)

	return m
}

// computeProfitFactor returns gross profit over absolute gross loss.
// No losses with at least one win yields the +Inf sentinel; no trades on
// either side yields 0.
func computeProfitFactor(grossProfit, grossLoss float64, wins, losses int) float64 {
	if losses == 0 {
		if wins > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / math.Abs(grossLoss)
}

// computeStreaks scans the ledger in chronological order. Any outcome flip
// resets the opposite counter; breakeven trades reset both.
func computeStreaks(trades []domain.Trade) (curWin, curLoss, maxWin, maxLoss int) {
	for i := range trades {
		switch trades[i].Outcome {
		case domain.OutcomeWin:
			curWin++
			curLoss = 0
			if curWin > maxWin {
				maxWin = curWin
			}
		case domain.OutcomeLoss:
			curLoss++
			curWin = 0
			if curLoss > maxLoss {
				maxLoss = curLoss
			}
		default:
			curWin = 0
			curLoss = 0
		}
	}
	return curWin, curLoss, maxWin, maxLoss
}
