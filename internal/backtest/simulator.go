// Package backtest replays a historical signal sequence through a
// deterministic portfolio simulator and produces a trade ledger, equity
// curve, and aggregate metrics.
package backtest

import (
	"context"
	"fmt"
	"sort"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/idhash"
	"signal-oracle-lab/internal/metrics"
)

// assumedSupply is the fixed token supply used to derive a price proxy from
// market cap when the snapshot carries no quote. Standard pump.fun-style
// launches mint 1B tokens.
const assumedSupply = 1e9

// Simulator runs one deterministic single-pass replay. It exclusively owns
// the capital, open-position map, and ledgers for the duration of a run;
// create a new Simulator per run.
type Simulator struct {
	cfg        domain.BacktestConfig
	tokenAllow map[string]struct{} // nil means no allowlist

	capital   float64
	open      map[string]*domain.Position
	lastPrice map[string]float64
	trades    []domain.Trade
	equity    []domain.EquityPoint
	warnings  []domain.SignalWarning
}

// NewSimulator validates the config and prepares a simulator. A
// *domain.ConfigError is returned before any signal is processed.
func NewSimulator(cfg domain.BacktestConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:       cfg,
		capital:   cfg.InitialCapitalUSD,
		open:      make(map[string]*domain.Position),
		lastPrice: make(map[string]float64),
	}
	if len(cfg.Tokens) > 0 {
		s.tokenAllow = make(map[string]struct{}, len(cfg.Tokens))
		for _, tok := range cfg.Tokens {
			s.tokenAllow[tok] = struct{}{}
		}
	}
	return s, nil
}

// Run replays the signals and returns the full result. The input slice is
// not modified; signals are copied and stably sorted by timestamp before
// processing, so callers need not pre-sort. ctx is checked between signals.
func (s *Simulator) Run(ctx context.Context, signals []*domain.Signal) (*domain.BacktestResult, error) {
	ordered := make([]*domain.Signal, len(signals))
	copy(ordered, signals)
	SortSignals(ordered)

	for _, sig := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.step(sig)
	}

	s.closeRemaining(ordered)

	result := &domain.BacktestResult{
		RunID:           s.runID(ordered),
		Config:          s.cfg,
		Trades:          s.trades,
		EquityCurve:     s.equity,
		Metrics:         metrics.Compute(s.trades),
		FinalCapitalUSD: s.capital,
		Warnings:        s.warnings,
		SignalsReplayed: len(ordered),
	}
	return result, nil
}

// step processes one signal: it is first a price observation for any open
// position on its token, then an entry candidate. A signal whose price
// closes the token's position does not also re-enter on the same tick.
func (s *Simulator) step(sig *domain.Signal) {
	price := observedPrice(sig)
	if price > 0 {
		s.lastPrice[sig.Token] = price
	}

	if pos, held := s.open[sig.Token]; held {
		if price > 0 {
			s.checkExit(pos, price, sig.Timestamp)
		}
		return
	}

	s.considerEntry(sig, price)
}

// checkExit runs exactly one exit-trigger evaluation for an open position.
// Take-profit is evaluated before stop-loss; a tick that triggers neither
// still refreshes ATH tracking.
func (s *Simulator) checkExit(pos *domain.Position, price float64, ts int64) {
	if price > pos.ATHPrice {
		pos.ATHPrice = price
		pos.ATHPnlPct = (price - pos.EntryPrice) / pos.EntryPrice * 100
	}

	takeProfit := pos.EntryPrice * (1 + s.cfg.TakeProfitPct/100)
	stopLoss := pos.EntryPrice * (1 - s.cfg.StopLossPct/100)

	switch {
	case price >= takeProfit:
		s.closePosition(pos, price, ts, domain.ExitReasonTakeProfit)
	case price <= stopLoss:
		s.closePosition(pos, price, ts, domain.ExitReasonStopLoss)
	}
}

// considerEntry opens a position when the signal qualifies and a slot is
// free. Skipped signals are not queued.
func (s *Simulator) considerEntry(sig *domain.Signal, price float64) {
	if sig.Score < s.cfg.MinScore {
		return
	}
	if s.tokenAllow != nil {
		if _, ok := s.tokenAllow[sig.Token]; !ok {
			return
		}
	}
	if s.cfg.MaxRiskLevel != "" && !sig.RiskLevel.AtMost(s.cfg.MaxRiskLevel) {
		return
	}

	if price <= 0 {
		s.warnings = append(s.warnings, domain.SignalWarning{
			SignalID: sig.ID,
			Token:    sig.Token,
			Reason:   "no price or market cap available for entry pricing",
		})
		return
	}

	if len(s.open) >= s.cfg.MaxPositions {
		return
	}

	invested := s.capital * s.cfg.PositionSizePct / 100
	if invested <= 0 {
		return
	}

	pos := &domain.Position{
		Token:       sig.Token,
		Symbol:      sig.Symbol,
		SignalID:    sig.ID,
		SignalScore: sig.Score,
		EntryPrice:  price,
		EntryTime:   sig.Timestamp,
		Quantity:    invested / price,
		InvestedUSD: invested,
		Status:      domain.PositionOpen,
		ATHPrice:    price,
	}

	s.capital -= invested
	s.open[sig.Token] = pos
	s.recordEquity(sig.Timestamp)
}

// closePosition finalizes an open position exactly once, credits capital,
// appends the trade, and records an equity point.
func (s *Simulator) closePosition(pos *domain.Position, exitPrice float64, ts int64, reason string) {
	if pos.Status != domain.PositionOpen {
		panic(fmt.Sprintf("backtest: double close of position %s", pos.Token))
	}

	pos.Status = domain.PositionClosed
	pos.RealizedPnl = (exitPrice - pos.EntryPrice) * pos.Quantity

	s.capital += pos.InvestedUSD + pos.RealizedPnl
	delete(s.open, pos.Token)

	trade := domain.Trade{
		TradeID:     idhash.ComputeTradeID(pos.Token, pos.EntryTime, ts, pos.SignalID),
		Token:       pos.Token,
		Symbol:      pos.Symbol,
		SignalID:    pos.SignalID,
		SignalScore: pos.SignalScore,
		EntryPrice:  pos.EntryPrice,
		EntryTime:   pos.EntryTime,
		ExitPrice:   exitPrice,
		ExitTime:    ts,
		ExitReason:  reason,
		Quantity:    pos.Quantity,
		InvestedUSD: pos.InvestedUSD,
		PnlUSD:      pos.RealizedPnl,
		PnlPct:      (exitPrice - pos.EntryPrice) / pos.EntryPrice * 100,
		ATHPrice:    pos.ATHPrice,
		ATHPnlPct:   pos.ATHPnlPct,
		Outcome:     domain.ClassifyOutcome(pos.RealizedPnl),
	}

	s.trades = append(s.trades, trade)
	s.recordEquity(ts)
}

// closeRemaining exits positions still open at the simulation horizon at
// each token's last observed price. Iteration is ordered by entry time then
// token so the tail of the equity curve is deterministic.
func (s *Simulator) closeRemaining(ordered []*domain.Signal) {
	if len(s.open) == 0 {
		return
	}

	horizon := int64(0)
	if len(ordered) > 0 {
		horizon = ordered[len(ordered)-1].Timestamp
	}

	remaining := make([]*domain.Position, 0, len(s.open))
	for _, pos := range s.open {
		remaining = append(remaining, pos)
	}
	sort.Slice(remaining, func(i, j int) bool {
		if remaining[i].EntryTime != remaining[j].EntryTime {
			return remaining[i].EntryTime < remaining[j].EntryTime
		}
		return remaining[i].Token < remaining[j].Token
	})

	for _, pos := range remaining {
		exitPrice := s.lastPrice[pos.Token]
		if exitPrice <= 0 {
			exitPrice = pos.EntryPrice
		}
		s.closePosition(pos, exitPrice, horizon, domain.ExitReasonEndOfData)
	}
}

// recordEquity appends one (timestamp, capital) sample. Capital is the
// free cash balance: it dips by the invested amount on entry and recovers
// invested plus realized PnL on exit.
func (s *Simulator) recordEquity(ts int64) {
	s.equity = append(s.equity, domain.EquityPoint{Timestamp: ts, CapitalUSD: s.capital})
}

// runID derives the deterministic run identifier from the replay range and
// config fingerprint.
func (s *Simulator) runID(ordered []*domain.Signal) string {
	var first, last int64
	if len(ordered) > 0 {
		first = ordered[0].Timestamp
		last = ordered[len(ordered)-1].Timestamp
	}
	return idhash.ComputeRunID(first, last, len(ordered), s.configFingerprint())
}

// configFingerprint serializes the config fields that affect replay output.
func (s *Simulator) configFingerprint() string {
	return fmt.Sprintf("cap=%.4f|size=%.4f|tp=%.4f|sl=%.4f|min=%d|max=%d|tokens=%d|risk=%s",
		s.cfg.InitialCapitalUSD,
		s.cfg.PositionSizePct,
		s.cfg.TakeProfitPct,
		s.cfg.StopLossPct,
		s.cfg.MinScore,
		s.cfg.MaxPositions,
		len(s.cfg.Tokens),
		s.cfg.MaxRiskLevel,
	)
}

// observedPrice resolves a signal's price observation: the snapshot quote
// when present, otherwise a proxy derived from market cap over the assumed
// launch supply. Returns 0 when neither field is usable.
func observedPrice(sig *domain.Signal) float64 {
	if sig.Market.PriceUSD > 0 {
		return sig.Market.PriceUSD
	}
	if sig.Market.MarketCapUSD > 0 {
		return sig.Market.MarketCapUSD / assumedSupply
	}
	return 0
}

// Run is a convenience wrapper: validate config, build a simulator, replay.
func Run(ctx context.Context, signals []*domain.Signal, cfg domain.BacktestConfig) (*domain.BacktestResult, error) {
	sim, err := NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	return sim.Run(ctx, signals)
}
