// Package monitor implements the per-position supervision state machine:
// stop loss, partial take profit with trailing-stop handoff, and
// momentum-reversal exits.
package monitor

import (
	"fmt"
	"time"

	"solhelm/internal/analysis"
	"solhelm/internal/logger"
	"solhelm/internal/types"
)

// ExitKind labels which rule produced a sell decision.
type ExitKind string

const (
	ExitStopLoss          ExitKind = "stop_loss"
	ExitTakeProfitPartial ExitKind = "take_profit_partial"
	ExitTrailingStop      ExitKind = "trailing_stop"
	ExitMomentum          ExitKind = "momentum_exit"

	// ExitRiskReduction tags forced liquidations planned by the portfolio
	// risk manager; the monitor never emits it on its own.
	ExitRiskReduction ExitKind = "risk_reduction"
)

// SellDecision is one exit emitted by a monitoring tick. Terminal means the
// position (or the tracked trailing remainder) is fully closed by it.
type SellDecision struct {
	Asset    string
	Symbol   string
	Amount   float64
	Kind     ExitKind
	Reason   string
	Terminal bool
}

// Config holds the exit thresholds. TrailingPct is the percent the trailing
// stop follows below the highest seen price after a partial take profit.
type Config struct {
	StopLossPct   float64 // fraction below entry
	TakeProfitPct float64 // fraction above entry
	TrailingPct   float64 // percent, e.g. 5
}

// Monitor evaluates open positions tick by tick. It owns each Position while
// open; the only cross-tick shared state is the pending-sell book.
type Monitor struct {
	cfg     Config
	store   TrailingStore
	pending *PendingBook
	nowFn   func() time.Time
}

func New(cfg Config, store TrailingStore, pending *PendingBook) *Monitor {
	if cfg.TrailingPct <= 0 {
		cfg.TrailingPct = 5
	}
	return &Monitor{cfg: cfg, store: store, pending: pending, nowFn: time.Now}
}

// Pending exposes the shared pending-sell book for the risk reducer.
func (m *Monitor) Pending() *PendingBook { return m.pending }

// Tick runs one evaluation of the position state machine. The checks are
// strictly ordered and mutually exclusive per tick: stop loss, then take
// profit, then momentum; the first match wins. A nil decision means hold.
// Errors are reported, never raised past the caller's logging: one
// position's failure must not stop the monitoring of others.
func (m *Monitor) Tick(pos types.Position, price float64, tech *analysis.Snapshot) (*SellDecision, error) {
	if price <= 0 {
		return nil, fmt.Errorf("monitor %s: non-positive price %v", pos.TokenAddress, price)
	}
	balance := pos.Amount - m.pending.Pending(pos.TokenAddress)
	if balance <= 0 {
		// Closed externally or a sell is already in flight.
		return nil, nil
	}

	// A position already in the trailing sub-state is tracked by
	// TickTrailing; the entry-anchored rules no longer apply to it.
	if _, exists, err := m.store.LoadTrailingStop(pos.TokenAddress); err != nil {
		return nil, fmt.Errorf("monitor %s: loading trailing state: %w", pos.TokenAddress, err)
	} else if exists {
		return m.TickTrailing(pos.TokenAddress, price)
	}

	entry := pos.BuyPrice
	if entry <= 0 {
		return nil, fmt.Errorf("monitor %s: missing entry price", pos.TokenAddress)
	}

	stopLossPrice := entry * (1 - m.cfg.StopLossPct)
	if price <= stopLossPrice {
		return &SellDecision{
			Asset:    pos.TokenAddress,
			Symbol:   pos.Symbol,
			Amount:   balance,
			Kind:     ExitStopLoss,
			Reason:   fmt.Sprintf("stop loss: price %.8f <= %.8f", price, stopLossPrice),
			Terminal: true,
		}, nil
	}

	takeProfitPrice := entry * (1 + m.cfg.TakeProfitPct)
	if price >= takeProfitPrice {
		half := balance / 2
		remainder := balance - half
		ts := TrailingStop{
			Asset:        pos.TokenAddress,
			Symbol:       pos.Symbol,
			Amount:       remainder,
			HighestPrice: price,
			TrailPct:     m.cfg.TrailingPct,
			StartedAt:    m.nowFn(),
		}
		if err := m.store.SaveTrailingStop(ts); err != nil {
			return nil, fmt.Errorf("monitor %s: saving trailing state: %w", pos.TokenAddress, err)
		}
		logger.Infof("monitor %s: partial take profit at %.8f, trailing %.1f%% from %.8f on %.6f remaining",
			pos.TokenAddress, price, m.cfg.TrailingPct, price, remainder)
		// Momentum is deliberately not evaluated on the same tick.
		return &SellDecision{
			Asset:  pos.TokenAddress,
			Symbol: pos.Symbol,
			Amount: half,
			Kind:   ExitTakeProfitPartial,
			Reason: fmt.Sprintf("partial take profit: price %.8f >= %.8f", price, takeProfitPrice),
		}, nil
	}

	if price > entry && tech != nil &&
		tech.MACD.Histogram < 0 && tech.MACD.Value < tech.MACD.Signal {
		return &SellDecision{
			Asset:  pos.TokenAddress,
			Symbol: pos.Symbol,
			Amount: balance * 0.75,
			Kind:   ExitMomentum,
			Reason: "negative momentum while in profit",
		}, nil
	}

	return nil, nil
}

// TickTrailing advances the trailing-stop sub-state for asset: the anchor
// ratchets to the highest observed price, and a touch at or below
// anchor x (1 - trail%) exits the tracked remainder.
func (m *Monitor) TickTrailing(asset string, price float64) (*SellDecision, error) {
	ts, ok, err := m.store.LoadTrailingStop(asset)
	if err != nil {
		return nil, fmt.Errorf("monitor %s: loading trailing state: %w", asset, err)
	}
	if !ok {
		return nil, nil
	}
	if price > ts.HighestPrice {
		ts.HighestPrice = price
		if err := m.store.SaveTrailingStop(ts); err != nil {
			return nil, fmt.Errorf("monitor %s: saving trailing state: %w", asset, err)
		}
	}
	stop := ts.stopPrice()
	if price > stop {
		return nil, nil
	}
	if err := m.store.DeleteTrailingStop(asset); err != nil {
		return nil, fmt.Errorf("monitor %s: clearing trailing state: %w", asset, err)
	}
	return &SellDecision{
		Asset:    asset,
		Symbol:   ts.Symbol,
		Amount:   ts.Amount,
		Kind:     ExitTrailingStop,
		Reason:   fmt.Sprintf("trailing stop: price %.8f <= %.8f (high %.8f)", price, stop, ts.HighestPrice),
		Terminal: true,
	}, nil
}
