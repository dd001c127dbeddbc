package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"solhelm/internal/analysis"
	"solhelm/internal/logger"
	"solhelm/internal/market"
	"solhelm/internal/monitor"
	"solhelm/internal/slippage"
	"solhelm/internal/store"
	"solhelm/internal/types"
)

const monitorConcurrency = 4

// MonitorPositions runs one supervision tick over every open position. Ticks
// fan out concurrently; one position's failure never stops the others, and
// exits run regardless of the paused flag.
func (e *Engine) MonitorPositions(ctx context.Context) {
	defer e.markCycle()

	e.mu.RLock()
	open := make([]types.Position, 0, len(e.positions))
	for _, p := range e.positions {
		open = append(open, p)
	}
	e.mu.RUnlock()
	if len(open) == 0 {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(monitorConcurrency)
	for _, pos := range open {
		pos := pos
		g.Go(func() error {
			e.monitorOne(ctx, pos)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) monitorOne(ctx context.Context, pos types.Position) {
	pd, err := e.priceData(ctx, pos.TokenAddress)
	if err != nil {
		logger.Warnf("engine: monitor %s: market data unavailable: %v", pos.Symbol, err)
		return
	}
	snap := analysis.Compute(pd.PriceHistory, pd.VolumeHistory)
	dec, err := e.mon.Tick(pos, pd.Price, &snap)
	if err != nil {
		logger.Warnf("engine: monitor %s: %v", pos.Symbol, err)
		return
	}
	if dec == nil {
		return
	}
	e.submitSell(ctx, *dec, pd)
}

// TickTrailingStops advances trailing sub-states between full monitoring
// cycles so a fast drawdown after a partial take profit is not missed.
func (e *Engine) TickTrailingStops(ctx context.Context) {
	e.mu.RLock()
	open := make([]types.Position, 0, len(e.positions))
	for _, p := range e.positions {
		open = append(open, p)
	}
	e.mu.RUnlock()

	for _, pos := range open {
		pd, err := e.priceData(ctx, pos.TokenAddress)
		if err != nil {
			continue
		}
		dec, err := e.mon.TickTrailing(pos.TokenAddress, pd.Price)
		if err != nil {
			logger.Warnf("engine: trailing %s: %v", pos.Symbol, err)
			continue
		}
		if dec != nil {
			e.submitSell(ctx, *dec, pd)
		}
	}
}

// submitSell turns a sell decision into an executed intent. The pending book
// is acquired before submission and released on every path out.
func (e *Engine) submitSell(ctx context.Context, dec monitor.SellDecision, pd market.PriceData) {
	if dec.Amount <= 0 {
		logger.Warnf("engine: rejecting non-positive sell of %s: %v", dec.Symbol, dec.Amount)
		return
	}
	release := e.mon.Pending().Acquire(dec.Asset, dec.Amount)
	defer release()

	_, bps := e.slip.ComputeOrFallback(slippageInputForSell(dec.Amount, pd), nil)
	intent := types.OrderIntent{
		TraceID:     uuid.NewString(),
		Asset:       dec.Asset,
		Symbol:      dec.Symbol,
		Side:        types.Sell,
		Amount:      dec.Amount,
		SlippageBps: bps,
		Reason:      dec.Reason,
		EmittedAt:   time.Now(),
	}

	if e.deps.Executor == nil {
		logger.Warnf("engine: no executor wired, dropping SELL intent for %s", dec.Symbol)
		return
	}
	res, err := e.deps.Executor.Execute(ctx, intent)
	e.deps.Metrics.Decisions.WithLabelValues("sell").Inc()
	e.deps.Metrics.Exits.WithLabelValues(string(dec.Kind)).Inc()
	e.audit(store.DecisionEntry{
		TraceID: intent.TraceID,
		Action:  "sell",
		Asset:   dec.Asset,
		Symbol:  dec.Symbol,
		Amount:  dec.Amount,
		Reason:  fmt.Sprintf("%s: %s", dec.Kind, dec.Reason),
	})
	if err != nil {
		logger.Errorf("engine: sell execution failed for %s: %v", dec.Symbol, err)
		e.recordTrade(intent, market.ExecutionResult{}, pd.Price, false)
		return
	}
	e.recordTrade(intent, res, pd.Price, res.Success)
	if !res.Success {
		return
	}

	e.reducePosition(dec.Asset, res.ExecutedAmount, dec.Terminal)
	_ = e.deps.Notifier.SendText(fmt.Sprintf(
		"SELL %s amount=%.4f (%s)\n%s", dec.Symbol, res.ExecutedAmount, dec.Kind, dec.Reason))
}

// reducePosition applies a fill to the in-memory book and the store. A
// terminal exit or an emptied balance closes the position.
func (e *Engine) reducePosition(asset string, executed float64, terminal bool) {
	e.mu.Lock()
	pos, ok := e.positions[asset]
	var closed bool
	if ok {
		pos.Amount -= executed
		if terminal || pos.Amount <= 1e-9 {
			delete(e.positions, asset)
			closed = true
		} else {
			e.positions[asset] = pos
		}
		e.deps.Metrics.OpenPositions.Set(float64(len(e.positions)))
	}
	e.mu.Unlock()
	if !ok {
		return
	}
	if closed {
		if err := e.deps.Store.DeletePosition(asset); err != nil {
			logger.Warnf("engine: deleting position %s: %v", asset, err)
		}
		return
	}
	if err := e.deps.Store.SavePosition(pos); err != nil {
		logger.Warnf("engine: persisting position %s: %v", asset, err)
	}
}

func slippageInputForSell(amount float64, pd market.PriceData) slippage.Input {
	return slippage.Input{
		TradeValue: amount * pd.Price,
		Liquidity:  pd.LiquidityUSD,
		Volume24h:  pd.Volume24hUSD,
		MarketCap:  pd.MarketCap,
	}
}
