package engine

import (
	"context"
	"fmt"
	"math"

	"solhelm/internal/logger"
	"solhelm/internal/monitor"
	"solhelm/internal/types"
)

const tradeHistoryWindow = 500

// TickPerformance runs one portfolio evaluation: restate holdings at current
// prices, advance the high-water mark, and force risk reduction past the
// drawdown limit. It also hosts the daily slippage recalibration since both
// feed off the same trade history.
func (e *Engine) TickPerformance(ctx context.Context) {
	defer e.markCycle()

	status, prices := e.portfolioStatus(ctx)
	drawdown, err := e.pm.Evaluate(&status)
	if err != nil {
		logger.Warnf("engine: performance evaluation: %v", err)
		return
	}
	e.mu.Lock()
	e.drawdown = drawdown
	e.mu.Unlock()
	e.deps.Metrics.Drawdown.Set(drawdown)

	if e.pm.Exceeded(drawdown) {
		logger.Warnf("engine: drawdown %.1f%% exceeds limit, starting risk reduction", drawdown*100)
		e.reduceRisk(ctx, status, prices)
	}

	e.recalibrateSlippage()
	_ = e.deps.Notifier.SendText(fmt.Sprintf(
		"heartbeat: value=%.4f drawdown=%.2f%% positions=%d",
		status.TotalValue, drawdown*100, len(status.Positions)))
}

// portfolioStatus restates every holding at current prices. Assets without a
// price this cycle are carried at zero value rather than stalling the
// evaluation.
func (e *Engine) portfolioStatus(ctx context.Context) (types.PortfolioStatus, map[string]float64) {
	e.mu.RLock()
	open := make([]types.Position, 0, len(e.positions))
	for _, p := range e.positions {
		open = append(open, p)
	}
	balance := e.nativeBalance
	e.mu.RUnlock()

	status := types.PortfolioStatus{
		Positions:  make(map[string]types.PositionValue, len(open)),
		SolBalance: balance,
		TotalValue: balance,
	}
	prices := make(map[string]float64, len(open))
	for _, pos := range open {
		pd, err := e.priceData(ctx, pos.TokenAddress)
		if err != nil {
			logger.Warnf("engine: valuing %s: %v", pos.Symbol, err)
			status.Positions[pos.TokenAddress] = types.PositionValue{Amount: pos.Amount}
			continue
		}
		value := pos.Amount * pd.Price
		status.Positions[pos.TokenAddress] = types.PositionValue{Amount: pos.Amount, Value: value}
		status.TotalValue += value
		prices[pos.TokenAddress] = pd.Price
	}
	return status, prices
}

// reduceRisk liquidates worst performers until the projected drawdown is
// back inside the target. Forced exits ignore the paused flag.
func (e *Engine) reduceRisk(ctx context.Context, status types.PortfolioStatus, prices map[string]float64) {
	records, err := e.deps.Store.RecentTrades(tradeHistoryWindow)
	if err != nil {
		logger.Warnf("engine: loading trade history for risk reduction: %v", err)
	}
	plan := e.pm.ReductionPlan(status, prices, records)
	if len(plan) == 0 {
		return
	}
	for _, liq := range plan {
		e.mu.RLock()
		pos, ok := e.positions[liq.Asset]
		e.mu.RUnlock()
		if !ok {
			continue
		}
		// An exit already in flight for this asset holds part of the balance
		// in the pending book; sell only what is left or another trigger and
		// this one would liquidate the same tokens twice.
		avail := pos.Amount - e.mon.Pending().Pending(liq.Asset)
		if avail <= 0 {
			logger.Infof("engine: risk reduction skipping %s, balance already pending sale", pos.Symbol)
			continue
		}
		amount := math.Min(liq.Amount, avail)
		pd, err := e.priceData(ctx, liq.Asset)
		if err != nil {
			logger.Warnf("engine: risk reduction skipping %s: %v", pos.Symbol, err)
			continue
		}
		e.submitSell(ctx, monitor.SellDecision{
			Asset:    liq.Asset,
			Symbol:   pos.Symbol,
			Amount:   amount,
			Kind:     monitor.ExitRiskReduction,
			Reason:   fmt.Sprintf("forced risk reduction: performance %.1f%%", liq.Performance*100),
			// A clamped sell leaves the pending remainder to the exit that
			// holds it, so only a full liquidation closes the position.
			Terminal: amount >= pos.Amount,
		}, pd)
	}
}

// recalibrateSlippage retunes the model from execution efficiency at most
// once per day and persists the tuned settings.
func (e *Engine) recalibrateSlippage() {
	records, err := e.deps.Store.RecentTrades(tradeHistoryWindow)
	if err != nil {
		logger.Warnf("engine: loading trade history for recalibration: %v", err)
		return
	}
	if !e.slip.Recalibrate(records) {
		return
	}
	if err := e.deps.Store.SaveSlippageSettings(e.slip.Snapshot()); err != nil {
		logger.Warnf("engine: persisting slippage settings: %v", err)
	}
}
