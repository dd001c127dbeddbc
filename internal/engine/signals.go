package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"solhelm/internal/analysis"
	"solhelm/internal/feeds"
	"solhelm/internal/logger"
	"solhelm/internal/market"
	"solhelm/internal/risk"
	"solhelm/internal/signal"
	"solhelm/internal/slippage"
	"solhelm/internal/store"
	"solhelm/internal/types"
)

// GenerateSignals runs one entry cycle: gather feeds, merge, score and rank,
// validate the top candidate, size, compute slippage, and hand the intent to
// the executor. The paused flag gates this cycle only.
func (e *Engine) GenerateSignals(ctx context.Context) {
	defer e.markCycle()

	paused, reason, err := e.brk.Paused()
	if err != nil {
		logger.Warnf("engine: pause check failed, skipping entries: %v", err)
		return
	}
	if paused {
		e.deps.Metrics.Decisions.WithLabelValues("hold").Inc()
		e.audit(store.DecisionEntry{
			TraceID: uuid.NewString(),
			Action:  "hold",
			Reason:  "trading paused: " + string(reason),
		})
		return
	}

	merged := signal.Merge(e.collectFeeds(ctx)...)
	if len(merged) == 0 {
		logger.Infof("engine: no raw signals this cycle")
	}

	// Enrich candidates with market data and technicals before scoring.
	for i := range merged {
		e.enrich(ctx, &merged[i])
	}

	nativePD, nativeErr := e.nativeMarket(ctx)

	e.mu.RLock()
	drawdown := e.drawdown
	condition := e.condition
	balance := e.nativeBalance
	e.mu.RUnlock()

	ranked := e.rank(merged)
	candidate, candReason := e.selectCandidate(ctx, ranked)
	traceID := uuid.NewString()

	if candidate == nil {
		// Fallback: the chain's native asset at a fixed conservative size.
		e.emitBuy(ctx, types.OrderIntent{
			TraceID:     traceID,
			Asset:       types.NativeAsset,
			Symbol:      types.NativeAssetSymbol,
			Side:        types.Buy,
			Amount:      e.cfg.Risk.FallbackTradeSOL,
			SlippageBps: e.fallbackSlippage(nativePD, nativeErr),
			Reason:      "fallback to native asset: " + candReason,
			EmittedAt:   time.Now(),
		}, nativePD.Price)
		return
	}

	sized := e.sizer.Size(risk.SizeInput{
		WalletBalance: balance,
		Drawdown:      drawdown,
		Score:         candidate.Score,
		Volatility:    candidateVolatility(candidate),
		Condition:     condition,
		Liquidity:     liquidityNative(candidate.Liquidity, nativePD.Price),
	})
	if sized.Amount <= 0 {
		e.deps.Metrics.Decisions.WithLabelValues("hold").Inc()
		e.audit(store.DecisionEntry{
			TraceID: traceID,
			Action:  "hold",
			Asset:   candidate.Address,
			Symbol:  candidate.Symbol,
			Reason:  "sized to zero: " + sized.Reason,
		})
		return
	}

	md, _ := e.tokenMetadata(ctx, candidate.Address)
	_, bps := e.slip.ComputeOrFallback(slippage.Input{
		TradeValue: sized.Amount,
		Liquidity:  liquidityNative(candidate.Liquidity, nativePD.Price),
		Volume24h:  candidate.Volume24h,
		MarketCap:  candidate.MarketCap,
		TaxPct:     md.TaxPercentage,
	}, nativeErr)

	e.emitBuy(ctx, types.OrderIntent{
		TraceID:     traceID,
		Asset:       candidate.Address,
		Symbol:      candidate.Symbol,
		Side:        types.Buy,
		Amount:      sized.Amount,
		SlippageBps: bps,
		Reason:      fmt.Sprintf("score %.1f: %s", candidate.Score, joinReasons(candidate.Reasons)),
		EmittedAt:   time.Now(),
	}, candidate.Price)
}

// collectFeeds fetches the configured feeds; a failed feed contributes
// nothing this cycle and is counted for the data-quality pass. A ranking
// feed flagged stale by the data-quality check is skipped outright so its
// market-cap and volume figures never reach scoring.
func (e *Engine) collectFeeds(ctx context.Context) [][]signal.TokenSignal {
	e.mu.RLock()
	rankValid := e.scorer.RankValid
	e.mu.RUnlock()

	sources := []feeds.SignalFeed{e.deps.Trending, e.deps.Social}
	if rankValid {
		sources = append(sources, e.deps.Ranking)
	} else if e.deps.Ranking != nil {
		logger.Infof("engine: ranking feed stale, excluding it from this cycle")
	}

	var batches [][]signal.TokenSignal
	for _, f := range sources {
		if f == nil {
			continue
		}
		batch, err := f.Fetch(ctx)
		if err != nil {
			e.deps.Metrics.FeedErrors.WithLabelValues(f.Name()).Inc()
			logger.Warnf("engine: %s feed failed: %v", f.Name(), err)
			continue
		}
		batches = append(batches, batch)
	}
	return batches
}

// enrich attaches technicals from price history. Missing market data leaves
// the candidate with neutral defaults rather than dropping it.
func (e *Engine) enrich(ctx context.Context, sig *signal.TokenSignal) {
	pd, err := e.priceData(ctx, sig.Address)
	if err != nil {
		logger.Debugf("engine: no market data for %s: %v", sig.Address, err)
		return
	}
	snap := analysis.Compute(pd.PriceHistory, pd.VolumeHistory)
	sig.Technical = &snap
	if sig.Price == 0 {
		sig.Price = pd.Price
	}
	if sig.Liquidity == 0 {
		sig.Liquidity = pd.LiquidityUSD
	}
	if sig.Volume24h == 0 {
		sig.Volume24h = pd.Volume24hUSD
	}
	if sig.MarketCap == 0 {
		sig.MarketCap = pd.MarketCap
	}
}

func (e *Engine) rank(merged []signal.TokenSignal) []signal.TokenSignal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scorer.Rank(merged)
}

// selectCandidate validates the top-ranked candidate's metadata. Only the
// best candidate is considered; a rejection yields nil with the reason for
// the fallback rather than trying the runner-up.
func (e *Engine) selectCandidate(ctx context.Context, ranked []signal.TokenSignal) (*signal.TokenSignal, string) {
	if len(ranked) == 0 {
		return nil, "no candidate above threshold"
	}
	top := ranked[0]
	md, err := e.tokenMetadata(ctx, top.Address)
	if err != nil {
		return nil, fmt.Sprintf("metadata lookup failed for %s", top.Symbol)
	}
	if !md.Verified {
		return nil, fmt.Sprintf("%s is not verified", top.Symbol)
	}
	if len(md.SuspiciousAttributes) > 0 {
		return nil, fmt.Sprintf("%s has suspicious attributes: %v", top.Symbol, md.SuspiciousAttributes)
	}
	if max := e.cfg.Risk.MaxOwnershipConcPct; max > 0 && md.OwnershipConcentration > max {
		return nil, fmt.Sprintf("%s top-holder concentration %.1f%% exceeds %.1f%%",
			top.Symbol, md.OwnershipConcentration, max)
	}
	return &top, ""
}

func (e *Engine) emitBuy(ctx context.Context, intent types.OrderIntent, price float64) {
	if e.deps.Executor == nil {
		logger.Warnf("engine: no executor wired, dropping %s intent for %s", intent.Side, intent.Symbol)
		return
	}
	// Route pre-flight: a token with no quotable route is not tradeable at
	// any slippage, so skip the execution attempt entirely.
	if e.deps.Quotes != nil && intent.Asset != types.NativeAsset {
		if _, err := market.Retry(ctx, e.retrier, "quote "+intent.Symbol, func(ctx context.Context) (market.Quote, error) {
			return e.deps.Quotes.GetQuote(ctx, types.NativeAsset, intent.Asset, intent.Amount, intent.SlippageBps)
		}); err != nil {
			logger.Warnf("engine: no route for %s, dropping buy: %v", intent.Symbol, err)
			e.deps.Metrics.Decisions.WithLabelValues("hold").Inc()
			e.audit(store.DecisionEntry{
				TraceID: intent.TraceID,
				Action:  "hold",
				Asset:   intent.Asset,
				Symbol:  intent.Symbol,
				Reason:  "no quotable route: " + err.Error(),
			})
			return
		}
	}
	res, err := e.deps.Executor.Execute(ctx, intent)
	e.deps.Metrics.Decisions.WithLabelValues("buy").Inc()
	e.audit(store.DecisionEntry{
		TraceID: intent.TraceID,
		Action:  "buy",
		Asset:   intent.Asset,
		Symbol:  intent.Symbol,
		Amount:  intent.Amount,
		Reason:  intent.Reason,
	})
	if err != nil {
		logger.Errorf("engine: buy execution failed for %s: %v", intent.Symbol, err)
		e.recordTrade(intent, market.ExecutionResult{}, price, false)
		return
	}
	e.recordTrade(intent, res, price, res.Success)
	if res.Success {
		e.openPosition(intent, res)
		_ = e.deps.Notifier.SendText(fmt.Sprintf(
			"BUY %s amount=%.4f slippage=%dbps\n%s", intent.Symbol, res.ExecutedAmount, intent.SlippageBps, intent.Reason))
	}
}

func (e *Engine) openPosition(intent types.OrderIntent, res market.ExecutionResult) {
	pos := types.Position{
		TokenAddress: intent.Asset,
		Symbol:       intent.Symbol,
		Amount:       res.ExecutedAmount,
		BuyPrice:     res.ExecutedPrice,
		BuyTimestamp: time.Now(),
	}
	e.mu.Lock()
	if existing, ok := e.positions[intent.Asset]; ok {
		// Averaging in: merge amounts and recompute the entry price.
		total := existing.Amount + pos.Amount
		if total > 0 {
			pos.BuyPrice = (existing.Amount*existing.BuyPrice + pos.Amount*res.ExecutedPrice) / total
		}
		pos.Amount = total
		pos.BuyTimestamp = existing.BuyTimestamp
	}
	e.positions[intent.Asset] = pos
	e.deps.Metrics.OpenPositions.Set(float64(len(e.positions)))
	e.mu.Unlock()
	if err := e.deps.Store.SavePosition(pos); err != nil {
		logger.Warnf("engine: persisting position %s: %v", pos.Symbol, err)
	}
}

func (e *Engine) recordTrade(intent types.OrderIntent, res market.ExecutionResult, price float64, success bool) {
	pd, _ := e.prices.Get(intent.Asset)
	rec := types.TradeRecord{
		Asset:             intent.Asset,
		Side:              intent.Side,
		Amount:            res.ExecutedAmount,
		Price:             res.ExecutedPrice,
		SlippageBpsUsed:   intent.SlippageBps,
		ActualSlippageBps: int(res.ActualSlippageBps),
		LiquidityUSD:      pd.LiquidityUSD,
		Volume24hUSD:      pd.Volume24hUSD,
		Timestamp:         time.Now(),
		Success:           success,
	}
	if rec.Price == 0 {
		rec.Price = price
	}
	if !success && rec.Amount == 0 {
		rec.Amount = intent.Amount
	}
	if err := e.deps.Store.RecordTrade(rec); err != nil {
		logger.Warnf("engine: recording trade for %s: %v", intent.Symbol, err)
	}
}

func (e *Engine) fallbackSlippage(nativePD market.PriceData, nativeErr error) int {
	_, bps := e.slip.ComputeOrFallback(slippage.Input{
		TradeValue: e.cfg.Risk.FallbackTradeSOL,
		Liquidity:  liquidityNative(nativePD.LiquidityUSD, nativePD.Price),
		Volume24h:  nativePD.Volume24hUSD,
		MarketCap:  nativePD.MarketCap,
	}, nativeErr)
	return bps
}

// liquidityNative restates a USD liquidity figure in native units so it is
// comparable with the wallet balance during sizing.
func liquidityNative(liquidityUSD, nativePriceUSD float64) float64 {
	if nativePriceUSD <= 0 {
		return 0
	}
	return liquidityUSD / nativePriceUSD
}

func candidateVolatility(sig *signal.TokenSignal) float64 {
	if sig.Technical == nil {
		return 0
	}
	return sig.Technical.Volatility
}

func joinReasons(reasons []string) string {
	if len(reasons) == 0 {
		return "no stated reasons"
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "; " + r
	}
	return out
}
