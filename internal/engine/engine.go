// Package engine orchestrates the decision cycles: signal generation and
// entry sizing, position monitoring, performance and risk reduction, data
// quality checks, and the circuit breaker. It exposes tick functions only;
// timing belongs to the scheduler.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"solhelm/internal/analysis"
	"solhelm/internal/breaker"
	"solhelm/internal/cache"
	"solhelm/internal/config"
	"solhelm/internal/feeds"
	"solhelm/internal/logger"
	"solhelm/internal/market"
	"solhelm/internal/monitor"
	"solhelm/internal/notify"
	"solhelm/internal/risk"
	"solhelm/internal/signal"
	"solhelm/internal/slippage"
	"solhelm/internal/store"
	"solhelm/internal/types"
)

// Deps are the engine's collaborators, assembled in cmd/solhelm.
type Deps struct {
	Provider market.MarketDataProvider
	Quotes   market.QuoteProvider
	Executor market.Executor
	Wallet   market.WalletReader

	Trending feeds.SignalFeed
	Social   feeds.SignalFeed
	Ranking  feeds.SignalFeed

	Store    store.StateStore
	Audit    store.DecisionLog
	Notifier notify.TextNotifier
	Metrics  *Metrics
}

// Engine owns all in-cycle state. Cross-cycle state lives in the store.
type Engine struct {
	cfg  *config.Config
	deps Deps

	scorer  *signal.Scorer
	sizer   *risk.Sizer
	slip    *slippage.Model
	mon     *monitor.Monitor
	pm      *risk.Manager
	brk     *breaker.Breaker
	retrier *market.Retrier

	prices   *cache.Cache[market.PriceData]
	metadata *cache.Cache[market.TokenMetadata]

	mu             sync.RWMutex
	positions      map[string]types.Position
	nativeBalance  float64
	drawdown       float64
	condition      risk.Condition
	lastPrimaryErr error
	lastCycle      time.Time
}

func New(cfg *config.Config, deps Deps) (*Engine, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("engine: state store is required")
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil)
	}

	slipModel := slippage.NewModel(slippage.Settings{
		BasePct:             cfg.Slippage.BasePct,
		MaxPct:              cfg.Slippage.MaxPct,
		LiquidityMultiplier: cfg.Slippage.LiquidityMultiplier,
		VolumeMultiplier:    cfg.Slippage.VolumeMultiplier,
	})
	if saved, ok, err := deps.Store.LoadSlippageSettings(); err != nil {
		logger.Warnf("engine: loading slippage settings: %v", err)
	} else if ok {
		slipModel.Restore(saved)
	}

	e := &Engine{
		cfg:  cfg,
		deps: deps,
		scorer: signal.NewScorer(signal.Thresholds{
			MinScore:     cfg.Thresholds.MinScore,
			MinLiquidity: cfg.Thresholds.MinLiquidityUSD,
			MinVolume:    cfg.Thresholds.MinVolumeUSD,
		}),
		sizer: risk.NewSizer(risk.SizerParams{
			MaxPositionPct: cfg.Risk.MaxPositionPct,
			MaxDrawdown:    cfg.Risk.MaxDrawdown,
			MinTradeSize:   cfg.Risk.MinTradeSOL,
		}),
		slip: slipModel,
		mon: monitor.New(monitor.Config{
			StopLossPct:   cfg.Risk.StopLossPct,
			TakeProfitPct: cfg.Risk.TakeProfitPct,
			TrailingPct:   cfg.Risk.TrailingStopPct,
		}, deps.Store, monitor.NewPendingBook()),
		pm:        risk.NewManager(cfg.Risk.MaxDrawdown, cfg.Risk.RiskReductionTargetAt, deps.Store),
		brk:       breaker.New(deps.Store),
		retrier:   market.NewRetrier(),
		prices:    cache.New[market.PriceData](),
		metadata:  cache.New[market.TokenMetadata](),
		positions: make(map[string]types.Position),
		condition: risk.ConditionNeutral,
	}

	restored, err := deps.Store.LoadPositions()
	if err != nil {
		return nil, fmt.Errorf("engine: restoring positions: %w", err)
	}
	for _, p := range restored {
		e.positions[p.TokenAddress] = p
	}
	deps.Metrics.OpenPositions.Set(float64(len(e.positions)))
	return e, nil
}

// Status is the read-only snapshot served by the admin endpoints.
type Status struct {
	Paused        bool             `json:"paused"`
	PauseReason   string           `json:"pauseReason,omitempty"`
	Drawdown      float64          `json:"drawdown"`
	NativeBalance float64          `json:"nativeBalance"`
	Condition     string           `json:"marketCondition"`
	OpenPositions int              `json:"openPositions"`
	Positions     []types.Position `json:"positions"`
	LastCycle     time.Time        `json:"lastCycle,omitempty"`
}

func (e *Engine) Status() Status {
	paused, reason, err := e.brk.Paused()
	if err != nil {
		logger.Warnf("engine: reading pause flag: %v", err)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	ps := make([]types.Position, 0, len(e.positions))
	for _, p := range e.positions {
		ps = append(ps, p)
	}
	return Status{
		Paused:        paused,
		PauseReason:   string(reason),
		Drawdown:      e.drawdown,
		NativeBalance: e.nativeBalance,
		Condition:     string(e.condition),
		OpenPositions: len(ps),
		Positions:     ps,
		LastCycle:     e.lastCycle,
	}
}

// priceData serves market data through the TTL cache with bounded retry.
func (e *Engine) priceData(ctx context.Context, asset string) (market.PriceData, error) {
	if pd, ok := e.prices.Get(asset); ok {
		return pd, nil
	}
	pd, err := market.Retry(ctx, e.retrier, "price "+asset, func(ctx context.Context) (market.PriceData, error) {
		return e.deps.Provider.GetPrice(ctx, asset)
	})
	if err != nil {
		return market.PriceData{}, err
	}
	e.prices.Set(asset, pd, cache.MarketDataTTL)
	return pd, nil
}

func (e *Engine) tokenMetadata(ctx context.Context, asset string) (market.TokenMetadata, error) {
	if md, ok := e.metadata.Get(asset); ok {
		return md, nil
	}
	md, err := market.Retry(ctx, e.retrier, "metadata "+asset, func(ctx context.Context) (market.TokenMetadata, error) {
		return e.deps.Provider.GetTokenMetadata(ctx, asset)
	})
	if err != nil {
		return market.TokenMetadata{}, err
	}
	e.metadata.Set(asset, md, cache.MetadataTTL)
	return md, nil
}

// nativeMarket reads the reference asset and refreshes the cached market
// condition. Failures mark the primary feed unhealthy for the next
// data-quality pass.
func (e *Engine) nativeMarket(ctx context.Context) (market.PriceData, error) {
	pd, err := e.priceData(ctx, types.NativeAsset)
	e.mu.Lock()
	e.lastPrimaryErr = err
	if err == nil && len(pd.PriceHistory) > 1 {
		first := pd.PriceHistory[0]
		changePct := 0.0
		if first > 0 {
			changePct = (pd.Price - first) / first * 100
		}
		e.condition = risk.AssessCondition(changePct, analysis.RSI(pd.PriceHistory, 14))
	}
	e.mu.Unlock()
	return pd, err
}

func (e *Engine) audit(entry store.DecisionEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if e.deps.Audit == nil {
		return
	}
	if err := e.deps.Audit.AppendDecision(entry); err != nil {
		logger.Warnf("engine: audit append: %v", err)
	}
}

func (e *Engine) markCycle() {
	e.mu.Lock()
	e.lastCycle = time.Now()
	e.mu.Unlock()
}
