package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"solhelm/internal/breaker"
	"solhelm/internal/logger"
	"solhelm/internal/market"
	"solhelm/internal/store"
	"solhelm/internal/types"
)

// CheckBreaker evaluates the reference asset against the circuit-breaker
// thresholds and records the pause when it trips.
func (e *Engine) CheckBreaker(ctx context.Context) {
	pd, err := e.nativeMarket(ctx)
	if err != nil {
		logger.Warnf("engine: breaker check: reference price unavailable: %v", err)
		return
	}
	pause, err := e.brk.Check(pd.PriceHistory)
	if err != nil {
		logger.Warnf("engine: breaker check: %v", err)
		return
	}
	if pause == nil {
		return
	}
	e.deps.Metrics.Pauses.Inc()
	e.deps.Metrics.Decisions.WithLabelValues("pause").Inc()
	e.audit(store.DecisionEntry{
		TraceID: uuid.NewString(),
		Action:  "pause",
		Reason:  fmt.Sprintf("%s: %s", pause.Reason, pause.Detail),
	})
	_ = e.deps.Notifier.SendText(fmt.Sprintf(
		"PAUSE until %s: %s\n%s", pause.Until.Format(time.RFC3339), pause.Reason, pause.Detail))
}

// ValidateDataSources runs the data-quality pass and applies its targeted
// mitigations: primary failure pauses entries and forces risk reduction,
// stale social or ranking data drops out of scoring.
func (e *Engine) ValidateDataSources(ctx context.Context) {
	now := time.Now()
	e.mu.RLock()
	primaryErr := e.lastPrimaryErr
	e.mu.RUnlock()

	primary := breaker.FeedStatus{Name: "primary", Err: primaryErr, LastSuccess: now}
	social := breaker.FeedStatus{Name: "social"}
	ranking := breaker.FeedStatus{Name: "ranking"}
	if e.deps.Social != nil {
		social.LastSuccess = e.deps.Social.LastSuccess()
	}
	if e.deps.Ranking != nil {
		ranking.LastSuccess = e.deps.Ranking.LastSuccess()
	}

	d := breaker.AssessDataQuality(breaker.QualityConfig{
		SocialStale:  time.Duration(e.cfg.Feeds.SocialStaleHours * float64(time.Hour)),
		RankingStale: time.Duration(e.cfg.Feeds.RankingStaleHours * float64(time.Hour)),
	}, primary, social, ranking, now)

	e.mu.Lock()
	e.scorer.SocialWeight = d.SocialWeight
	e.scorer.RankValid = d.RankValid
	e.mu.Unlock()

	for _, reason := range d.Reasons {
		logger.Warnf("engine: data quality: %s", reason)
	}
	if !d.PauseEntries {
		return
	}
	if _, err := e.brk.Trip(breaker.ReasonPrimaryFeedFailure, "primary feed failure"); err != nil {
		logger.Errorf("engine: pausing on primary feed failure: %v", err)
	}
	status, prices := e.portfolioStatus(ctx)
	if d.ReduceRisk {
		e.reduceRisk(ctx, status, prices)
	}
}

// SyncWallet refreshes the native balance and reconciles position amounts
// with on-chain holdings, dropping positions that were closed externally.
func (e *Engine) SyncWallet(ctx context.Context) {
	if e.deps.Wallet == nil {
		return
	}
	balance, err := market.Retry(ctx, e.retrier, "wallet balance", func(ctx context.Context) (float64, error) {
		return e.deps.Wallet.NativeBalance(ctx)
	})
	if err != nil {
		logger.Warnf("engine: wallet sync: %v", err)
		return
	}
	holdings, err := market.Retry(ctx, e.retrier, "token balances", func(ctx context.Context) (map[string]float64, error) {
		return e.deps.Wallet.TokenBalances(ctx)
	})
	if err != nil {
		logger.Warnf("engine: wallet sync: %v", err)
		return
	}

	var closed []string
	var reduced []types.Position
	e.mu.Lock()
	e.nativeBalance = balance
	for asset, pos := range e.positions {
		held, ok := holdings[asset]
		if !ok || held <= 0 {
			delete(e.positions, asset)
			closed = append(closed, asset)
			continue
		}
		if held < pos.Amount {
			pos.Amount = held
			e.positions[asset] = pos
			reduced = append(reduced, pos)
		}
	}
	e.deps.Metrics.OpenPositions.Set(float64(len(e.positions)))
	e.mu.Unlock()

	for _, pos := range reduced {
		logger.Infof("engine: position %s reduced on chain, reconciling to %.6f", pos.Symbol, pos.Amount)
		if err := e.deps.Store.SavePosition(pos); err != nil {
			logger.Warnf("engine: persisting position %s: %v", pos.Symbol, err)
		}
	}

	for _, asset := range closed {
		logger.Infof("engine: position %s closed externally, dropping", asset)
		if err := e.deps.Store.DeletePosition(asset); err != nil {
			logger.Warnf("engine: deleting position %s: %v", asset, err)
		}
		if err := e.deps.Store.DeleteTrailingStop(asset); err != nil {
			logger.Warnf("engine: deleting trailing stop %s: %v", asset, err)
		}
	}
}
