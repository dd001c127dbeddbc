// Package breaker implements the market-wide circuit breaker. It watches a
// reference asset's short-horizon behavior and trips a global trading pause
// when the market moves violently; the pause gates new entries only.
package breaker

import (
	"fmt"
	"math"
	"time"

	"solhelm/internal/analysis"
	"solhelm/internal/logger"
)

const (
	// minSamples is the shortest reference price history the breaker will
	// evaluate. Fewer samples means the check is skipped, never tripped.
	minSamples = 24

	// lookback is how many samples back the short-horizon change is
	// measured against, roughly one hour at the default check interval.
	lookback = 6

	priceMoveThresholdPct = 15.0
	volatilityThreshold   = 0.6

	pauseDuration = time.Hour
)

// Reason tags why trading was paused.
type Reason string

const (
	ReasonExtremePriceMovement Reason = "extreme_price_movement"
	ReasonHighVolatility       Reason = "high_volatility"
	ReasonPrimaryFeedFailure   Reason = "primary_feed_failure"
)

// Pause is the persisted trading-paused flag. It expires at Until; an
// expired record is treated as absent.
type Pause struct {
	Reason Reason    `json:"reason"`
	Detail string    `json:"detail"`
	Since  time.Time `json:"since"`
	Until  time.Time `json:"until"`
}

// PauseStore persists the paused flag across cycles and restarts.
type PauseStore interface {
	LoadPause() (Pause, bool, error)
	SavePause(p Pause) error
	ClearPause() error
}

// Breaker evaluates reference-asset price history and owns the pause flag.
type Breaker struct {
	store PauseStore
	nowFn func() time.Time
}

func New(store PauseStore) *Breaker {
	return &Breaker{store: store, nowFn: time.Now}
}

// Paused reports whether a pause is currently in force. Expired records are
// cleared on read.
func (b *Breaker) Paused() (bool, Reason, error) {
	p, ok, err := b.store.LoadPause()
	if err != nil {
		return false, "", fmt.Errorf("breaker: loading pause flag: %w", err)
	}
	if !ok {
		return false, "", nil
	}
	if b.nowFn().After(p.Until) {
		if err := b.store.ClearPause(); err != nil {
			return false, "", fmt.Errorf("breaker: clearing expired pause: %w", err)
		}
		logger.Infof("breaker: pause expired (reason %s), trading resumed", p.Reason)
		return false, "", nil
	}
	return true, p.Reason, nil
}

// Check evaluates the reference asset's recent prices and trips a pause if
// the short-horizon change or the volatility crosses its threshold. A nil
// pause means the market is within bounds or history is too short to judge.
func (b *Breaker) Check(prices []float64) (*Pause, error) {
	if len(prices) < minSamples {
		return nil, nil
	}
	last := prices[len(prices)-1]
	ref := prices[len(prices)-1-lookback]
	if ref <= 0 {
		return nil, fmt.Errorf("breaker: non-positive reference price %v", ref)
	}
	changePct := (last - ref) / ref * 100
	vol := analysis.Volatility(prices)
	return b.evaluate(changePct, vol)
}

func (b *Breaker) evaluate(changePct, vol float64) (*Pause, error) {
	var reason Reason
	var detail string
	switch {
	case math.Abs(changePct) > priceMoveThresholdPct:
		reason = ReasonExtremePriceMovement
		detail = fmt.Sprintf("1h change %.2f%% exceeds %.0f%%", changePct, priceMoveThresholdPct)
	case vol > volatilityThreshold:
		reason = ReasonHighVolatility
		detail = fmt.Sprintf("volatility %.3f exceeds %.1f", vol, volatilityThreshold)
	default:
		return nil, nil
	}
	p, err := b.Trip(reason, detail)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Trip records a pause starting now. The data-quality checker also trips
// the breaker directly on primary-feed failure.
func (b *Breaker) Trip(reason Reason, detail string) (Pause, error) {
	now := b.nowFn()
	p := Pause{Reason: reason, Detail: detail, Since: now, Until: now.Add(pauseDuration)}
	if err := b.store.SavePause(p); err != nil {
		return Pause{}, fmt.Errorf("breaker: saving pause flag: %w", err)
	}
	logger.Warnf("breaker: trading paused until %s: %s (%s)",
		p.Until.Format(time.RFC3339), reason, detail)
	return p, nil
}
