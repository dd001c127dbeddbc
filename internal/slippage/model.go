// Package slippage computes execution slippage tolerances from liquidity
// impact and market activity, and retunes its own multipliers from observed
// execution efficiency.
package slippage

import (
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"solhelm/internal/logger"
)

// FallbackBps is emitted when market data for a computation is unavailable:
// a safe 1% rather than blocking the trade decision.
const FallbackBps = 100

// Settings are the model's tunable parameters. BasePct and MaxPct come from
// configuration and stay fixed; the two multipliers are retuned by the
// adaptive recalibration within [0.5, 2.0].
type Settings struct {
	BasePct             float64   `json:"basePct"`
	MaxPct              float64   `json:"maxPct"`
	LiquidityMultiplier float64   `json:"liquidityMultiplier"`
	VolumeMultiplier    float64   `json:"volumeMultiplier"`
	LastRecalibration   time.Time `json:"lastRecalibration,omitempty"`
}

// Input carries the market context for one tolerance computation.
type Input struct {
	TradeValue float64 // in the same unit as Liquidity
	Liquidity  float64
	Volume24h  float64
	MarketCap  float64
	TaxPct     float64 // per-asset override, e.g. transfer-tax tokens
}

// Model is the slippage model. It is the one piece of configuration that is
// legitimately mutable at runtime, so it owns its settings behind a mutex.
type Model struct {
	mu       sync.Mutex
	settings Settings
	nowFn    func() time.Time
}

func NewModel(s Settings) *Model {
	if s.LiquidityMultiplier == 0 {
		s.LiquidityMultiplier = 1
	}
	if s.VolumeMultiplier == 0 {
		s.VolumeMultiplier = 1
	}
	return &Model{settings: s, nowFn: time.Now}
}

// Snapshot returns a copy of the current settings for persistence.
func (m *Model) Snapshot() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// Restore replaces the tuned multipliers and recalibration clock from a
// persisted snapshot, keeping the configured base and max.
func (m *Model) Restore(s Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.LiquidityMultiplier >= minMultiplier && s.LiquidityMultiplier <= maxMultiplier {
		m.settings.LiquidityMultiplier = s.LiquidityMultiplier
	}
	if s.VolumeMultiplier >= minMultiplier && s.VolumeMultiplier <= maxMultiplier {
		m.settings.VolumeMultiplier = s.VolumeMultiplier
	}
	if !s.LastRecalibration.IsZero() {
		m.settings.LastRecalibration = s.LastRecalibration
	}
}

// Compute returns the slippage tolerance for in, as a percent and as basis
// points (floor of percent x 100). The result stays within
// [BasePct x 0.5, MaxPct].
func (m *Model) Compute(in Input) (float64, int) {
	m.mu.Lock()
	s := m.settings
	m.mu.Unlock()

	pct := s.BasePct

	// Liquidity impact: trades above 0.1% of the pool pay superlinearly.
	if in.Liquidity > 0 {
		liquidityPct := in.TradeValue / in.Liquidity * 100
		if liquidityPct > 0.1 {
			pct += math.Pow(liquidityPct, 1.5) * s.LiquidityMultiplier * 0.01
		}
	}

	// Active markets fill closer to quote: discount when volume is large
	// relative to cap, floored at half the base.
	if in.MarketCap > 0 {
		volToMcap := in.Volume24h / in.MarketCap
		if volToMcap > 0.05 {
			discount := math.Min(volToMcap*5, 0.5) * s.VolumeMultiplier
			pct = math.Max(pct-discount, s.BasePct*0.5)
		}
	}

	if in.TaxPct > 0 {
		pct += in.TaxPct * 1.5
	}

	pct = math.Min(pct, s.MaxPct)
	return pct, toBps(pct)
}

// ComputeOrFallback degrades to the fixed fallback when the market-data
// lookup for the asset failed.
func (m *Model) ComputeOrFallback(in Input, lookupErr error) (float64, int) {
	if lookupErr != nil {
		logger.Warnf("slippage: market data unavailable, using %d bps fallback: %v", FallbackBps, lookupErr)
		return float64(FallbackBps) / 100, FallbackBps
	}
	return m.Compute(in)
}

func toBps(pct float64) int {
	return int(decimal.NewFromFloat(pct).Mul(decimal.NewFromInt(100)).Floor().IntPart())
}
