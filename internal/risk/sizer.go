// Package risk sizes positions under portfolio constraints and manages
// drawdown-triggered risk reduction.
package risk

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// SizerParams are the immutable sizing bounds from configuration.
type SizerParams struct {
	MaxPositionPct float64 // cap on the score-derived base percentage
	MaxDrawdown    float64 // drawdown at which available capital reaches zero
	MinTradeSize   float64 // floor for any emitted size, in native units
}

// SizeInput is everything a single sizing decision depends on. Liquidity is
// expressed in the same unit as WalletBalance (the caller converts from USD).
type SizeInput struct {
	WalletBalance float64
	Drawdown      float64
	Score         float64
	Volatility    float64
	Condition     Condition
	Liquidity     float64
}

// SizeResult is the admissible size plus the sizing provenance.
type SizeResult struct {
	Amount float64
	Reason string
}

// Sizer computes admissible position sizes.
type Sizer struct {
	params SizerParams
}

func NewSizer(params SizerParams) *Sizer {
	return &Sizer{params: params}
}

// Size computes the admissible position size. A portfolio at or beyond max
// drawdown sizes to zero; otherwise the score-derived percentage is damped by
// volatility and market condition, capped at 2% of pool liquidity, and
// floored at the minimum trade size.
func (s *Sizer) Size(in SizeInput) SizeResult {
	if s.params.MaxDrawdown <= 0 {
		return SizeResult{Reason: "max drawdown not configured"}
	}
	availableCapital := in.WalletBalance * (1 - in.Drawdown/s.params.MaxDrawdown)
	if availableCapital <= 0 {
		return SizeResult{Reason: fmt.Sprintf("no capital at drawdown %.1f%% (max %.1f%%)",
			in.Drawdown*100, s.params.MaxDrawdown*100)}
	}

	basePct := math.Min(in.Score/200, s.params.MaxPositionPct)
	adjustedPct := basePct * math.Max(0.5, 1-in.Volatility)
	if in.Condition == ConditionBearish {
		adjustedPct *= 0.5
	}

	rawSize := availableCapital * adjustedPct
	liquidityCap := in.Liquidity * 0.02
	size := math.Max(s.params.MinTradeSize, math.Min(rawSize, liquidityCap))

	return SizeResult{
		Amount: roundAmount(size),
		Reason: fmt.Sprintf("base %.1f%% adjusted to %.1f%% of %.4f available",
			basePct*100, adjustedPct*100, availableCapital),
	}
}

// roundAmount truncates to lamport precision so sizes survive the trip
// through quote APIs without float drift.
func roundAmount(v float64) float64 {
	d, _ := decimal.NewFromFloat(v).Truncate(9).Float64()
	return d
}
