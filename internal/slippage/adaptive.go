package slippage

import (
	"sort"
	"time"

	"solhelm/internal/logger"
	"solhelm/internal/types"
)

const (
	minMultiplier = 0.5
	maxMultiplier = 2.0

	recalibrationInterval = 24 * time.Hour

	// Liquidity tier boundaries (USD) for bucketing executions.
	lowLiquidityMax    = 100_000.0
	mediumLiquidityMax = 1_000_000.0

	// Volume at least twice the pool is "high volume relative to liquidity".
	highVolumeRatio = 2.0
)

// Recalibrate retunes the multipliers from recent execution efficiency,
// at most once per recalibrationInterval. Executions are bucketed by
// liquidity tier (driving the liquidity multiplier) and by high
// volume-relative-to-liquidity (driving the volume multiplier). Efficiency
// is actual/used slippage with interquartile-range outlier removal: a mean
// above 0.9 means the model is barely over-quoting, so the multiplier
// shrinks 10%; below 0.7 it is over-padding and grows 10%. Best effort: a
// run with too little data simply advances the clock.
func (m *Model) Recalibrate(records []types.TradeRecord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFn()
	if !m.settings.LastRecalibration.IsZero() &&
		now.Sub(m.settings.LastRecalibration) < recalibrationInterval {
		return false
	}
	m.settings.LastRecalibration = now

	var liquidityEff, volumeEff []float64
	for _, r := range records {
		if !r.Success || r.SlippageBpsUsed <= 0 || r.ActualSlippageBps < 0 {
			continue
		}
		eff := float64(r.ActualSlippageBps) / float64(r.SlippageBpsUsed)
		if r.LiquidityUSD > 0 && r.LiquidityUSD <= mediumLiquidityMax {
			// Low and medium tiers are where the liquidity term dominates.
			liquidityEff = append(liquidityEff, eff)
		}
		if r.LiquidityUSD > 0 && r.Volume24hUSD/r.LiquidityUSD >= highVolumeRatio {
			volumeEff = append(volumeEff, eff)
		}
	}

	adjusted := false
	if next, ok := retune(m.settings.LiquidityMultiplier, liquidityEff); ok {
		logger.Infof("slippage: liquidity multiplier %.2f -> %.2f (%d samples)",
			m.settings.LiquidityMultiplier, next, len(liquidityEff))
		m.settings.LiquidityMultiplier = next
		adjusted = true
	}
	if next, ok := retune(m.settings.VolumeMultiplier, volumeEff); ok {
		logger.Infof("slippage: volume multiplier %.2f -> %.2f (%d samples)",
			m.settings.VolumeMultiplier, next, len(volumeEff))
		m.settings.VolumeMultiplier = next
		adjusted = true
	}
	return adjusted
}

// retune applies the 10% step toward the efficiency band [0.7, 0.9].
func retune(current float64, efficiencies []float64) (float64, bool) {
	trimmed := removeOutliersIQR(efficiencies)
	if len(trimmed) < 4 {
		return current, false
	}
	var sum float64
	for _, e := range trimmed {
		sum += e
	}
	switch mean := sum / float64(len(trimmed)); {
	case mean > 0.9:
		next := current * 0.9
		if next < minMultiplier {
			next = minMultiplier
		}
		return next, next != current
	case mean < 0.7:
		next := current * 1.1
		if next > maxMultiplier {
			next = maxMultiplier
		}
		return next, next != current
	default:
		return current, false
	}
}

// removeOutliersIQR drops samples outside [Q1-1.5*IQR, Q3+1.5*IQR].
func removeOutliersIQR(values []float64) []float64 {
	if len(values) < 4 {
		return values
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	out := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}

// quantile interpolates linearly on a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
