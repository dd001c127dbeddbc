package config

import "fmt"

// Validate clamps out-of-range values in place and returns one warning per
// clamp. It never rejects a config outright: every field has a safe bound, so
// startup proceeds with the clamped value and the operator sees what changed.
func Validate(c *Config) []string {
	var warnings []string
	clamp := func(field string, v *float64, lo, hi float64) {
		switch {
		case *v < lo:
			warnings = append(warnings, fmt.Sprintf("%s=%v below minimum, clamped to %v", field, *v, lo))
			*v = lo
		case *v > hi:
			warnings = append(warnings, fmt.Sprintf("%s=%v above maximum, clamped to %v", field, *v, hi))
			*v = hi
		}
	}
	clampInt := func(field string, v *int, lo int) {
		if *v < lo {
			warnings = append(warnings, fmt.Sprintf("%s=%d below minimum, clamped to %d", field, *v, lo))
			*v = lo
		}
	}

	clampInt("intervals.price_check_seconds", &c.Intervals.PriceCheckSeconds, 10)
	clampInt("intervals.wallet_sync_seconds", &c.Intervals.WalletSyncSeconds, 30)
	clampInt("intervals.performance_seconds", &c.Intervals.PerformanceSeconds, 60)
	clampInt("intervals.data_quality_seconds", &c.Intervals.DataQualitySeconds, 60)
	clampInt("intervals.breaker_check_seconds", &c.Intervals.BreakerCheckSeconds, 60)

	clamp("thresholds.min_score", &c.Thresholds.MinScore, 0, 100)
	clamp("thresholds.min_liquidity_usd", &c.Thresholds.MinLiquidityUSD, 0, 1e12)
	clamp("thresholds.min_volume_usd", &c.Thresholds.MinVolumeUSD, 0, 1e12)

	clamp("risk.max_position_pct", &c.Risk.MaxPositionPct, 0.01, 1)
	clamp("risk.max_drawdown", &c.Risk.MaxDrawdown, 0.01, 0.95)
	clamp("risk.stop_loss_pct", &c.Risk.StopLossPct, 0.005, 0.5)
	clamp("risk.take_profit_pct", &c.Risk.TakeProfitPct, 0.01, 5)
	clamp("risk.trailing_stop_pct", &c.Risk.TrailingStopPct, 0.5, 25)
	clamp("risk.min_trade_sol", &c.Risk.MinTradeSOL, 0.001, 10)
	clamp("risk.fallback_trade_sol", &c.Risk.FallbackTradeSOL, 0.001, 10)
	clamp("risk.max_ownership_conc_pct", &c.Risk.MaxOwnershipConcPct, 1, 100)
	clamp("risk.risk_reduction_target_at", &c.Risk.RiskReductionTargetAt, 0.1, 1)

	clamp("slippage.base_pct", &c.Slippage.BasePct, 0.1, 10)
	clamp("slippage.max_pct", &c.Slippage.MaxPct, c.Slippage.BasePct, 50)
	clamp("slippage.liquidity_multiplier", &c.Slippage.LiquidityMultiplier, 0.5, 2.0)
	clamp("slippage.volume_multiplier", &c.Slippage.VolumeMultiplier, 0.5, 2.0)

	clamp("feeds.social_stale_hours", &c.Feeds.SocialStaleHours, 1, 48)
	clamp("feeds.ranking_stale_hours", &c.Feeds.RankingStaleHours, 1, 96)

	return warnings
}
