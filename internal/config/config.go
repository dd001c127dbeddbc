package config

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads the YAML config at path, applies defaults for unset fields,
// clamps out-of-range values, and returns the resulting immutable Config
// together with one warning per clamped field.
func Load(path string) (*Config, []string, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(abs)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("reading config file failed (%s): %w", abs, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	warnings := Validate(&cfg)
	return &cfg, warnings, nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8787"
	}
	if c.Intervals.SignalSeconds == 0 {
		c.Intervals.SignalSeconds = 180
	}
	if c.Intervals.PriceCheckSeconds == 0 {
		c.Intervals.PriceCheckSeconds = 60
	}
	if c.Intervals.TrailingCheckSeconds == 0 {
		c.Intervals.TrailingCheckSeconds = 15
	}
	if c.Intervals.WalletSyncSeconds == 0 {
		c.Intervals.WalletSyncSeconds = 120
	}
	if c.Intervals.PerformanceSeconds == 0 {
		c.Intervals.PerformanceSeconds = 300
	}
	if c.Intervals.DataQualitySeconds == 0 {
		c.Intervals.DataQualitySeconds = 600
	}
	if c.Intervals.BreakerCheckSeconds == 0 {
		c.Intervals.BreakerCheckSeconds = 300
	}
	if c.Thresholds.MinLiquidityUSD == 0 {
		c.Thresholds.MinLiquidityUSD = 50_000
	}
	if c.Thresholds.MinVolumeUSD == 0 {
		c.Thresholds.MinVolumeUSD = 100_000
	}
	if c.Thresholds.MinScore == 0 {
		c.Thresholds.MinScore = 60
	}
	if c.Risk.MaxPositionPct == 0 {
		c.Risk.MaxPositionPct = 0.5
	}
	if c.Risk.MaxDrawdown == 0 {
		c.Risk.MaxDrawdown = 0.2
	}
	if c.Risk.StopLossPct == 0 {
		c.Risk.StopLossPct = 0.05
	}
	if c.Risk.TakeProfitPct == 0 {
		c.Risk.TakeProfitPct = 0.2
	}
	if c.Risk.TrailingStopPct == 0 {
		c.Risk.TrailingStopPct = 5
	}
	if c.Risk.MinTradeSOL == 0 {
		c.Risk.MinTradeSOL = 0.01
	}
	if c.Risk.FallbackTradeSOL == 0 {
		c.Risk.FallbackTradeSOL = 0.05
	}
	if c.Risk.MaxOwnershipConcPct == 0 {
		c.Risk.MaxOwnershipConcPct = 30
	}
	if c.Risk.RiskReductionTargetAt == 0 {
		c.Risk.RiskReductionTargetAt = 0.8
	}
	if c.Slippage.BasePct == 0 {
		c.Slippage.BasePct = 1.0
	}
	if c.Slippage.MaxPct == 0 {
		c.Slippage.MaxPct = 5.0
	}
	if c.Slippage.LiquidityMultiplier == 0 {
		c.Slippage.LiquidityMultiplier = 1.0
	}
	if c.Slippage.VolumeMultiplier == 0 {
		c.Slippage.VolumeMultiplier = 1.0
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/solhelm.db"
	}
	if c.Store.DecisionLogPath == "" {
		c.Store.DecisionLogPath = "data/decisions.db"
	}
	if c.Feeds.SocialStaleHours == 0 {
		c.Feeds.SocialStaleHours = 6
	}
	if c.Feeds.RankingStaleHours == 0 {
		c.Feeds.RankingStaleHours = 12
	}
	if c.Endpoints.TimeoutSeconds == 0 {
		c.Endpoints.TimeoutSeconds = 10
	}
	if c.Notify.QueueDepth == 0 {
		c.Notify.QueueDepth = 64
	}
}
