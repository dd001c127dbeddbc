package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, doc map[string]any) string {
	t.Helper()
	raw, err := yaml.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"app": map[string]any{"env": "test"},
	})
	cfg, warnings, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 60, cfg.Intervals.PriceCheckSeconds)
	assert.Equal(t, 60.0, cfg.Thresholds.MinScore)
	assert.Equal(t, 0.2, cfg.Risk.MaxDrawdown)
	assert.Equal(t, 5.0, cfg.Risk.TrailingStopPct)
	assert.Equal(t, 1.0, cfg.Slippage.BasePct)
	assert.Equal(t, 0.8, cfg.Risk.RiskReductionTargetAt)
}

func TestLoadClampsOutOfRange(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"risk": map[string]any{
			"max_position_pct": 1.7,
			"max_drawdown":     0.99,
		},
		"slippage": map[string]any{
			"liquidity_multiplier": 9.0,
		},
		"intervals": map[string]any{
			"price_check_seconds": 1,
		},
	})
	cfg, warnings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.Risk.MaxPositionPct)
	assert.Equal(t, 0.95, cfg.Risk.MaxDrawdown)
	assert.Equal(t, 2.0, cfg.Slippage.LiquidityMultiplier)
	assert.Equal(t, 10, cfg.Intervals.PriceCheckSeconds)
	assert.Len(t, warnings, 4)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateMaxSlippageNotBelowBase(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Slippage.BasePct = 3
	cfg.Slippage.MaxPct = 1
	warnings := Validate(cfg)
	assert.NotEmpty(t, warnings)
	assert.Equal(t, 3.0, cfg.Slippage.MaxPct)
}
