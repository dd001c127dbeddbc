package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solhelm/internal/breaker"
	"solhelm/internal/monitor"
	"solhelm/internal/slippage"
	"solhelm/internal/types"
)

func TestMemoryHighWaterMark(t *testing.T) {
	m := NewMemory()
	_, ok, err := m.LoadHighWaterMark()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.SaveHighWaterMark(1234.5))
	v, ok, err := m.LoadHighWaterMark()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1234.5, v)
}

func TestMemoryTrailingStopLifecycle(t *testing.T) {
	m := NewMemory()
	ts := monitor.TrailingStop{Asset: "mint1", Amount: 5, HighestPrice: 121, TrailPct: 5}
	require.NoError(t, m.SaveTrailingStop(ts))

	got, ok, err := m.LoadTrailingStop("mint1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ts, got)

	require.NoError(t, m.DeleteTrailingStop("mint1"))
	_, ok, _ = m.LoadTrailingStop("mint1")
	assert.False(t, ok)
}

func TestMemoryPauseFlag(t *testing.T) {
	m := NewMemory()
	_, ok, err := m.LoadPause()
	require.NoError(t, err)
	assert.False(t, ok)

	p := breaker.Pause{Reason: breaker.ReasonHighVolatility, Until: time.Now().Add(time.Hour)}
	require.NoError(t, m.SavePause(p))
	got, ok, _ := m.LoadPause()
	assert.True(t, ok)
	assert.Equal(t, p.Reason, got.Reason)

	require.NoError(t, m.ClearPause())
	_, ok, _ = m.LoadPause()
	assert.False(t, ok)
}

func TestMemorySlippageSettings(t *testing.T) {
	m := NewMemory()
	_, ok, _ := m.LoadSlippageSettings()
	assert.False(t, ok)

	s := slippage.Settings{BasePct: 1, MaxPct: 5, LiquidityMultiplier: 1.1, VolumeMultiplier: 0.9}
	require.NoError(t, m.SaveSlippageSettings(s))
	got, ok, err := m.LoadSlippageSettings()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, s, got)
}

func TestMemoryPositions(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.SavePosition(types.Position{TokenAddress: "mint1", Amount: 10}))
	require.NoError(t, m.SavePosition(types.Position{TokenAddress: "mint2", Amount: 20}))
	require.NoError(t, m.SavePosition(types.Position{TokenAddress: "mint1", Amount: 7}))

	ps, err := m.LoadPositions()
	require.NoError(t, err)
	require.Len(t, ps, 2, "save by asset upserts")

	require.NoError(t, m.DeletePosition("mint1"))
	ps, _ = m.LoadPositions()
	require.Len(t, ps, 1)
	assert.Equal(t, "mint2", ps[0].TokenAddress)
}

func TestMemoryRecentTradesNewestFirst(t *testing.T) {
	m := NewMemory()
	for i := 1; i <= 5; i++ {
		require.NoError(t, m.RecordTrade(types.TradeRecord{Asset: "mint1", Amount: float64(i)}))
	}
	got, err := m.RecentTrades(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 5.0, got[0].Amount)
	assert.Equal(t, 4.0, got[1].Amount)

	all, _ := m.RecentTrades(0)
	assert.Len(t, all, 5)
}

func TestMemoryDecisionLog(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.AppendDecision(DecisionEntry{TraceID: "a", Action: "hold"}))
	require.NoError(t, m.AppendDecision(DecisionEntry{TraceID: "b", Action: "buy"}))
	got, err := m.RecentDecisions(1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].TraceID)
}
