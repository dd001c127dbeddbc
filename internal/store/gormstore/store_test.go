package gormstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solhelm/internal/breaker"
	"solhelm/internal/monitor"
	"solhelm/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("  ")
	require.Error(t, err)
}

func TestHighWaterMarkRoundTrip(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.LoadHighWaterMark()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveHighWaterMark(100))
	require.NoError(t, s.SaveHighWaterMark(150))
	v, ok, err := s.LoadHighWaterMark()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 150.0, v, "save overwrites the singleton record")
}

func TestPauseFlagRoundTrip(t *testing.T) {
	s := openTestStore(t)
	p := breaker.Pause{
		Reason: breaker.ReasonExtremePriceMovement,
		Detail: "1h change 16.00% exceeds 15%",
		Since:  time.Now().Truncate(time.Second),
		Until:  time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, s.SavePause(p))
	got, ok, err := s.LoadPause()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.Reason, got.Reason)
	assert.Equal(t, p.Detail, got.Detail)

	require.NoError(t, s.ClearPause())
	_, ok, err = s.LoadPause()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTrailingStopSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	s, err := New(path)
	require.NoError(t, err)
	ts := monitor.TrailingStop{Asset: "mint1", Symbol: "MEME", Amount: 5, HighestPrice: 121, TrailPct: 5}
	require.NoError(t, s.SaveTrailingStop(ts))
	require.NoError(t, s.Close())

	s2, err := New(path)
	require.NoError(t, err)
	defer s2.Close()
	got, ok, err := s2.LoadTrailingStop("mint1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 121.0, got.HighestPrice)
	assert.Equal(t, 5.0, got.Amount)
}

func TestPositionUpsertAndDelete(t *testing.T) {
	s := openTestStore(t)
	p := types.Position{TokenAddress: "mint1", Symbol: "MEME", Amount: 10, BuyPrice: 0.5, BuyTimestamp: time.Now()}
	require.NoError(t, s.SavePosition(p))
	p.Amount = 7
	require.NoError(t, s.SavePosition(p))

	ps, err := s.LoadPositions()
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, 7.0, ps[0].Amount)

	require.NoError(t, s.DeletePosition("mint1"))
	ps, _ = s.LoadPositions()
	assert.Empty(t, ps)
}

func TestTradeRecordsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.RecordTrade(types.TradeRecord{
			Asset:     "mint1",
			Side:      types.Buy,
			Amount:    float64(i),
			Timestamp: time.Now(),
			Success:   true,
		}))
	}
	got, err := s.RecentTrades(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[0].Amount)
	assert.Equal(t, 2.0, got[1].Amount)
}
