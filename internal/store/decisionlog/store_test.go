package decisionlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solhelm/internal/store"
)

func openTestLog(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestLog(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range []string{"hold", "buy", "sell"} {
		require.NoError(t, s.AppendDecision(store.DecisionEntry{
			TraceID:   "trace-" + action,
			Action:    action,
			Asset:     "mint1",
			Symbol:    "MEME",
			Amount:    float64(i),
			Reason:    "test",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := s.RecentDecisions(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sell", got[0].Action)
	assert.Equal(t, "buy", got[1].Action)
	assert.Equal(t, base.Add(2*time.Minute).Unix(), got[0].Timestamp.Unix())

	all, err := s.RecentDecisions(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAppendFillsZeroTimestamp(t *testing.T) {
	s := openTestLog(t)
	require.NoError(t, s.AppendDecision(store.DecisionEntry{TraceID: "t", Action: "pause"}))
	got, err := s.RecentDecisions(1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Timestamp.IsZero())
}
