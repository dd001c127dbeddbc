package monitor

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solhelm/internal/analysis"
	"solhelm/internal/types"
)

type memTrailingStore struct {
	mu      sync.Mutex
	records map[string]TrailingStop
	loadErr error
}

func newMemTrailingStore() *memTrailingStore {
	return &memTrailingStore{records: make(map[string]TrailingStop)}
}

func (s *memTrailingStore) LoadTrailingStop(asset string) (TrailingStop, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return TrailingStop{}, false, s.loadErr
	}
	ts, ok := s.records[asset]
	return ts, ok, nil
}

func (s *memTrailingStore) SaveTrailingStop(ts TrailingStop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[ts.Asset] = ts
	return nil
}

func (s *memTrailingStore) DeleteTrailingStop(asset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, asset)
	return nil
}

func testMonitor(store TrailingStore) *Monitor {
	return New(Config{StopLossPct: 0.05, TakeProfitPct: 0.2, TrailingPct: 5}, store, NewPendingBook())
}

func position(amount, buyPrice float64) types.Position {
	return types.Position{TokenAddress: "mint1", Symbol: "MEME", Amount: amount, BuyPrice: buyPrice}
}

func TestTickStopLoss(t *testing.T) {
	m := testMonitor(newMemTrailingStore())
	dec, err := m.Tick(position(100, 100), 94, nil)
	require.NoError(t, err)
	require.NotNil(t, dec)
	assert.Equal(t, ExitStopLoss, dec.Kind)
	assert.Equal(t, 100.0, dec.Amount)
	assert.True(t, dec.Terminal)
	assert.Contains(t, dec.Reason, "stop loss")
}

func TestTickStopLossBoundary(t *testing.T) {
	m := testMonitor(newMemTrailingStore())
	// Exactly at entry*(1-5%) triggers; a hair above does not.
	dec, err := m.Tick(position(10, 100), 100*(1-0.05), nil)
	require.NoError(t, err)
	require.NotNil(t, dec)
	assert.Equal(t, ExitStopLoss, dec.Kind)

	dec, err = m.Tick(position(10, 100), 95.01, nil)
	require.NoError(t, err)
	assert.Nil(t, dec)
}

func TestTickPartialTakeProfitStartsTrailing(t *testing.T) {
	store := newMemTrailingStore()
	m := testMonitor(store)
	dec, err := m.Tick(position(10, 100), 121, nil)
	require.NoError(t, err)
	require.NotNil(t, dec)
	assert.Equal(t, ExitTakeProfitPartial, dec.Kind)
	assert.Equal(t, 5.0, dec.Amount)
	assert.False(t, dec.Terminal)

	ts, ok, err := store.LoadTrailingStop("mint1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 121.0, ts.HighestPrice)
	assert.Equal(t, 5.0, ts.Amount)
	assert.Equal(t, 5.0, ts.TrailPct)
}

func TestTickTakeProfitSkipsMomentumSameTick(t *testing.T) {
	m := testMonitor(newMemTrailingStore())
	bearish := &analysis.Snapshot{MACD: analysis.MACDValue{Value: -1, Signal: 1, Histogram: -2}}
	dec, err := m.Tick(position(10, 100), 125, bearish)
	require.NoError(t, err)
	require.NotNil(t, dec)
	assert.Equal(t, ExitTakeProfitPartial, dec.Kind)
}

func TestTrailingStopExactBoundary(t *testing.T) {
	store := newMemTrailingStore()
	m := testMonitor(store)
	require.NoError(t, store.SaveTrailingStop(TrailingStop{
		Asset: "mint1", Amount: 5, HighestPrice: 121, TrailPct: 5,
	}))

	// 121 * 0.95 = 114.95: at the stop, exit fires.
	dec, err := m.TickTrailing("mint1", 121*(1-5.0/100))
	require.NoError(t, err)
	require.NotNil(t, dec)
	assert.Equal(t, ExitTrailingStop, dec.Kind)
	assert.Equal(t, 5.0, dec.Amount)
	assert.True(t, dec.Terminal)

	_, ok, _ := store.LoadTrailingStop("mint1")
	assert.False(t, ok, "trailing record removed after exit")
}

func TestTrailingStopJustAboveBoundaryHolds(t *testing.T) {
	store := newMemTrailingStore()
	m := testMonitor(store)
	require.NoError(t, store.SaveTrailingStop(TrailingStop{
		Asset: "mint1", Amount: 5, HighestPrice: 121, TrailPct: 5,
	}))
	dec, err := m.TickTrailing("mint1", 115)
	require.NoError(t, err)
	assert.Nil(t, dec)
}

func TestTrailingStopRatchetsAnchor(t *testing.T) {
	store := newMemTrailingStore()
	m := testMonitor(store)
	require.NoError(t, store.SaveTrailingStop(TrailingStop{
		Asset: "mint1", Amount: 5, HighestPrice: 121, TrailPct: 5,
	}))

	dec, err := m.TickTrailing("mint1", 140)
	require.NoError(t, err)
	assert.Nil(t, dec)
	ts, _, _ := store.LoadTrailingStop("mint1")
	assert.Equal(t, 140.0, ts.HighestPrice)

	// A dip that clears the old stop but breaches the new one exits.
	dec, err = m.TickTrailing("mint1", 132)
	require.NoError(t, err)
	require.NotNil(t, dec)
	assert.Equal(t, ExitTrailingStop, dec.Kind)
}

func TestTickDelegatesToTrailingWhenRecordExists(t *testing.T) {
	store := newMemTrailingStore()
	m := testMonitor(store)
	require.NoError(t, store.SaveTrailingStop(TrailingStop{
		Asset: "mint1", Amount: 5, HighestPrice: 121, TrailPct: 5,
	}))
	// Even though 114 is above the stop-loss line for entry 100, the
	// trailing rule governs now.
	dec, err := m.Tick(position(5, 100), 114, nil)
	require.NoError(t, err)
	require.NotNil(t, dec)
	assert.Equal(t, ExitTrailingStop, dec.Kind)
}

func TestTickMomentumExit(t *testing.T) {
	m := testMonitor(newMemTrailingStore())
	bearish := &analysis.Snapshot{MACD: analysis.MACDValue{Value: -0.5, Signal: 0.5, Histogram: -1}}
	dec, err := m.Tick(position(100, 100), 110, bearish)
	require.NoError(t, err)
	require.NotNil(t, dec)
	assert.Equal(t, ExitMomentum, dec.Kind)
	assert.Equal(t, 75.0, dec.Amount)
	assert.False(t, dec.Terminal)
	assert.Equal(t, "negative momentum while in profit", dec.Reason)
}

func TestTickMomentumRequiresProfit(t *testing.T) {
	m := testMonitor(newMemTrailingStore())
	bearish := &analysis.Snapshot{MACD: analysis.MACDValue{Value: -0.5, Signal: 0.5, Histogram: -1}}
	dec, err := m.Tick(position(100, 100), 99, bearish)
	require.NoError(t, err)
	assert.Nil(t, dec)
}

func TestTickNoBalanceNoAction(t *testing.T) {
	m := testMonitor(newMemTrailingStore())
	dec, err := m.Tick(position(0, 100), 50, nil)
	require.NoError(t, err)
	assert.Nil(t, dec)
}

func TestTickPendingVolumeSuppressesDoubleSell(t *testing.T) {
	m := testMonitor(newMemTrailingStore())
	release := m.Pending().Acquire("mint1", 100)
	defer release()
	// The whole balance is already being sold: no further action.
	dec, err := m.Tick(position(100, 100), 50, nil)
	require.NoError(t, err)
	assert.Nil(t, dec)
}

func TestTickStoreErrorIsNonFatal(t *testing.T) {
	store := newMemTrailingStore()
	store.loadErr = errors.New("disk gone")
	m := testMonitor(store)
	dec, err := m.Tick(position(10, 100), 94, nil)
	assert.Error(t, err)
	assert.Nil(t, dec)
}

func TestPendingBookConcurrentRelease(t *testing.T) {
	book := NewPendingBook()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := book.Acquire("mint1", 2)
			release()
			release() // double release must be a no-op
		}()
	}
	wg.Wait()
	assert.Equal(t, 0.0, book.Pending("mint1"))
}

func TestPendingBookNeverNegative(t *testing.T) {
	book := NewPendingBook()
	r1 := book.Acquire("mint1", 5)
	r2 := book.Acquire("mint1", 7)
	r1()
	r2()
	assert.Equal(t, 0.0, book.Pending("mint1"))
	assert.GreaterOrEqual(t, book.Pending("mint1"), 0.0)
}
