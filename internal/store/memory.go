package store

import (
	"sync"

	"solhelm/internal/breaker"
	"solhelm/internal/monitor"
	"solhelm/internal/slippage"
	"solhelm/internal/types"
)

// Memory is the in-process StateStore. It backs tests and dry runs; the
// durable variant lives in the gormstore subpackage.
type Memory struct {
	mu sync.RWMutex

	highWater    float64
	highWaterSet bool

	trailing map[string]monitor.TrailingStop

	pause    breaker.Pause
	pauseSet bool

	slip    slippage.Settings
	slipSet bool

	positions map[string]types.Position
	trades    []types.TradeRecord
	decisions []DecisionEntry
}

func NewMemory() *Memory {
	return &Memory{
		trailing:  make(map[string]monitor.TrailingStop),
		positions: make(map[string]types.Position),
	}
}

var (
	_ StateStore  = (*Memory)(nil)
	_ DecisionLog = (*Memory)(nil)
)

func (m *Memory) LoadHighWaterMark() (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.highWater, m.highWaterSet, nil
}

func (m *Memory) SaveHighWaterMark(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.highWater, m.highWaterSet = v, true
	return nil
}

func (m *Memory) LoadTrailingStop(asset string) (monitor.TrailingStop, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts, ok := m.trailing[asset]
	return ts, ok, nil
}

func (m *Memory) SaveTrailingStop(ts monitor.TrailingStop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trailing[ts.Asset] = ts
	return nil
}

func (m *Memory) DeleteTrailingStop(asset string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trailing, asset)
	return nil
}

func (m *Memory) LoadPause() (breaker.Pause, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pause, m.pauseSet, nil
}

func (m *Memory) SavePause(p breaker.Pause) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pause, m.pauseSet = p, true
	return nil
}

func (m *Memory) ClearPause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseSet = false
	return nil
}

func (m *Memory) LoadSlippageSettings() (slippage.Settings, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slip, m.slipSet, nil
}

func (m *Memory) SaveSlippageSettings(s slippage.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slip, m.slipSet = s, true
	return nil
}

func (m *Memory) SavePosition(p types.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[p.TokenAddress] = p
	return nil
}

func (m *Memory) DeletePosition(asset string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, asset)
	return nil
}

func (m *Memory) LoadPositions() ([]types.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p)
	}
	return out, nil
}

func (m *Memory) RecordTrade(r types.TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, r)
	return nil
}

// RecentTrades returns the newest records first. limit <= 0 means all.
func (m *Memory) RecentTrades(limit int) ([]types.TradeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.trades)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]types.TradeRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.trades[i])
	}
	return out, nil
}

func (m *Memory) AppendDecision(e DecisionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, e)
	return nil
}

func (m *Memory) RecentDecisions(limit int) ([]DecisionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.decisions)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]DecisionEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.decisions[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
