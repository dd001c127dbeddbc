package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solhelm/internal/types"
)

type memHighWater struct {
	value float64
	set   bool
}

func (m *memHighWater) LoadHighWaterMark() (float64, bool, error) { return m.value, m.set, nil }
func (m *memHighWater) SaveHighWaterMark(v float64) error {
	m.value, m.set = v, true
	return nil
}

func TestEvaluateUpdatesHighWaterMark(t *testing.T) {
	hwm := &memHighWater{}
	m := NewManager(0.2, 0.8, hwm)

	status := &types.PortfolioStatus{TotalValue: 100}
	dd, err := m.Evaluate(status)
	require.NoError(t, err)
	assert.Zero(t, dd)
	assert.Equal(t, 100.0, hwm.value)

	// Value falls: drawdown appears, mark stays.
	status.TotalValue = 85
	dd, err = m.Evaluate(status)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, dd, 1e-9)
	assert.Equal(t, 100.0, hwm.value)

	// New peak resets drawdown to zero.
	status.TotalValue = 120
	dd, err = m.Evaluate(status)
	require.NoError(t, err)
	assert.Zero(t, dd)
	assert.Equal(t, 120.0, hwm.value)
}

func TestExceeded(t *testing.T) {
	m := NewManager(0.2, 0.8, &memHighWater{})
	assert.False(t, m.Exceeded(0.2))
	assert.True(t, m.Exceeded(0.21))
}

func buyRecord(asset string, amount, price float64) types.TradeRecord {
	return types.TradeRecord{
		Asset: asset, Side: types.Buy, Amount: amount, Price: price,
		Timestamp: time.Now(), Success: true,
	}
}

func TestReductionPlanWorstFirst(t *testing.T) {
	m := NewManager(0.2, 0.8, &memHighWater{})
	status := types.PortfolioStatus{
		TotalValue: 100,
		Drawdown:   0.3,
		Positions: map[string]types.PositionValue{
			"winner": {Amount: 10, Value: 30},
			"loser":  {Amount: 20, Value: 30},
			"flat":   {Amount: 5, Value: 30},
		},
	}
	prices := map[string]float64{"winner": 3.0, "loser": 1.5, "flat": 6.0}
	records := []types.TradeRecord{
		buyRecord("winner", 10, 2.0), // +50%
		buyRecord("loser", 20, 3.0),  // -50%
		buyRecord("flat", 5, 6.0),    // 0%
	}

	plan := m.ReductionPlan(status, prices, records)
	require.NotEmpty(t, plan)
	assert.Equal(t, "loser", plan[0].Asset)
	if len(plan) > 1 {
		assert.Equal(t, "flat", plan[1].Asset)
	}
	// Projected drawdown after the plan must reach 80% of max drawdown.
	projected := status.Drawdown
	for _, l := range plan {
		projected *= 1 - l.Value/90
	}
	assert.LessOrEqual(t, projected, 0.8*0.2)
}

func TestReductionPlanStopsAtTarget(t *testing.T) {
	m := NewManager(0.2, 0.8, &memHighWater{})
	status := types.PortfolioStatus{
		TotalValue: 100,
		Drawdown:   0.21, // barely over: one liquidation should suffice
		Positions: map[string]types.PositionValue{
			"a": {Amount: 1, Value: 50},
			"b": {Amount: 1, Value: 50},
		},
	}
	prices := map[string]float64{"a": 1, "b": 1}
	records := []types.TradeRecord{buyRecord("a", 1, 2), buyRecord("b", 1, 0.5)}

	plan := m.ReductionPlan(status, prices, records)
	require.Len(t, plan, 1)
	assert.Equal(t, "a", plan[0].Asset) // -50% vs +100%
}

func TestReductionPlanExhaustsPositions(t *testing.T) {
	m := NewManager(0.1, 0.8, &memHighWater{})
	status := types.PortfolioStatus{
		Drawdown: 0.9,
		Positions: map[string]types.PositionValue{
			"only": {Amount: 1, Value: 10},
		},
	}
	plan := m.ReductionPlan(status, map[string]float64{"only": 1}, nil)
	// Liquidating everything still cannot hit the target, but the plan must
	// not loop: it exhausts the positions and stops.
	require.Len(t, plan, 1)
}

func TestReductionPlanEmptyPortfolio(t *testing.T) {
	m := NewManager(0.2, 0.8, &memHighWater{})
	assert.Nil(t, m.ReductionPlan(types.PortfolioStatus{Drawdown: 0.5}, nil, nil))
}
