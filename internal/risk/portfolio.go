package risk

import (
	"fmt"
	"math"
	"sort"

	"solhelm/internal/logger"
	"solhelm/internal/types"
)

// HighWaterStore persists the portfolio high-water mark across cycles.
type HighWaterStore interface {
	LoadHighWaterMark() (float64, bool, error)
	SaveHighWaterMark(v float64) error
}

// Manager tracks drawdown against the high-water mark and plans forced
// liquidations once it exceeds the configured maximum.
type Manager struct {
	maxDrawdown float64
	targetAt    float64 // fraction of maxDrawdown to unwind to
	store       HighWaterStore
}

func NewManager(maxDrawdown, targetAt float64, store HighWaterStore) *Manager {
	return &Manager{maxDrawdown: maxDrawdown, targetAt: targetAt, store: store}
}

// Evaluate updates the high-water mark from totalValue (monotonically
// non-decreasing) and returns the current drawdown, clamped to >= 0.
func (m *Manager) Evaluate(status *types.PortfolioStatus) (float64, error) {
	hwm, ok, err := m.store.LoadHighWaterMark()
	if err != nil {
		return 0, fmt.Errorf("loading high-water mark: %w", err)
	}
	if !ok || status.TotalValue > hwm {
		hwm = status.TotalValue
		if err := m.store.SaveHighWaterMark(hwm); err != nil {
			return 0, fmt.Errorf("saving high-water mark: %w", err)
		}
	}
	drawdown := 0.0
	if hwm > 0 {
		drawdown = math.Max(0, (hwm-status.TotalValue)/hwm)
	}
	status.Drawdown = drawdown
	return drawdown, nil
}

// Exceeded reports whether drawdown breaches the configured maximum.
func (m *Manager) Exceeded(drawdown float64) bool {
	return drawdown > m.maxDrawdown
}

// Liquidation is one planned forced exit.
type Liquidation struct {
	Asset       string
	Amount      float64
	Value       float64
	Performance float64 // fractional return vs average cost basis
}

// ReductionPlan ranks open positions worst-performance-first (current price
// vs average cost basis from trade records) and selects liquidations until
// the projected drawdown falls to targetAt of maxDrawdown or positions run
// out. Projection model: liquidating a position removes its share of the
// at-risk exposure, scaling the remaining drawdown proportionally.
func (m *Manager) ReductionPlan(status types.PortfolioStatus, prices map[string]float64, records []types.TradeRecord) []Liquidation {
	if len(status.Positions) == 0 {
		return nil
	}
	basis := averageCostBasis(records)

	candidates := make([]Liquidation, 0, len(status.Positions))
	var exposure float64
	for asset, pos := range status.Positions {
		if pos.Amount <= 0 {
			continue
		}
		perf := 0.0
		if cost, ok := basis[asset]; ok && cost > 0 {
			if price, ok := prices[asset]; ok {
				perf = (price - cost) / cost
			}
		}
		candidates = append(candidates, Liquidation{
			Asset:       asset,
			Amount:      pos.Amount,
			Value:       pos.Value,
			Performance: perf,
		})
		exposure += pos.Value
	}
	if len(candidates) == 0 || exposure <= 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Performance < candidates[j].Performance
	})

	target := m.targetAt * m.maxDrawdown
	projected := status.Drawdown
	var plan []Liquidation
	for _, c := range candidates {
		if projected <= target {
			break
		}
		plan = append(plan, c)
		projected *= 1 - c.Value/exposure
	}
	if len(plan) > 0 {
		logger.Warnf("risk reduction: drawdown %.2f%% > max %.2f%%, liquidating %d position(s), projected %.2f%%",
			status.Drawdown*100, m.maxDrawdown*100, len(plan), projected*100)
	}
	return plan
}

// averageCostBasis derives the per-asset average buy price from successful
// buy records.
func averageCostBasis(records []types.TradeRecord) map[string]float64 {
	type acc struct{ cost, amount float64 }
	sums := make(map[string]acc)
	for _, r := range records {
		if r.Side != types.Buy || !r.Success || r.Amount <= 0 {
			continue
		}
		a := sums[r.Asset]
		a.cost += r.Price * r.Amount
		a.amount += r.Amount
		sums[r.Asset] = a
	}
	out := make(map[string]float64, len(sums))
	for asset, a := range sums {
		if a.amount > 0 {
			out[asset] = a.cost / a.amount
		}
	}
	return out
}
