// Package types holds the domain values shared across the engine: positions,
// portfolio snapshots, order intents, and trade records.
package types

import "time"

// NativeAsset is the chain's native asset, used as the conservative fallback
// candidate and as the circuit breaker's reference asset.
const (
	NativeAsset       = "So11111111111111111111111111111111111111112"
	NativeAssetSymbol = "SOL"
)

// Side is the direction of an order intent.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderIntent is the engine's output: a fully parameterized trade decision
// handed to the external executor. Every intent carries a human-readable
// Reason; there are no silent trades.
type OrderIntent struct {
	TraceID     string    `json:"traceId"`
	Asset       string    `json:"asset"`
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Amount      float64   `json:"amount"`
	SlippageBps int       `json:"slippageBps"`
	Reason      string    `json:"reason"`
	EmittedAt   time.Time `json:"emittedAt"`
}

// Position is one open holding. The monitor owns it exclusively while open;
// the trailing high after a partial take profit lives in its trailing-stop
// record, not here.
type Position struct {
	TokenAddress string    `json:"tokenAddress"`
	Symbol       string    `json:"symbol"`
	Amount       float64   `json:"amount"`
	BuyPrice     float64   `json:"buyPrice"`
	BuyTimestamp time.Time `json:"buyTimestamp"`
}

// PositionValue is a position's holding restated at current prices.
type PositionValue struct {
	Amount float64 `json:"amount"`
	Value  float64 `json:"value"`
}

// PortfolioStatus is recomputed on demand each evaluation cycle and never
// cached across cycles.
type PortfolioStatus struct {
	TotalValue float64                  `json:"totalValue"`
	Positions  map[string]PositionValue `json:"positions"`
	SolBalance float64                  `json:"solBalance"`
	Drawdown   float64                  `json:"drawdown"`
}

// TradeRecord is one completed execution, persisted for cost-basis ranking
// and for the adaptive slippage recalibration.
type TradeRecord struct {
	Asset             string    `json:"asset"`
	Side              Side      `json:"side"`
	Amount            float64   `json:"amount"`
	Price             float64   `json:"price"`
	SlippageBpsUsed   int       `json:"slippageBpsUsed"`
	ActualSlippageBps int       `json:"actualSlippageBps"`
	LiquidityUSD      float64   `json:"liquidityUsd"`
	Volume24hUSD      float64   `json:"volume24hUsd"`
	Timestamp         time.Time `json:"timestamp"`
	Success           bool      `json:"success"`
}
