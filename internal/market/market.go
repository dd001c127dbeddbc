// Package market defines the outward-facing provider ports: price and
// metadata lookup, swap quoting, and order execution. The engine depends on
// these interfaces only; concrete providers live outside the decision core.
package market

import (
	"context"

	"solhelm/internal/types"
)

// PriceData is one market-data snapshot for an asset. Histories are ordered
// oldest first and sampled at the provider's native interval.
type PriceData struct {
	Price         float64
	MarketCap     float64
	LiquidityUSD  float64
	Volume24hUSD  float64
	PriceHistory  []float64
	VolumeHistory []float64
}

// TokenMetadata is the validation view of an asset.
type TokenMetadata struct {
	Verified               bool
	SuspiciousAttributes   []string
	OwnershipConcentration float64 // top-holder share, percent
	TaxPercentage          float64 // transfer tax, percent, usually 0
}

// Quote is a swap quote for a proposed trade.
type Quote struct {
	InputAsset  string
	OutputAsset string
	InAmount    float64
	OutAmount   float64
	SlippageBps int
	RoutePlan   []string
}

// MarketDataProvider serves prices and token metadata.
type MarketDataProvider interface {
	GetPrice(ctx context.Context, asset string) (PriceData, error)
	GetTokenMetadata(ctx context.Context, asset string) (TokenMetadata, error)
}

// QuoteProvider quotes swaps and builds the transactions for them.
type QuoteProvider interface {
	GetQuote(ctx context.Context, inputAsset, outputAsset string, amount float64, slippageBps int) (Quote, error)
	GetSwapTransaction(ctx context.Context, quote Quote, walletAddress string) ([]byte, error)
}

// ExecutionResult reports what actually happened on chain.
type ExecutionResult struct {
	Signature         string
	ExecutedAmount    float64
	ExecutedPrice     float64
	ActualSlippageBps float64
	Success           bool
}

// Executor submits an order intent for execution.
type Executor interface {
	Execute(ctx context.Context, intent types.OrderIntent) (ExecutionResult, error)
}

// WalletReader reports balances for the wallet sync cycle.
type WalletReader interface {
	NativeBalance(ctx context.Context) (float64, error)
	TokenBalances(ctx context.Context) (map[string]float64, error)
}
