package risk

// Condition is the coarse market assessment derived from the reference
// asset's 24h change and RSI.
type Condition string

const (
	ConditionBullish Condition = "bullish"
	ConditionBearish Condition = "bearish"
	ConditionNeutral Condition = "neutral"
)

// AssessCondition classifies the market from the reference asset: bullish
// needs both momentum and headroom; either a sharp drop or an overbought RSI
// is enough to call it bearish.
func AssessCondition(priceChange24hPct, rsi float64) Condition {
	switch {
	case priceChange24hPct > 5 && rsi < 70:
		return ConditionBullish
	case priceChange24hPct < -5 || rsi > 70:
		return ConditionBearish
	default:
		return ConditionNeutral
	}
}
