package feeds

import (
	"github.com/tidwall/gjson"

	"solhelm/internal/signal"
)

// trendingSchema validates the trending-by-liquidity payload: an array of
// pool records carrying market data.
const trendingSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["address", "liquidity"],
		"properties": {
			"address":   {"type": "string", "minLength": 1},
			"symbol":    {"type": "string"},
			"price":     {"type": "number", "minimum": 0},
			"liquidity": {"type": "number", "minimum": 0},
			"volume24h": {"type": "number", "minimum": 0},
			"marketCap": {"type": "number", "minimum": 0}
		}
	}
}`

// NewTrendingFeed adapts a trending-pools source. Each record contributes a
// small base score so that freshly trending assets clear zero even before
// technical scoring runs.
func NewTrendingFeed(source RawSource) SignalFeed {
	return &baseFeed{
		name:   "trending",
		source: source,
		schema: compileSchema("trending.json", trendingSchema),
		parse:  parseTrending,
	}
}

func parseTrending(parsed gjson.Result) []signal.TokenSignal {
	var out []signal.TokenSignal
	parsed.ForEach(func(_, item gjson.Result) bool {
		sig := signal.TokenSignal{
			Address:   item.Get("address").String(),
			Symbol:    item.Get("symbol").String(),
			Price:     item.Get("price").Float(),
			Liquidity: item.Get("liquidity").Float(),
			Volume24h: item.Get("volume24h").Float(),
			MarketCap: item.Get("marketCap").Float(),
			Reasons:   []string{"trending by liquidity"},
		}
		out = append(out, sig)
		return true
	})
	return out
}
