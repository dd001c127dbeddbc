package feeds

import (
	"fmt"

	"github.com/tidwall/gjson"

	"solhelm/internal/signal"
)

const rankingSchema = `{
	"type": "object",
	"required": ["data"],
	"properties": {
		"updatedAt": {"type": "string"},
		"data": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["address", "rank"],
				"properties": {
					"address":         {"type": "string", "minLength": 1},
					"symbol":          {"type": "string"},
					"rank":            {"type": "integer", "minimum": 1},
					"marketCap":       {"type": "number", "minimum": 0},
					"volume24h":       {"type": "number", "minimum": 0},
					"priceChange24h":  {"type": "number"},
					"volumeChange24h": {"type": "number"}
				}
			}
		}
	}
}`

// NewRankingFeed adapts a market-ranking source. Unlike the other feeds the
// payload is an envelope with an update timestamp, so staleness can be
// judged from the payload itself when the transport caches.
func NewRankingFeed(source RawSource) SignalFeed {
	return &baseFeed{
		name:   "ranking",
		source: source,
		schema: compileSchema("ranking.json", rankingSchema),
		parse:  parseRanking,
	}
}

func parseRanking(parsed gjson.Result) []signal.TokenSignal {
	var out []signal.TokenSignal
	parsed.Get("data").ForEach(func(_, item gjson.Result) bool {
		rank := int(item.Get("rank").Int())
		out = append(out, signal.TokenSignal{
			Address:   item.Get("address").String(),
			Symbol:    item.Get("symbol").String(),
			MarketCap: item.Get("marketCap").Float(),
			Volume24h: item.Get("volume24h").Float(),
			Rank: &signal.RankSnapshot{
				Rank:            rank,
				PriceChange24h:  item.Get("priceChange24h").Float(),
				VolumeChange24h: item.Get("volumeChange24h").Float(),
			},
			Reasons: []string{fmt.Sprintf("ranked #%d", rank)},
		})
		return true
	})
	return out
}
