package feeds

import (
	"fmt"

	"github.com/tidwall/gjson"

	"solhelm/internal/signal"
)

const socialSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["address", "mentionCount"],
		"properties": {
			"address":            {"type": "string", "minLength": 1},
			"symbol":             {"type": "string"},
			"mentionCount":       {"type": "integer", "minimum": 0},
			"sentiment":          {"type": "number", "minimum": -1, "maximum": 1},
			"influencerMentions": {"type": "integer", "minimum": 0}
		}
	}
}`

// NewSocialFeed adapts a social-mentions source.
func NewSocialFeed(source RawSource) SignalFeed {
	return &baseFeed{
		name:   "social",
		source: source,
		schema: compileSchema("social.json", socialSchema),
		parse:  parseSocial,
	}
}

func parseSocial(parsed gjson.Result) []signal.TokenSignal {
	var out []signal.TokenSignal
	parsed.ForEach(func(_, item gjson.Result) bool {
		snap := &signal.SocialSnapshot{
			MentionCount:      int(item.Get("mentionCount").Int()),
			Sentiment:         item.Get("sentiment").Float(),
			InfluencerMention: int(item.Get("influencerMentions").Int()),
		}
		out = append(out, signal.TokenSignal{
			Address: item.Get("address").String(),
			Symbol:  item.Get("symbol").String(),
			Social:  snap,
			Reasons: []string{fmt.Sprintf("social: %d mentions", snap.MentionCount)},
		})
		return true
	})
	return out
}
