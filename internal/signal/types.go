// Package signal defines the per-asset signal model and the composite
// scorer that ranks entry candidates across heterogeneous feeds.
package signal

import (
	"solhelm/internal/analysis"
)

// SocialSnapshot captures mention-feed metrics for one asset.
type SocialSnapshot struct {
	MentionCount      int     `json:"mentionCount"`
	Sentiment         float64 `json:"sentiment"` // [-1, 1]
	InfluencerMention int     `json:"influencerMentions"`
}

// RankSnapshot captures ranking-feed metrics for one asset.
type RankSnapshot struct {
	Rank            int     `json:"rank"`
	PriceChange24h  float64 `json:"priceChange24h"`
	VolumeChange24h float64 `json:"volumeChange24h"`
}

// TokenSignal is the merged per-asset signal. Each feed populates the subtree
// it owns; Score is only meaningful after scoring, and Reasons is append-only
// provenance carried through to the emitted intent.
type TokenSignal struct {
	Address   string   `json:"address"`
	Symbol    string   `json:"symbol"`
	MarketCap float64  `json:"marketCap"`
	Volume24h float64  `json:"volume24h"`
	Price     float64  `json:"price"`
	Liquidity float64  `json:"liquidity"`
	Score     float64  `json:"score"`
	Reasons   []string `json:"reasons"`

	Technical *analysis.Snapshot `json:"technical,omitempty"`
	Social    *SocialSnapshot    `json:"social,omitempty"`
	Rank      *RankSnapshot      `json:"rank,omitempty"`
}

// Merge folds raw feed signals keyed by address. Reasons concatenate and
// partial scores sum; for every other field the first writer wins. Feeds own
// disjoint metric subtrees in practice, so no deep merge is attempted.
func Merge(batches ...[]TokenSignal) []TokenSignal {
	index := make(map[string]int)
	var out []TokenSignal
	for _, batch := range batches {
		for _, sig := range batch {
			if sig.Address == "" {
				continue
			}
			at, seen := index[sig.Address]
			if !seen {
				index[sig.Address] = len(out)
				out = append(out, sig)
				continue
			}
			dst := &out[at]
			dst.Score += sig.Score
			dst.Reasons = append(dst.Reasons, sig.Reasons...)
			if dst.Symbol == "" {
				dst.Symbol = sig.Symbol
			}
			if dst.MarketCap == 0 {
				dst.MarketCap = sig.MarketCap
			}
			if dst.Volume24h == 0 {
				dst.Volume24h = sig.Volume24h
			}
			if dst.Price == 0 {
				dst.Price = sig.Price
			}
			if dst.Liquidity == 0 {
				dst.Liquidity = sig.Liquidity
			}
			if dst.Technical == nil {
				dst.Technical = sig.Technical
			}
			if dst.Social == nil {
				dst.Social = sig.Social
			}
			if dst.Rank == nil {
				dst.Rank = sig.Rank
			}
		}
	}
	return out
}
