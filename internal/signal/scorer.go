package signal

import (
	"fmt"
	"math"
	"sort"

	"solhelm/internal/analysis"
)

// Thresholds gate which scored candidates survive filtering.
type Thresholds struct {
	MinScore     float64
	MinLiquidity float64
	MinVolume    float64
}

// Scorer computes composite scores. SocialWeight scales the social component
// and is dropped to near zero when the social feed goes stale; RankValid
// clears when the ranking feed is stale so its metrics are bypassed.
type Scorer struct {
	Thresholds   Thresholds
	SocialWeight float64
	RankValid    bool
}

func NewScorer(th Thresholds) *Scorer {
	return &Scorer{Thresholds: th, SocialWeight: 1, RankValid: true}
}

// Score computes the composite score in place and appends the contributing
// reasons. Components: technical up to ~40, social up to 30, market up to 30.
func (s *Scorer) Score(sig *TokenSignal) {
	var total float64
	if sig.Technical != nil {
		t := technicalScore(*sig.Technical, &sig.Reasons)
		total += t
	}
	if sig.Social != nil {
		weight := s.SocialWeight
		soc := socialScore(*sig.Social) * weight
		if soc > 0 {
			sig.Reasons = append(sig.Reasons, fmt.Sprintf("social score %.0f", soc))
		}
		total += soc
	}
	m := marketScore(sig.MarketCap, sig.Volume24h, sig.Liquidity)
	if m > 0 {
		sig.Reasons = append(sig.Reasons, fmt.Sprintf("market score %.0f", m))
	}
	total += m
	sig.Score += total
}

// Rank scores, filters, and sorts candidates best-first. The sort is stable:
// equal scores keep their input order, which is the only tie-break defined.
func (s *Scorer) Rank(signals []TokenSignal) []TokenSignal {
	for i := range signals {
		s.Score(&signals[i])
	}
	kept := make([]TokenSignal, 0, len(signals))
	for _, sig := range signals {
		if sig.Score < s.Thresholds.MinScore {
			continue
		}
		if sig.Liquidity < s.Thresholds.MinLiquidity {
			continue
		}
		if sig.Volume24h < s.Thresholds.MinVolume {
			continue
		}
		kept = append(kept, sig)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	return kept
}

func technicalScore(t analysis.Snapshot, reasons *[]string) float64 {
	var score float64
	switch {
	case t.RSI < 30:
		score += 10
		*reasons = append(*reasons, "oversold RSI")
	case t.RSI > 70:
		score -= 5
		*reasons = append(*reasons, "overbought RSI")
	default:
		score += 5
	}
	switch {
	case t.MACD.Value > 0 && t.MACD.Value > t.MACD.Signal:
		score += 10
		*reasons = append(*reasons, "bullish MACD")
	case t.MACD.Value < 0 && math.Abs(t.MACD.Value) > math.Abs(t.MACD.Signal):
		score -= 5
		*reasons = append(*reasons, "bearish MACD")
	}
	if t.VolumeProfile.Trend == analysis.TrendIncreasing && !t.VolumeProfile.UnusualActivity {
		score += 10
		*reasons = append(*reasons, "healthy volume growth")
	}
	switch {
	case t.Volatility < 0.2:
		score += 10
		*reasons = append(*reasons, "low volatility")
	case t.Volatility > 0.5:
		score -= 5
		*reasons = append(*reasons, "high volatility")
	}
	return score
}

// tier maps a value onto the 0/2/4/6/8/10 ladder given ascending cut points.
func tier(value float64, cuts [5]float64) float64 {
	score := 0.0
	for _, cut := range cuts {
		if value >= cut {
			score += 2
		}
	}
	return score
}

// invertedTier scores lower values higher (growth-room heuristic for caps).
func invertedTier(value float64, cuts [5]float64) float64 {
	score := 10.0
	for _, cut := range cuts {
		if value >= cut {
			score -= 2
		}
	}
	return score
}

func socialScore(soc SocialSnapshot) float64 {
	score := tier(float64(soc.MentionCount), [5]float64{50, 100, 200, 500, 1000})
	score += tier(soc.Sentiment, [5]float64{0.1, 0.2, 0.4, 0.6, 0.8})
	score += tier(float64(soc.InfluencerMention), [5]float64{1, 2, 3, 5, 10})
	return score
}

func marketScore(marketCap, volume24h, liquidity float64) float64 {
	score := invertedTier(marketCap, [5]float64{1e6, 5e6, 2e7, 1e8, 5e8})
	score += tier(volume24h, [5]float64{5e4, 1e5, 5e5, 1e6, 5e6})
	score += tier(liquidity, [5]float64{5e4, 1e5, 2e5, 5e5, 1e6})
	return score
}
