package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solhelm/internal/analysis"
)

func defaultThresholds() Thresholds {
	return Thresholds{MinScore: 60, MinLiquidity: 50_000, MinVolume: 100_000}
}

func TestMergeConcatenatesReasonsAndSumsScores(t *testing.T) {
	a := []TokenSignal{{
		Address: "mint1", Symbol: "AAA", Liquidity: 100_000,
		Score: 10, Reasons: []string{"trending by liquidity"},
	}}
	b := []TokenSignal{{
		Address: "mint1", Score: 5, Reasons: []string{"social buzz"},
		Social: &SocialSnapshot{MentionCount: 300},
	}}
	merged := Merge(a, b)
	require.Len(t, merged, 1)
	assert.Equal(t, 15.0, merged[0].Score)
	assert.Equal(t, []string{"trending by liquidity", "social buzz"}, merged[0].Reasons)
	assert.Equal(t, "AAA", merged[0].Symbol)
	require.NotNil(t, merged[0].Social)
}

func TestMergeFirstWriterWinsOnMetricFields(t *testing.T) {
	a := []TokenSignal{{Address: "mint1", Price: 1.5, Liquidity: 200_000}}
	b := []TokenSignal{{Address: "mint1", Price: 9.9, Liquidity: 1, MarketCap: 5e6}}
	merged := Merge(a, b)
	require.Len(t, merged, 1)
	assert.Equal(t, 1.5, merged[0].Price)
	assert.Equal(t, 200_000.0, merged[0].Liquidity)
	// Zero fields are filled by later feeds.
	assert.Equal(t, 5e6, merged[0].MarketCap)
}

func TestTechnicalScoreComponents(t *testing.T) {
	cases := []struct {
		name string
		snap analysis.Snapshot
		want float64
	}{
		{
			name: "oversold bullish quiet",
			snap: analysis.Snapshot{
				RSI:        25,
				MACD:       analysis.MACDValue{Value: 1, Signal: 0.5},
				Volatility: 0.1,
				VolumeProfile: analysis.VolumeProfileResult{
					Trend: analysis.TrendIncreasing,
				},
			},
			want: 40,
		},
		{
			name: "overbought bearish churn",
			snap: analysis.Snapshot{
				RSI:        80,
				MACD:       analysis.MACDValue{Value: -2, Signal: -1},
				Volatility: 0.9,
				VolumeProfile: analysis.VolumeProfileResult{
					Trend:           analysis.TrendIncreasing,
					UnusualActivity: true,
				},
			},
			want: -15,
		},
		{
			name: "neutral midrange",
			snap: analysis.Snapshot{RSI: 50, Volatility: 0.3},
			want: 5,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var reasons []string
			assert.Equal(t, tc.want, technicalScore(tc.snap, &reasons))
		})
	}
}

func TestSocialAndMarketTiers(t *testing.T) {
	assert.Equal(t, 30.0, socialScore(SocialSnapshot{MentionCount: 2000, Sentiment: 0.9, InfluencerMention: 12}))
	assert.Equal(t, 0.0, socialScore(SocialSnapshot{Sentiment: -0.5}))
	assert.Equal(t, 6.0, socialScore(SocialSnapshot{MentionCount: 250}))

	// Low cap with strong volume and liquidity maxes the market component.
	assert.Equal(t, 30.0, marketScore(500_000, 6e6, 2e6))
	// Mega cap scores zero on the inverted tier.
	assert.Equal(t, 0.0, marketScore(1e9, 10_000, 10_000))
}

func TestRankScoreBoundaryInclusive(t *testing.T) {
	s := NewScorer(defaultThresholds())
	in := []TokenSignal{
		{Address: "under", Score: 59.9, Liquidity: 1e6, Volume24h: 1e6, MarketCap: 1e9},
		{Address: "exact", Score: 60.0, Liquidity: 1e6, Volume24h: 1e6, MarketCap: 1e9},
	}
	// MarketCap 1e9 and no technical/social data keeps prior score intact
	// except for the market component, which is zero at that cap... volume and
	// liquidity tiers still contribute, so subtract them via thresholds below.
	s.Thresholds.MinScore = 60 + marketScore(1e9, 1e6, 1e6)
	ranked := s.Rank(in)
	require.Len(t, ranked, 1)
	assert.Equal(t, "exact", ranked[0].Address)
}

func TestRankFiltersLiquidityAndVolume(t *testing.T) {
	s := NewScorer(Thresholds{MinScore: 0, MinLiquidity: 50_000, MinVolume: 100_000})
	in := []TokenSignal{
		{Address: "thin", Liquidity: 49_999, Volume24h: 1e6},
		{Address: "quiet", Liquidity: 1e6, Volume24h: 99_999},
		{Address: "ok", Liquidity: 50_000, Volume24h: 100_000},
	}
	ranked := s.Rank(in)
	require.Len(t, ranked, 1)
	assert.Equal(t, "ok", ranked[0].Address)
}

func TestRankStableSortPreservesInputOrderOnTies(t *testing.T) {
	s := NewScorer(Thresholds{})
	in := []TokenSignal{
		{Address: "first", Score: 70, Liquidity: 1e5, Volume24h: 1e5, MarketCap: 1e9},
		{Address: "second", Score: 70, Liquidity: 1e5, Volume24h: 1e5, MarketCap: 1e9},
		{Address: "third", Score: 80, Liquidity: 1e5, Volume24h: 1e5, MarketCap: 1e9},
	}
	ranked := s.Rank(in)
	require.Len(t, ranked, 3)
	assert.Equal(t, "third", ranked[0].Address)
	assert.Equal(t, "first", ranked[1].Address)
	assert.Equal(t, "second", ranked[2].Address)
}

func TestSocialWeightDegradation(t *testing.T) {
	s := NewScorer(Thresholds{})
	sig := TokenSignal{
		Address: "mint1",
		Social:  &SocialSnapshot{MentionCount: 2000, Sentiment: 0.9, InfluencerMention: 12},
	}
	full := sig
	s.Score(&full)

	s.SocialWeight = 0.01
	degraded := sig
	s.Score(&degraded)
	assert.Greater(t, full.Score, degraded.Score)
	assert.InDelta(t, 30*0.01, degraded.Score-marketScore(0, 0, 0), 1e-9)
}
