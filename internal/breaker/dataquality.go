package breaker

import (
	"time"
)

// degradedSocialWeight is what the social score component is scaled by once
// the social feed goes stale. Stale chatter still carries a sliver of signal.
const degradedSocialWeight = 0.01

// FeedStatus is one feed's health as observed by the engine.
type FeedStatus struct {
	Name        string
	LastSuccess time.Time
	Err         error
}

// QualityConfig holds the per-feed staleness budgets.
type QualityConfig struct {
	SocialStale  time.Duration
	RankingStale time.Duration
}

// Degradation is the set of targeted mitigations the engine applies after a
// data-quality pass. The zero value means all feeds are healthy.
type Degradation struct {
	PauseEntries bool
	ReduceRisk   bool
	SocialWeight float64
	RankValid    bool
	Reasons      []string
}

// AssessDataQuality maps feed health to mitigations. Each feed degrades only
// what depends on it: primary price data is load-bearing and pauses entries
// outright, while stale social or ranking data just drops out of scoring.
func AssessDataQuality(cfg QualityConfig, primary, social, ranking FeedStatus, now time.Time) Degradation {
	d := Degradation{SocialWeight: 1, RankValid: true}

	if primary.Err != nil {
		d.PauseEntries = true
		d.ReduceRisk = true
		d.Reasons = append(d.Reasons, "primary feed failure: "+primary.Err.Error())
	}

	if social.Err != nil || (!social.LastSuccess.IsZero() && now.Sub(social.LastSuccess) > cfg.SocialStale) {
		d.SocialWeight = degradedSocialWeight
		d.Reasons = append(d.Reasons, "social feed stale, weight reduced")
	}

	if ranking.Err != nil || (!ranking.LastSuccess.IsZero() && now.Sub(ranking.LastSuccess) > cfg.RankingStale) {
		d.RankValid = false
		d.Reasons = append(d.Reasons, "ranking feed stale, marked invalid")
	}

	return d
}
