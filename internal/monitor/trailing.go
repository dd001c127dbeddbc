package monitor

import (
	"time"
)

// TrailingStop is the persisted sub-state tracking the remainder of a
// position after a partial take profit. HighestPrice only ratchets upward.
type TrailingStop struct {
	Asset        string    `json:"asset"`
	Symbol       string    `json:"symbol"`
	Amount       float64   `json:"amount"`
	HighestPrice float64   `json:"highestPrice"`
	TrailPct     float64   `json:"trailPct"`
	StartedAt    time.Time `json:"startedAt"`
}

// stopPrice is the exit trigger level below the trailing high.
func (t TrailingStop) stopPrice() float64 {
	return t.HighestPrice * (1 - t.TrailPct/100)
}

// TrailingStore persists trailing-stop records across monitoring cycles.
type TrailingStore interface {
	LoadTrailingStop(asset string) (TrailingStop, bool, error)
	SaveTrailingStop(ts TrailingStop) error
	DeleteTrailingStop(asset string) error
}
