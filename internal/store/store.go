// Package store defines the engine's persistence port. All cross-cycle state
// goes through semantic load/save records: high-water mark, trailing stops,
// the paused flag, tuned slippage settings, positions, trade records, and
// the decision audit log.
package store

import (
	"time"

	"solhelm/internal/breaker"
	"solhelm/internal/monitor"
	"solhelm/internal/risk"
	"solhelm/internal/slippage"
	"solhelm/internal/types"
)

// DecisionEntry is one audited engine decision. Every emitted intent and
// every explicit hold or pause lands here with its reason.
type DecisionEntry struct {
	TraceID   string    `json:"traceId"`
	Action    string    `json:"action"` // buy | sell | hold | pause
	Asset     string    `json:"asset"`
	Symbol    string    `json:"symbol"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// StateStore is the full persistence surface the engine depends on. The
// embedded interfaces are the ports each component already consumes; a
// single store implementation backs them all.
type StateStore interface {
	risk.HighWaterStore
	monitor.TrailingStore
	breaker.PauseStore

	LoadSlippageSettings() (slippage.Settings, bool, error)
	SaveSlippageSettings(s slippage.Settings) error

	SavePosition(p types.Position) error
	DeletePosition(asset string) error
	LoadPositions() ([]types.Position, error)

	RecordTrade(r types.TradeRecord) error
	RecentTrades(limit int) ([]types.TradeRecord, error)

	Close() error
}

// DecisionLog is the audit trail, kept apart from hot-path state so its
// writes never contend with the monitoring cycle.
type DecisionLog interface {
	AppendDecision(e DecisionEntry) error
	RecentDecisions(limit int) ([]DecisionEntry, error)
	Close() error
}
