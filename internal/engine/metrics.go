package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the engine's operational counters, exposed on the admin
// server's /metrics endpoint.
type Metrics struct {
	Decisions     *prometheus.CounterVec
	Exits         *prometheus.CounterVec
	Pauses        prometheus.Counter
	FeedErrors    *prometheus.CounterVec
	Drawdown      prometheus.Gauge
	OpenPositions prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solhelm",
			Name:      "decisions_total",
			Help:      "Engine decisions by action (buy, sell, hold, pause).",
		}, []string{"action"}),
		Exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solhelm",
			Name:      "exits_total",
			Help:      "Position exits by rule.",
		}, []string{"kind"}),
		Pauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "solhelm",
			Name:      "pauses_total",
			Help:      "Circuit breaker trips.",
		}),
		FeedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solhelm",
			Name:      "feed_errors_total",
			Help:      "Signal feed failures by feed.",
		}, []string{"feed"}),
		Drawdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "solhelm",
			Name:      "portfolio_drawdown",
			Help:      "Current drawdown fraction against the high-water mark.",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "solhelm",
			Name:      "open_positions",
			Help:      "Number of open positions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Decisions, m.Exits, m.Pauses, m.FeedErrors, m.Drawdown, m.OpenPositions)
	}
	return m
}
