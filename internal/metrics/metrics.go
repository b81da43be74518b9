// Package metrics provides Prometheus metrics for the dashboard client.
// It covers the push channel, status polling, operator commands and the
// account figures last shown on screen, exposed via the metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	// Push channel metrics
	SnapshotsReceived prometheus.Counter // Snapshots rendered
	TradesRendered    prometheus.Counter // Trade rows added to the log
	MessagesIgnored   prometheus.Counter // Frames that were malformed or of an unknown type
	WSReconnects      prometheus.Counter // Push channel reconnect attempts
	WSState           prometheus.Gauge   // 0 connecting, 1 open, 2 closed

	// Control metrics
	StatusPolls        prometheus.Counter
	StatusPollFailures prometheus.Counter
	Commands           *prometheus.CounterVec
	CommandFailures    *prometheus.CounterVec

	// Account metrics
	Equity          prometheus.Gauge
	PnLTotal        prometheus.Gauge
	ReturnPct       prometheus.Gauge
	ActivePositions prometheus.Gauge

	// System metrics
	ErrorsTotal prometheus.Counter
}

// New creates and registers all metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		SnapshotsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapshots_received_total",
			Help: "Total number of simulation snapshots rendered",
		}),
		TradesRendered: factory.NewCounter(prometheus.CounterOpts{
			Name: "trades_rendered_total",
			Help: "Total number of trades added to the trade log",
		}),
		MessagesIgnored: factory.NewCounter(prometheus.CounterOpts{
			Name: "messages_ignored_total",
			Help: "Total number of push messages ignored",
		}),
		WSReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "ws_reconnects_total",
			Help: "Total number of WebSocket reconnections",
		}),
		WSState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_state",
			Help: "Push channel state (0 connecting, 1 open, 2 closed)",
		}),
		StatusPolls: factory.NewCounter(prometheus.CounterOpts{
			Name: "status_polls_total",
			Help: "Total number of status polls issued",
		}),
		StatusPollFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "status_poll_failures_total",
			Help: "Total number of status polls that failed",
		}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commands_total",
			Help: "Total number of operator commands sent",
		}, []string{"command"}),
		CommandFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "command_failures_total",
			Help: "Total number of operator commands that failed",
		}, []string{"command"}),
		Equity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "equity",
			Help: "Account equity from the latest snapshot",
		}),
		PnLTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pnl_total",
			Help: "Current total profit and loss against the baseline",
		}),
		ReturnPct: factory.NewGauge(prometheus.GaugeOpts{
			Name: "return_pct",
			Help: "Current return on the baseline in percent",
		}),
		ActivePositions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "active_positions",
			Help: "Number of active positions",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}

// UpdatePositions counts the non-zero positions and updates the gauge.
func (m *Metrics) UpdatePositions(positions map[string]float64) {
	count := 0
	for _, pos := range positions {
		if pos != 0 {
			count++
		}
	}
	m.ActivePositions.Set(float64(count))
}
