// Package metrics holds the Prometheus collectors of the adapter. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Tool call outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

var latencyBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

type Metrics struct {
	toolCalls        *prometheus.CounterVec
	toolLatency      *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
}

// New creates the collectors and registers them with registerer.
// If registerer is nil, prometheus.DefaultRegisterer is used.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tripletex_mcp",
				Subsystem: "tool",
				Name:      "calls_total",
				Help:      "Tool calls by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		toolLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tripletex_mcp",
				Subsystem: "tool",
				Name:      "latency_seconds",
				Help:      "Tool call latency including the upstream exchange",
				Buckets:   latencyBuckets,
			},
			[]string{"tool"},
		),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tripletex_mcp",
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Upstream exchanges by method and status code; failed exchanges use status \"error\"",
			},
			[]string{"method", "status"},
		),
		upstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tripletex_mcp",
				Subsystem: "upstream",
				Name:      "latency_seconds",
				Help:      "Upstream exchange latency",
				Buckets:   latencyBuckets,
			},
			[]string{"method"},
		),
	}

	registerer.MustRegister(
		m.toolCalls,
		m.toolLatency,
		m.upstreamRequests,
		m.upstreamLatency,
	)
	return m
}

// ObserveToolCall records one tool invocation.
func (m *Metrics) ObserveToolCall(tool, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolLatency.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveUpstream records one upstream exchange. err is the transport
// error, if any; HTTP error statuses are not errors here.
func (m *Metrics) ObserveUpstream(method string, status int, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := strconv.Itoa(status)
	if err != nil {
		label = "error"
	}
	m.upstreamRequests.WithLabelValues(method, label).Inc()
	m.upstreamLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}
