// Package metrics holds Prometheus instruments used across the engine.
// All collectors register with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ComposeTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weft_compose_total",
			Help: "Fragment compositions completed successfully.",
		})

	ComposeErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weft_compose_errors_total",
			Help: "Fragment compositions aborted by a render failure.",
		})

	ProtocolViolationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weft_protocol_violations_total",
			Help: "Fragment-only endpoints hit without the fragment marker.",
		})

	SecondaryFragments = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weft_secondary_fragments",
			Help:    "Secondary fragments emitted per composed response.",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		})

	NoticesDrainedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weft_notices_drained_total",
			Help: "Notices folded into responses.",
		})

	TeamResolutionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weft_team_resolution_total",
			Help: "Team resolutions by final state.",
		},
		[]string{"state"})
)

func init() {
	prometheus.MustRegister(
		ComposeTotal,
		ComposeErrorsTotal,
		ProtocolViolationsTotal,
		SecondaryFragments,
		NoticesDrainedTotal,
		TeamResolutionTotal,
	)
}
