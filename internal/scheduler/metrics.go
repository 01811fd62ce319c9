package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision sources.
const (
	SourceRemote  = "remote"
	SourceOffline = "offline"
	SourceBreaker = "breaker"
	SourceParse   = "parse_fallback"
	SourceError   = "error_fallback"
)

var (
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duel_brain_decisions_total",
			Help: "Decisions returned, by source and tier.",
		},
		[]string{"source", "tier"},
	)
	remoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duel_brain_remote_requests_total",
			Help: "Remote chat requests by outcome.",
		},
		[]string{"model", "status"},
	)
	remoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duel_brain_remote_request_duration_seconds",
			Help:    "Latency of remote chat requests.",
			Buckets: []float64{.1, .25, .5, .75, 1, 1.5, 2, 3, 5},
		},
		[]string{"model"},
	)
	breakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "duel_brain_breaker_open",
		Help: "1 while the remote circuit breaker is open.",
	})
)
