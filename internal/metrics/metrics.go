// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pith"

// Compression outcomes for the compressions_total counter.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

var (
	// Compressions counts compression requests by the strategy that
	// produced the final result and how it got there.
	Compressions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compressions_total",
		Help:      "Compression requests by final strategy and outcome.",
	}, []string{"strategy", "outcome"})

	// TokensSaved accumulates estimated tokens removed across all
	// sessions.
	TokensSaved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_saved_total",
		Help:      "Estimated tokens removed by compression.",
	})

	// QuotaRejections counts requests denied by the daily quota.
	QuotaRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_rejections_total",
		Help:      "Requests rejected because the daily quota was exhausted.",
	})

	// QualityScore observes the quality of accepted results.
	QualityScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "quality_score",
		Help:      "Quality scores of accepted compression results.",
		Buckets:   prometheus.LinearBuckets(0.5, 0.05, 11),
	})
)
