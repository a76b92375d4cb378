package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droughtguard_predictions_total",
			Help: "Total prediction requests served",
		},
		[]string{"status"},
	)

	MissingFeaturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droughtguard_missing_features_total",
			Help: "Feature keys defaulted to zero during vector assembly",
		},
		[]string{"horizon", "feature"},
	)

	NarrativeCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droughtguard_narrative_calls_total",
			Help: "Total narrative generator calls",
		},
		[]string{"mode", "status"},
	)

	NarrativeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "droughtguard_narrative_latency_seconds",
			Help:    "Narrative generator call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	NarrativeCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droughtguard_narrative_cache_total",
			Help: "Narrative cache lookups by outcome",
		},
		[]string{"mode", "outcome"},
	)
)
