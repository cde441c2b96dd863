package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every tideline collector. The CLI is short-lived, so metrics
// are flushed to a node_exporter textfile instead of being scraped.
var Registry = prometheus.NewRegistry()

var (
	ProviderCallsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tideline_provider_calls_total",
			Help: "Total Stormglass API calls",
		},
		[]string{"kind", "status"},
	)

	ProviderLatency = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tideline_provider_latency_seconds",
			Help:    "Stormglass API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	CacheLookups = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tideline_cache_lookups_total",
			Help: "Dataset cache lookups by result (hit, miss)",
		},
		[]string{"kind", "result"},
	)

	RecordsNormalized = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tideline_records_normalized_total",
			Help: "Records decoded from provider payloads",
		},
		[]string{"kind"},
	)

	RenderDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tideline_render_duration_seconds",
			Help:    "Time to draw one timeline",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	LastRenderTimestamp = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "tideline_last_render_timestamp_seconds",
			Help: "Unix time of the last successful render",
		},
	)
)

// WriteTextfile writes the current values in the text exposition format.
// An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, Registry)
}
