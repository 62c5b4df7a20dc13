// Package metrics provides Prometheus metrics for the retrieval service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docqa"

// Metrics holds all Prometheus metrics of one service instance. Each
// instance owns its registry so tests can build several side by side.
type Metrics struct {
	registry *prometheus.Registry

	// Ingest
	DocumentsIngested *prometheus.CounterVec
	ChunksIngested    prometheus.Counter
	IngestDuration    prometheus.Histogram

	// Retrieval
	Searches        *prometheus.CounterVec
	SearchDuration  *prometheus.HistogramVec
	SearchResults   prometheus.Histogram
	ContextTokens   prometheus.Histogram
	ContextOutcomes *prometheus.CounterVec

	// Generation
	Generations *prometheus.CounterVec

	// Sessions
	SessionsDeleted prometheus.Counter

	// HTTP
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		DocumentsIngested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents submitted for ingestion by outcome",
		}, []string{"status"}),
		ChunksIngested: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_ingested_total",
			Help:      "Chunks published to the store",
		}),
		IngestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Time to extract features and publish a document",
			Buckets:   prometheus.DefBuckets,
		}),

		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Retrieval operations by kind and outcome",
		}, []string{"kind", "status"}),
		SearchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of retrieval operations",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"kind"}),
		SearchResults: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per chunk-level search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		ContextTokens: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "context_tokens",
			Help:      "Estimated tokens of assembled contexts",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 8),
		}),
		ContextOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_outcomes_total",
			Help:      "Assembled contexts by outcome",
		}, []string{"outcome"}),

		Generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Answer generation calls by outcome",
		}, []string{"status"}),

		SessionsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_deleted_total",
			Help:      "Sessions removed from the store",
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry returns the registry all metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSearch records one retrieval operation of the given kind.
func (m *Metrics) ObserveSearch(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(kind, Status(err)).Inc()
	m.SearchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// Status maps an error to the "ok"/"error" label value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
