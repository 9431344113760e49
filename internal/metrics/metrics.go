// Package metrics holds the Prometheus collectors for catalog loads and
// recommendation requests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coursematch_catalog_load_duration_seconds",
			Help:    "Time to fetch, normalize and index the catalog",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursematch_catalog_load_errors_total",
			Help: "Catalog loads that failed, by cause",
		},
		[]string{"cause"},
	)

	CatalogKeptItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coursematch_catalog_kept_items",
			Help: "Items with usable text in the most recent catalog load",
		},
	)

	CatalogVocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coursematch_catalog_vocabulary_size",
			Help: "Distinct terms in the most recent similarity index",
		},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursematch_recommendations_total",
			Help: "Recommendation requests, by outcome (ok or error cause)",
		},
		[]string{"outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursematch_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)

// RecordCatalogLoad records a successful catalog load.
func RecordCatalogLoad(d time.Duration, kept, vocabulary int) {
	CatalogLoadDuration.Observe(d.Seconds())
	CatalogKeptItems.Set(float64(kept))
	CatalogVocabularySize.Set(float64(vocabulary))
}

// RecordCatalogError records a failed catalog load.
func RecordCatalogError(cause string) {
	CatalogLoadErrors.WithLabelValues(cause).Inc()
}

// RecordRecommendation records the outcome of one user's recommendation.
// An empty cause means success.
func RecordRecommendation(cause string) {
	if cause == "" {
		cause = "ok"
	}
	RecommendationsTotal.WithLabelValues(cause).Inc()
}
