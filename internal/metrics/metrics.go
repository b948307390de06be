// Package metrics exposes Prometheus collectors for the news service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	articlesIngestedTotal prometheus.Counter
	articlesFailedTotal   *prometheus.CounterVec
	ingestRunsTotal       *prometheus.CounterVec
	searchesTotal         *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		articlesIngestedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "news_articles_ingested_total",
				Help: "Total number of articles upserted into the similarity index.",
			},
		)

		articlesFailedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_articles_failed_total",
				Help: "Total number of per-article failures, labeled by pipeline step.",
			},
			[]string{"step"},
		)

		ingestRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_ingest_runs_total",
				Help: "Total number of ingestion runs, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		searchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_searches_total",
				Help: "Total number of search requests, labeled by status.",
			},
			[]string{"status"},
		)
	})
}

// ArticleIngested records a successful upsert.
func ArticleIngested() {
	if articlesIngestedTotal != nil {
		articlesIngestedTotal.Inc()
	}
}

// ArticleFailed records a per-article failure at the given step.
func ArticleFailed(step string) {
	if articlesFailedTotal != nil {
		articlesFailedTotal.WithLabelValues(step).Inc()
	}
}

// IngestRun records the outcome of a full pipeline run.
func IngestRun(outcome string) {
	if ingestRunsTotal != nil {
		ingestRunsTotal.WithLabelValues(outcome).Inc()
	}
}

// Search records a search request with its result status.
func Search(status string) {
	if searchesTotal != nil {
		searchesTotal.WithLabelValues(status).Inc()
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
