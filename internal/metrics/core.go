package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search, bulk mutation and embedding collectors.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy", "mode"},
	)

	SearchCorpusSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_corpus_size",
			Help:      "Number of owner illustrations scored per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	SearchResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_results_total",
			Help:      "Total candidates returned by search",
		},
	)

	BulkMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_mutations_total",
			Help:      "Bulk mutations by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	BulkIllustrationsChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_illustrations_changed_total",
			Help:      "Illustrations whose state changed through bulk mutations",
		},
		[]string{"action"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)
)

func init() {
	prometheus.MustRegister(
		SearchDuration,
		SearchCorpusSize,
		SearchResultsTotal,
		BulkMutationsTotal,
		BulkIllustrationsChanged,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
	)
}

// ObserveSearch records one completed search.
func ObserveSearch(strategy string, hybrid bool, corpus, results int, elapsed time.Duration) {
	mode := "text"
	if hybrid {
		mode = "hybrid"
	}
	SearchDuration.WithLabelValues(strategy, mode).Observe(elapsed.Seconds())
	SearchCorpusSize.Observe(float64(corpus))
	SearchResultsTotal.Add(float64(results))
}

// ObserveBulk records one bulk mutation attempt.
func ObserveBulk(action string, changed int, err error) {
	if err != nil {
		BulkMutationsTotal.WithLabelValues(action, "error").Inc()
		return
	}
	BulkMutationsTotal.WithLabelValues(action, "ok").Inc()
	BulkIllustrationsChanged.WithLabelValues(action).Add(float64(changed))
}
