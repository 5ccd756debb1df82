package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for QueryRequests.
const (
	OutcomeOK               = "ok"
	OutcomeForbidden        = "forbidden"
	OutcomeExecutionError   = "execution_error"
	OutcomeTranslationError = "translation_error"
)

// Registry holds every nlsql collector plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var (
	// QueryRequests counts pipeline runs by outcome
	QueryRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlsql_query_requests_total",
			Help: "Number of natural-language queries by outcome",
		},
		[]string{"outcome"},
	)

	// StageDuration tracks time spent in translation and execution
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlsql_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	// ResultRows tracks result-set sizes
	ResultRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nlsql_result_rows",
			Help:    "Number of rows returned by successful queries",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 500, 1000},
		},
	)
)

func init() {
	Registry.MustRegister(
		QueryRequests,
		StageDuration,
		ResultRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordOutcome records one finished pipeline run
func RecordOutcome(outcome string) {
	QueryRequests.WithLabelValues(outcome).Inc()
}

// RecordStage records a stage duration in seconds
func RecordStage(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordRows records the size of a result set
func RecordRows(n int) {
	ResultRows.Observe(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
