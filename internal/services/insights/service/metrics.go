package service

import "github.com/prometheus/client_golang/prometheus"

// query kinds
const (
	kindAggregate = "aggregate"
	kindEvents    = "events"
)

// failure stages
const (
	stageCompile = "compile"
	stageExecute = "execute"
	stageShape   = "shape"
)

var (
	queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "insights",
			Name:      "query_duration_seconds",
			Help:      "Time taken to execute and shape an insights query.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"backend", "kind"},
	)
	queryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "insights",
			Name:      "query_errors_total",
			Help:      "Insights queries that failed, by stage.",
		},
		[]string{"backend", "kind", "stage"},
	)
	resultRows = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "insights",
			Name:      "query_result_rows",
			Help:      "Raw rows returned by the backend per insights query.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"backend", "kind"},
	)
)

func init() {
	prometheus.DefaultRegisterer.MustRegister(queryDuration, queryErrors, resultRows)
}
