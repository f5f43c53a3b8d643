// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GradeWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_grade_writes_total",
			Help: "Total number of grade writes by grading system and outcome",
		},
		[]string{"system", "outcome"},
	)

	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_rejections_total",
			Help: "Total number of rejected journal operations by error kind",
		},
		[]string{"kind"},
	)

	GradeValueHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_grade_value",
			Help:    "Distribution of recorded grade values",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
		[]string{"system"},
	)

	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_aggregation_duration_seconds",
			Help:    "Time spent computing averages and journal views",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scope"},
	)

	UntimestampedGradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journal_untimestamped_grades_total",
			Help: "Grades without createdAt that were included in an aggregation",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
