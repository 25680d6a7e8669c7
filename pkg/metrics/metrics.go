package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the exposure engine
type Metrics struct {
	SchedulerRuns      *prometheus.CounterVec
	SchedulerDuration  *prometheus.HistogramVec
	SpotsAllocated     prometheus.Counter
	ListingsDowngraded prometheus.Counter
	BoostsDeactivated  prometheus.Counter
	FeedRequests       *prometheus.HistogramVec
	RankingAnomalies   prometheus.Counter
	DBConnPoolStats    *prometheus.GaugeVec
}

// NewMetrics creates a new metrics instance
func NewMetrics(serviceName string) *Metrics {
	return &Metrics{
		SchedulerRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "findmiss",
				Subsystem: serviceName,
				Name:      "scheduler_runs_total",
				Help:      "Total scheduler job invocations",
			},
			[]string{"job", "status"},
		),
		SchedulerDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "findmiss",
				Subsystem: serviceName,
				Name:      "scheduler_run_duration_seconds",
				Help:      "Scheduler job duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		SpotsAllocated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "findmiss",
				Subsystem: serviceName,
				Name:      "spots_allocated_total",
				Help:      "Total daily visibility spots allocated",
			},
		),
		ListingsDowngraded: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "findmiss",
				Subsystem: serviceName,
				Name:      "listings_downgraded_total",
				Help:      "Total listings downgraded to basic on plan expiry",
			},
		),
		BoostsDeactivated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "findmiss",
				Subsystem: serviceName,
				Name:      "top_page_boosts_deactivated_total",
				Help:      "Total top page boosts deactivated after their window ended",
			},
		),
		FeedRequests: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "findmiss",
				Subsystem: serviceName,
				Name:      "feed_request_duration_seconds",
				Help:      "Feed query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"surface"},
		),
		RankingAnomalies: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "findmiss",
				Subsystem: serviceName,
				Name:      "ranking_anomalies_total",
				Help:      "Total malformed listing rows excluded from ranked output",
			},
		),
		DBConnPoolStats: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "findmiss",
				Subsystem: serviceName,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"}, // stat can be: open, in_use, idle, wait_count, etc.
		),
	}
}

// RecordSchedulerRun records one scheduler job invocation with its outcome
func (m *Metrics) RecordSchedulerRun(job string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SchedulerRuns.WithLabelValues(job, status).Inc()
	m.SchedulerDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}

// ObserveFeedRequest records the duration of one feed or reel query
func (m *Metrics) ObserveFeedRequest(surface string, start time.Time) {
	m.FeedRequests.WithLabelValues(surface).Observe(time.Since(start).Seconds())
}

// RecordDBPoolStats records database connection pool statistics
func (m *Metrics) RecordDBPoolStats(open, inUse, idle int, waitCount int64, waitDuration time.Duration) {
	m.DBConnPoolStats.WithLabelValues("open").Set(float64(open))
	m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(idle))
	m.DBConnPoolStats.WithLabelValues("wait_count").Set(float64(waitCount))
	m.DBConnPoolStats.WithLabelValues("wait_duration_ms").Set(float64(waitDuration.Milliseconds()))
}
