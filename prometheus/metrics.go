package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"farm-service/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Scheduling metrics
	SchedulesComputedCounter prometheus.Counter
	TraysScheduledCounter    prometheus.Counter

	// Order and task metrics
	OrderOperationsCounter prometheus.CounterVec
	OrdersReadyCounter     prometheus.Counter
	TaskCompletionsCounter prometheus.CounterVec

	// Yield learning metrics
	YieldUpdatesCounter prometheus.Counter
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	prefix := cfg.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	SchedulesComputedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_schedules_computed_total",
			Help: "Total number of production schedules computed",
		},
	)

	TraysScheduledCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_trays_scheduled_total",
			Help: "Total number of trays allocated by the scheduler",
		},
	)

	OrderOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation"},
	)

	OrdersReadyCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_ready_total",
			Help: "Total number of orders that reached READY",
		},
	)

	TaskCompletionsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_task_completions_total",
			Help: "Total number of completed tasks by type",
		},
		[]string{"type"},
	)

	YieldUpdatesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_yield_updates_total",
			Help: "Total number of crop yield average updates from harvests",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordOrderOperation increments the counter for order operations
func RecordOrderOperation(operation string) {
	OrderOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordScheduleComputed records one computed schedule and its tray count
func RecordScheduleComputed(trays int) {
	SchedulesComputedCounter.Inc()
	TraysScheduledCounter.Add(float64(trays))
}

// RecordTaskCompletion increments the completion counter for a task type
func RecordTaskCompletion(taskType string) {
	TaskCompletionsCounter.WithLabelValues(taskType).Inc()
}
