package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomchat",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomchat",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)

	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomchat",
			Subsystem: "dispatch",
			Name:      "jobs_total",
			Help:      "Dispatched jobs by task type and terminal state",
		},
		[]string{"task", "state"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomchat",
			Subsystem: "dispatch",
			Name:      "job_duration_seconds",
			Help:      "Job execution duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"task"},
	)

	RoomsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roomchat",
			Subsystem: "rooms",
			Name:      "deleted_total",
			Help:      "Group rooms deleted after their last member left",
		},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomchat",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups by result",
		},
		[]string{"result"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordJob records a finished job
func RecordJob(task, state string, durationSec float64) {
	JobsTotal.WithLabelValues(task, state).Inc()
	JobDuration.WithLabelValues(task).Observe(durationSec)
}

// RecordRoomDeleted records the removal of an empty group room
func RecordRoomDeleted() {
	RoomsDeletedTotal.Inc()
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// GinMiddleware records RequestsTotal and RequestDuration per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RecordRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
