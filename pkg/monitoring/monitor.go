package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ModulesStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_modules_started_total",
			Help: "Modules moved from not_started to in_progress",
		},
		[]string{"module"},
	)

	SectionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_sections_completed_total",
			Help: "Sections newly marked complete",
		},
		[]string{"module"},
	)

	ModulesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_modules_completed_total",
			Help: "Modules that reached completed status",
		},
		[]string{"module"},
	)

	ExerciseSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_exercise_submissions_total",
			Help: "Exercise submissions by exercise type",
		},
		[]string{"type"},
	)

	ExerciseScores = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "training_exercise_score",
			Help:    "Distribution of exercise scores",
			Buckets: []float64{10, 25, 50, 70, 90, 100},
		},
		[]string{"type"},
	)

	CertificatesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_certificates_issued_total",
			Help: "Certificates created",
		},
		[]string{"module"},
	)

	ResourceDownloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_resource_downloads_total",
			Help: "Tracked resource downloads",
		},
		[]string{"module", "resource"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			ModulesStarted,
			SectionsCompleted,
			ModulesCompleted,
			ExerciseSubmissions,
			ExerciseScores,
			CertificatesIssued,
			ResourceDownloads,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
