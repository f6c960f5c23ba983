package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"commerce-sim/models"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_sim_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "commerce_sim_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_sim_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation", "status"},
	)

	searchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_sim_customer_search_total",
			Help: "Customer searches by outcome",
		},
		[]string{"outcome"},
	)

	financialTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_sim_financial_status_transitions_total",
			Help: "Order financial status changes",
		},
		[]string{"from", "to"},
	)
)

// PrometheusMiddleware records request counts and latencies per route.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}

func RecordOrderOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	orderOperations.WithLabelValues(operation, status).Inc()
}

// RecordSearchQuery counts a customer search; outcome is "ok", "empty" or
// "invalid".
func RecordSearchQuery(outcome string) {
	searchQueries.WithLabelValues(outcome).Inc()
}

func RecordFinancialTransition(from, to models.FinancialStatus) {
	financialTransitions.WithLabelValues(string(from), string(to)).Inc()
}
