package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_orders_created_total",
		Help: "Orders committed",
	})

	DiscountApplications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_discount_applications_total",
		Help: "Discount sets applied to orders",
	})

	// layer is "precheck" or "constraint".
	SKUConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_sku_conflicts_total",
		Help: "Rejected duplicate SKUs by detecting layer",
	}, []string{"layer"})

	OrderStatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_order_status_updates_total",
		Help: "Order status changes by target status",
	}, []string{"status"})
)

// Middleware records request count and latency keyed by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		RequestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		RequestDurationHistogram.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
