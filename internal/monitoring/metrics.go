package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketchain_purchases_total",
		Help: "Completed ticket purchases by kind (primary, resale).",
	}, []string{"kind"})

	TicketsSoldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketchain_tickets_sold_total",
		Help: "Individual tickets minted through primary sales.",
	})

	SwapsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketchain_swaps_total",
		Help: "Completed ticket swaps (direct and offer-based).",
	})

	ListingsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ticketchain_listings_active",
		Help: "Currently active resale listings.",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ticketchain_queue_depth",
		Help: "Users currently in the purchase admission queue.",
	})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ticketchain_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// RequestMetrics times every request against its route template.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
