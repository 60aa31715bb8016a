package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors shared by the API and worker flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDuration         *prometheus.HistogramVec
	notificationsAcceptedTotal  *prometheus.CounterVec
	notificationsProcessedTotal *prometheus.CounterVec
	messagesRejectedTotal       prometheus.Counter
	publishFailuresTotal        prometheus.Counter
	deliveryDuration            *prometheus.HistogramVec
	scheduledPromotedTotal      prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notifyq",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "notifyq",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		notificationsAcceptedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notifyq",
				Name:      "notifications_accepted_total",
				Help:      "Total number of notifications accepted for delivery.",
			},
			[]string{"channel"},
		),
		notificationsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notifyq",
				Name:      "notifications_processed_total",
				Help:      "Total number of worker dispatch outcomes by channel and resulting status.",
			},
			[]string{"channel", "outcome"},
		),
		messagesRejectedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "notifyq",
				Name:      "messages_rejected_total",
				Help:      "Total number of queue messages rejected as undecodable or invalid.",
			},
		),
		publishFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "notifyq",
				Name:      "publish_failures_total",
				Help:      "Total number of failed queue publish attempts.",
			},
		),
		deliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "notifyq",
				Name:      "delivery_duration_seconds",
				Help:      "Provider delivery duration in seconds grouped by channel.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"channel"},
		),
		scheduledPromotedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "notifyq",
				Name:      "scheduled_promoted_total",
				Help:      "Total number of scheduled notifications promoted to the delivery queue.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.notificationsAcceptedTotal,
		m.notificationsProcessedTotal,
		m.messagesRejectedTotal,
		m.publishFailuresTotal,
		m.deliveryDuration,
		m.scheduledPromotedTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncNotificationAccepted(channel string) {
	if m == nil {
		return
	}
	m.notificationsAcceptedTotal.WithLabelValues(normalizeLabel(channel)).Inc()
}

func (m *Metrics) IncNotificationProcessed(channel string, outcome string) {
	if m == nil {
		return
	}
	m.notificationsProcessedTotal.WithLabelValues(normalizeLabel(channel), normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncMessageRejected() {
	if m == nil {
		return
	}
	m.messagesRejectedTotal.Inc()
}

func (m *Metrics) IncPublishFailure() {
	if m == nil {
		return
	}
	m.publishFailuresTotal.Inc()
}

func (m *Metrics) ObserveDeliveryDuration(channel string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.deliveryDuration.WithLabelValues(normalizeLabel(channel)).Observe(seconds)
}

func (m *Metrics) AddScheduledPromoted(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.scheduledPromotedTotal.Add(float64(count))
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
