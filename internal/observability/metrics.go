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
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics stores Prometheus collectors used by the ingestion API and the
// notification delivery pipeline.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDuration         *prometheus.HistogramVec
	leadsIngestedTotal          *prometheus.CounterVec
	notificationsAcceptedTotal  *prometheus.CounterVec
	notificationsDuplicateTotal *prometheus.CounterVec
	feedReconnectsTotal         *prometheus.CounterVec
	pollFailuresTotal           prometheus.Counter
	alertsPublishedTotal        *prometheus.CounterVec
	alertsFailedTotal           *prometheus.CounterVec
	unreadNotifications         prometheus.Gauge
	activeToasts                prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lead_capture",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "lead_capture",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		leadsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lead_capture",
				Name:      "leads_ingested_total",
				Help:      "Total number of leads created, grouped by source.",
			},
			[]string{"source"},
		),
		notificationsAcceptedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lead_capture",
				Name:      "notifications_accepted_total",
				Help:      "Total number of lead events accepted into the notification panel, grouped by feed.",
			},
			[]string{"feed"},
		),
		notificationsDuplicateTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lead_capture",
				Name:      "notifications_duplicate_total",
				Help:      "Total number of lead events dropped as duplicates, grouped by feed.",
			},
			[]string{"feed"},
		),
		feedReconnectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lead_capture",
				Name:      "feed_reconnects_total",
				Help:      "Total number of push feed reconnect attempts, grouped by reason.",
			},
			[]string{"reason"},
		),
		pollFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lead_capture",
				Name:      "poll_failures_total",
				Help:      "Total number of failed poll queries.",
			},
		),
		alertsPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lead_capture",
				Name:      "alerts_published_total",
				Help:      "Total number of alert messages enqueued, grouped by kind.",
			},
			[]string{"kind"},
		),
		alertsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lead_capture",
				Name:      "alerts_failed_total",
				Help:      "Total number of alert deliveries that failed, grouped by kind and reason.",
			},
			[]string{"kind", "reason"},
		),
		unreadNotifications: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lead_capture",
				Name:      "unread_notifications",
				Help:      "Current number of unread notification records.",
			},
		),
		activeToasts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lead_capture",
				Name:      "active_toasts",
				Help:      "Current number of toasts on screen.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.leadsIngestedTotal,
		m.notificationsAcceptedTotal,
		m.notificationsDuplicateTotal,
		m.feedReconnectsTotal,
		m.pollFailuresTotal,
		m.alertsPublishedTotal,
		m.alertsFailedTotal,
		m.unreadNotifications,
		m.activeToasts,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FiberHandler exposes the scrape endpoint on a fiber router.
func (m *Metrics) FiberHandler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(m.Handler())
	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
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

func (m *Metrics) IncLeadIngested(source string) {
	if m == nil {
		return
	}
	m.leadsIngestedTotal.WithLabelValues(normalizeLabel(source)).Inc()
}

func (m *Metrics) IncNotificationAccepted(feed string) {
	if m == nil {
		return
	}
	m.notificationsAcceptedTotal.WithLabelValues(normalizeLabel(feed)).Inc()
}

func (m *Metrics) IncNotificationDuplicate(feed string) {
	if m == nil {
		return
	}
	m.notificationsDuplicateTotal.WithLabelValues(normalizeLabel(feed)).Inc()
}

func (m *Metrics) IncFeedReconnect(reason string) {
	if m == nil {
		return
	}
	m.feedReconnectsTotal.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *Metrics) IncPollFailure() {
	if m == nil {
		return
	}
	m.pollFailuresTotal.Inc()
}

func (m *Metrics) IncAlertPublished(kind string) {
	if m == nil {
		return
	}
	m.alertsPublishedTotal.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) IncAlertFailed(kind string, reason string) {
	if m == nil {
		return
	}
	m.alertsFailedTotal.WithLabelValues(normalizeLabel(kind), normalizeLabel(reason)).Inc()
}

func (m *Metrics) SetUnreadNotifications(count int) {
	if m == nil {
		return
	}
	m.unreadNotifications.Set(float64(count))
}

func (m *Metrics) SetActiveToasts(count int) {
	if m == nil {
		return
	}
	m.activeToasts.Set(float64(count))
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
	return strings.ReplaceAll(normalized, " ", "_")
}
