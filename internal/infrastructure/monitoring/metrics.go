package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	gatherer prometheus.Gatherer

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// AI metrics
	aiRequestsTotal   *prometheus.CounterVec
	aiRequestDuration *prometheus.HistogramVec
	aiRetriesTotal    *prometheus.CounterVec
	aiParseFailures   *prometheus.CounterVec
	aiTokensTotal     *prometheus.CounterVec

	// Business metrics
	itemsAddedTotal      *prometheus.CounterVec
	itemsRemovedTotal    prometheus.Counter
	inventoryItems       *prometheus.GaugeVec
	recommendationsStale prometheus.Counter
	photosArchivedTotal  *prometheus.CounterVec
}

// NewRegistry returns a registry carrying the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewMetricsCollector registers the application collectors on reg
func NewMetricsCollector(reg *prometheus.Registry, logger *zap.Logger) *MetricsCollector {
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		gatherer: reg,

		// HTTP metrics
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),

		// AI metrics
		aiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_requests_total",
				Help: "Total number of model provider requests",
			},
			[]string{"provider", "operation", "status"},
		),
		aiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ai_request_duration_seconds",
				Help:    "Model provider request duration in seconds, retries included",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0},
			},
			[]string{"provider", "operation"},
		),
		aiRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_rate_limit_retries_total",
				Help: "Retries triggered by provider rate limiting",
			},
			[]string{"provider", "operation"},
		),
		aiParseFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_parse_failures_total",
				Help: "Model responses that could not be decoded",
			},
			[]string{"provider", "operation"},
		),
		aiTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_tokens_total",
				Help: "Tokens reported by the model provider",
			},
			[]string{"provider", "kind"},
		),

		// Business metrics
		itemsAddedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_items_added_total",
				Help: "Items added to the inventory",
			},
			[]string{"source"},
		),
		itemsRemovedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_items_removed_total",
				Help: "Items removed from the inventory",
			},
		),
		inventoryItems: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "inventory_items",
				Help: "Items currently in the inventory by freshness status",
			},
			[]string{"status"},
		),
		recommendationsStale: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recommendations_superseded_total",
				Help: "Recommendation results discarded because a newer request was issued",
			},
		),
		photosArchivedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photos_archived_total",
				Help: "Uploaded photos archived by outcome",
			},
			[]string{"store", "status"},
		),
	}
}

// HTTPMiddleware records request counts and latency keyed by the chi route pattern
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		statusCode := strconv.Itoa(status)

		m.httpRequestsTotal.WithLabelValues(r.Method, path, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, path, statusCode).Observe(time.Since(start).Seconds())
	})
}

// AI metric methods
func (m *MetricsCollector) AIRequest(provider, operation, status string, duration time.Duration) {
	m.aiRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	m.aiRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

func (m *MetricsCollector) AIRetry(provider, operation string) {
	m.aiRetriesTotal.WithLabelValues(provider, operation).Inc()
}

func (m *MetricsCollector) AIParseFailure(provider, operation string) {
	m.aiParseFailures.WithLabelValues(provider, operation).Inc()
}

func (m *MetricsCollector) AITokens(provider string, prompt, completion int) {
	m.aiTokensTotal.WithLabelValues(provider, "prompt").Add(float64(prompt))
	m.aiTokensTotal.WithLabelValues(provider, "completion").Add(float64(completion))
}

func (m *MetricsCollector) RecommendationSuperseded() {
	m.recommendationsStale.Inc()
}

// Business metric methods
func (m *MetricsCollector) ItemAdded(source inventory.Source) {
	m.itemsAddedTotal.WithLabelValues(string(source)).Inc()
}

func (m *MetricsCollector) ItemRemoved() {
	m.itemsRemovedTotal.Inc()
}

// SetInventory replaces the per-status gauges
func (m *MetricsCollector) SetInventory(byStatus map[inventory.Status]int) {
	for _, s := range []inventory.Status{inventory.StatusFresh, inventory.StatusExpiringSoon, inventory.StatusExpired} {
		m.inventoryItems.WithLabelValues(string(s)).Set(float64(byStatus[s]))
	}
}

func (m *MetricsCollector) PhotoArchived(store string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.photosArchivedTotal.WithLabelValues(store, status).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
