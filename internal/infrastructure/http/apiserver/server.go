// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rasoiops/rasoiops/internal/infrastructure/config"
	"github.com/rasoiops/rasoiops/internal/infrastructure/http/handlers"
	"github.com/rasoiops/rasoiops/internal/infrastructure/http/middleware"
	"github.com/rasoiops/rasoiops/internal/infrastructure/http/stream"
	"github.com/rasoiops/rasoiops/internal/infrastructure/monitoring"
	"github.com/rasoiops/rasoiops/internal/ports/inbound"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/rasoiops/rasoiops/pkg/healthcheck"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Probe paths are exempt from request logging and rate limiting
const (
	HealthPath    = "/health"
	LivenessPath  = "/health/live"
	ReadinessPath = "/health/ready"
	MetricsPath   = "/metrics"
)

// Deps are the services the API exposes. Photos and Metrics may be nil.
type Deps struct {
	Config          *config.Config
	Inventory       inbound.InventoryService
	Extractor       handlers.Extractor
	Recommendations inbound.RecommendationService
	Analytics       handlers.Reporter
	Photos          outbound.PhotoStore
	Metrics         *monitoring.MetricsCollector
	Health          *healthcheck.HealthCheck
	Hub             *stream.Hub
}

// Server represents the JSON API HTTP server
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
	router  *chi.Mux
	deps    Deps
	openAPI *OpenAPIHandler
}

// NewServer creates a new API server instance
func NewServer(deps Deps, logger *zap.Logger) (*Server, error) {
	openAPI, err := NewOpenAPIHandler(logger)
	if err != nil {
		return nil, err
	}

	cfg := deps.Config
	s := &Server{
		config:  cfg,
		logger:  logger.Named("api"),
		deps:    deps,
		openAPI: openAPI,
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:              cfg.Address(),
		Handler:           otelhttp.NewHandler(s.router, "rasoiops-api"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	return s, nil
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()
	probes := []string{HealthPath, LivenessPath, ReadinessPath, MetricsPath}

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestIDHeader())
	r.Use(middleware.Logger(s.logger, probes...))
	r.Use(middleware.Recovery(s.logger))
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.HTTPMiddleware)
	}
	r.Use(middleware.Security())
	r.Use(middleware.CORS(s.config))
	if s.config.RateLimit.Enable {
		r.Use(middleware.NewRateLimiter(s.config.RateLimit, s.logger, probes...).Handler)
	}

	// Health checks
	r.Get(HealthPath, s.deps.Health.Handler())
	r.Get(LivenessPath, s.deps.Health.LivenessHandler())
	r.Get(ReadinessPath, s.deps.Health.ReadinessHandler())
	if s.deps.Metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Method(http.MethodGet, MetricsPath, s.deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Long-lived, so outside the request timeout
		if s.deps.Hub != nil {
			r.Method(http.MethodGet, "/inventory/stream", s.deps.Hub)
		}

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(s.requestTimeout()))
			r.Use(middleware.RequestBodyLimit(s.bodyLimit()))
			if s.config.Server.EnableCompression {
				r.Use(middleware.Compression(middleware.DefaultCompressionConfig()))
			}
			s.setupAPIV1Routes(r)
		})
	})

	return r
}

// setupAPIV1Routes configures API v1 endpoints
func (s *Server) setupAPIV1Routes(r chi.Router) {
	var metrics handlers.PhotoMetrics
	if s.deps.Metrics != nil {
		metrics = s.deps.Metrics
	}
	invH := handlers.NewInventoryHandlers(handlers.InventoryDeps{
		Inventory:     s.deps.Inventory,
		Extractor:     s.deps.Extractor,
		Photos:        s.deps.Photos,
		Metrics:       metrics,
		MaxImageBytes: s.config.AI.MaxImageBytes,
	}, s.logger)
	recipeH := handlers.NewRecipeHandlers(s.deps.Inventory, s.deps.Recommendations, s.logger)
	analyticsH := handlers.NewAnalyticsHandlers(s.deps.Analytics, s.logger)

	// Documentation
	r.Get("/openapi.yaml", s.openAPI.ServeOpenAPISpec)
	r.Get("/openapi.json", s.openAPI.ServeOpenAPIJSON)
	r.Get("/docs", s.openAPI.ServeSwaggerUI)

	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", invH.List)
		r.Post("/", invH.Add)
		r.Post("/scan", invH.Scan)
		r.Delete("/{id}", invH.Delete)
	})

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/suggestions", recipeH.Latest)
		r.Post("/suggestions", recipeH.Suggest)
	})

	r.Get("/analytics/sustainability", analyticsH.Sustainability)
}

func (s *Server) requestTimeout() time.Duration {
	if s.config.Server.RequestTimeout > 0 {
		return s.config.Server.RequestTimeout
	}
	return 150 * time.Second
}

// bodyLimit leaves room for a base64 encoded image plus the JSON around it
func (s *Server) bodyLimit() int64 {
	limit := s.config.AI.MaxImageBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	return limit/3*4 + 64<<10
}

// Router returns the route tree without the tracing wrapper
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
