// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	appai "github.com/rasoiops/rasoiops/internal/application/ai"
	"github.com/rasoiops/rasoiops/internal/application/analytics"
	appinventory "github.com/rasoiops/rasoiops/internal/application/inventory"
	"github.com/rasoiops/rasoiops/internal/domain/shared"
	aiinfra "github.com/rasoiops/rasoiops/internal/infrastructure/ai"
	"github.com/rasoiops/rasoiops/internal/infrastructure/config"
	"github.com/rasoiops/rasoiops/internal/infrastructure/events"
	"github.com/rasoiops/rasoiops/internal/infrastructure/http/apiserver"
	"github.com/rasoiops/rasoiops/internal/infrastructure/http/middleware"
	"github.com/rasoiops/rasoiops/internal/infrastructure/http/stream"
	"github.com/rasoiops/rasoiops/internal/infrastructure/monitoring"
	gormRepo "github.com/rasoiops/rasoiops/internal/infrastructure/persistence/gorm"
	"github.com/rasoiops/rasoiops/internal/infrastructure/persistence/memory"
	redisRepo "github.com/rasoiops/rasoiops/internal/infrastructure/persistence/redis"
	"github.com/rasoiops/rasoiops/internal/infrastructure/persistence/sqlite"
	"github.com/rasoiops/rasoiops/internal/infrastructure/security"
	"github.com/rasoiops/rasoiops/internal/infrastructure/storage"
	"github.com/rasoiops/rasoiops/internal/ports/inbound"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/rasoiops/rasoiops/pkg/healthcheck"
	"github.com/rasoiops/rasoiops/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
)

// Module provides all dependency injection modules. configPath may be empty
// to search the default locations.
func Module(configPath string) fx.Option {
	return fx.Options(
		// Infrastructure modules
		ConfigModule(configPath),
		LoggerModule,
		MonitoringModule,
		StorageModule,

		// Application modules
		EventModule,
		AIModule,
		ServiceModule,

		// HTTP modules
		HTTPModule,

		// Lifecycle hooks
		LifecycleModule,
	)
}

// ConfigModule provides configuration and its hot-reloadable subset
func ConfigModule(configPath string) fx.Option {
	return fx.Provide(
		func() (*config.Config, *config.Live, error) {
			return config.LoadLive(configPath, zap.NewNop())
		},
	)
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewRegistry,
	monitoring.NewMetricsCollector,
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
)

// Storage is the configured item repository together with its health probe
// and cleanup. Health is nil for the in-memory driver.
type Storage struct {
	Driver     string
	Repository outbound.ItemRepository
	Health     healthcheck.Checker
	Close      func() error
}

// StorageModule provides the item repository and the photo archive
var StorageModule = fx.Provide(
	NewStorage,
	func(s *Storage) outbound.ItemRepository {
		return s.Repository
	},
	func(cfg *config.Config, log *zap.Logger) (outbound.PhotoStore, error) {
		return storage.NewPhotoStore(cfg.Photos, log)
	},
)

// NewStorage opens the repository selected by storage.driver
func NewStorage(cfg *config.Config, log *zap.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		logLevel := gormLogger.Silent
		if cfg.App.Debug {
			logLevel = gormLogger.Info
		}

		db, err := sqlite.SetupDatabase(cfg.Storage.SQLitePath, logLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}

		log.Info("Connected to SQLite database", zap.String("path", cfg.Storage.SQLitePath))
		return &Storage{
			Driver:     config.StorageSQLite,
			Repository: gormRepo.NewItemRepository(db),
			Health:     healthcheck.NewDatabaseChecker(sqlDB),
			Close:      sqlDB.Close,
		}, nil

	case config.StorageRedis:
		client, err := redisRepo.NewClient(context.Background(), cfg.Storage.Redis, log)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Driver:     config.StorageRedis,
			Repository: redisRepo.NewItemRepository(client, cfg.Storage.Redis.KeyPrefix, log),
			Health:     healthcheck.NewRedisChecker(client),
			Close:      client.Close,
		}, nil

	default:
		log.Info("Using in-memory inventory; items are lost on restart")
		return &Storage{
			Driver:     config.StorageMemory,
			Repository: memory.NewItemRepository(),
			Close:      func() error { return nil },
		}, nil
	}
}

// EventModule provides the in-process event dispatcher
var EventModule = fx.Provide(
	events.NewDispatcher,
	func(d *events.Dispatcher) shared.EventDispatcher {
		return d
	},
)

// AIModule provides the model provider and the two AI clients
var AIModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.ModelProvider, error) {
		return aiinfra.NewProvider(cfg.AI, log)
	},
	aiinfra.NewHealthChecker,
	func(cfg *config.Config, live *config.Live, metrics *monitoring.MetricsCollector) appai.Options {
		return appai.Options{
			RetryPolicy:   live.RetryPolicy,
			Temperature:   cfg.AI.Temperature,
			MaxImageBytes: cfg.AI.MaxImageBytes,
			Metrics:       metrics,
		}
	},
	appai.NewExtractionService,
	func(
		provider outbound.ModelProvider,
		opts appai.Options,
		live *config.Live,
		dispatcher shared.EventDispatcher,
		log *zap.Logger,
	) *appai.RecommendationService {
		window := func() time.Duration { return live.Settings().ExpiringSoonWindow }
		return appai.NewRecommendationService(provider, opts, nil, window, dispatcher, log)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	security.NewValidationService,

	// Inventory service
	func(
		repo outbound.ItemRepository,
		validation *security.ValidationService,
		dispatcher shared.EventDispatcher,
		metrics *monitoring.MetricsCollector,
		live *config.Live,
		log *zap.Logger,
	) *appinventory.Service {
		settings := func() appinventory.Settings {
			s := live.Settings()
			return appinventory.Settings{
				DefaultShelfLife:   s.DefaultShelfLife,
				ExpiringSoonWindow: s.ExpiringSoonWindow,
			}
		}
		return appinventory.NewService(repo, validation, dispatcher, metrics, nil, settings, log)
	},
	func(s *appinventory.Service) inbound.InventoryService {
		return s
	},

	// Sustainability analytics
	func(inv inbound.InventoryService, dispatcher shared.EventDispatcher, log *zap.Logger) *analytics.Service {
		return analytics.NewService(inv, dispatcher, nil, log)
	},
)

// HTTPModule provides the live stream hub, health checks and the API server
var HTTPModule = fx.Provide(
	func(cfg *config.Config, dispatcher shared.EventDispatcher, log *zap.Logger) *stream.Hub {
		hub := stream.NewHub(func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || middleware.OriginAllowed(cfg, origin)
		}, log)
		hub.Subscribe(dispatcher)
		return hub
	},
	NewHealthCheck,
	NewAPIServer,
)

// NewHealthCheck registers the storage and model provider probes. The model
// provider is optional: a failing provider degrades but does not fail readiness.
func NewHealthCheck(cfg *config.Config, store *Storage, ai *aiinfra.HealthChecker, log *zap.Logger) *healthcheck.HealthCheck {
	hc := healthcheck.New(cfg.App.Version, log)
	if store.Health != nil {
		hc.Register(store.Driver, store.Health)
	}
	hc.Register("ai", healthcheck.NewErrorChecker(ai.Check, true))
	return hc
}

// APIServerParams are the dependencies of the API server
type APIServerParams struct {
	fx.In

	Config          *config.Config
	Inventory       inbound.InventoryService
	Extractor       *appai.ExtractionService
	Recommendations *appai.RecommendationService
	Analytics       *analytics.Service
	Photos          outbound.PhotoStore
	Metrics         *monitoring.MetricsCollector
	Health          *healthcheck.HealthCheck
	Hub             *stream.Hub
	Logger          *zap.Logger
}

// NewAPIServer builds the API server from the container
func NewAPIServer(p APIServerParams) (*apiserver.Server, error) {
	p.Health.Register("stream", healthcheck.NewCustomChecker("stream",
		func(context.Context) (healthcheck.Status, string, interface{}) {
			return healthcheck.StatusHealthy, "", map[string]int{"clients": p.Hub.Clients()}
		}))

	return apiserver.NewServer(apiserver.Deps{
		Config:          p.Config,
		Inventory:       p.Inventory,
		Extractor:       p.Extractor,
		Recommendations: p.Recommendations,
		Analytics:       p.Analytics,
		Photos:          p.Photos,
		Metrics:         p.Metrics,
		Health:          p.Health,
		Hub:             p.Hub,
	}, p.Logger)
}

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// LifecycleParams are the components started and stopped with the app
type LifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     *config.Config
	Live       *config.Live
	Logger     *zap.Logger
	Tracing    *monitoring.TracingProvider
	Storage    *Storage
	Inventory  *appinventory.Service
	Hub        *stream.Hub
	Server     *apiserver.Server
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(p LifecycleParams) {
	log := p.Logger
	hubCtx, stopHub := context.WithCancel(context.Background())

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting RasoiOps",
				zap.String("version", p.Config.App.Version),
				zap.String("environment", p.Config.App.Environment),
				zap.String("storage", p.Storage.Driver),
				zap.String("ai_provider", p.Config.AI.Provider),
			)

			p.Live.SetLogger(log)
			p.Live.Watch()

			if p.Config.Inventory.SeedDemo {
				if _, err := p.Inventory.Seed(ctx); err != nil {
					log.Warn("Failed to seed demo inventory", zap.Error(err))
				}
			}

			go p.Hub.Run(hubCtx)

			go func() {
				if err := p.Server.Start(); err != nil {
					log.Error("API server stopped", zap.Error(err))
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down RasoiOps")

			if err := p.Server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown API server", zap.Error(err))
			}
			stopHub()

			if err := p.Tracing.Shutdown(ctx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}
			if err := p.Storage.Close(); err != nil {
				log.Error("Failed to close storage", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
