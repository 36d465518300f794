// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rasoiops/rasoiops/pkg/retry"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. RASOIOPS_SERVER_PORT
const EnvPrefix = "RASOIOPS"

// Supported provider and driver names
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderMock   = "mock"

	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"

	PhotosNone  = "none"
	PhotosLocal = "local"
	PhotosS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	AI         AIConfig         `mapstructure:"ai"`
	Inventory  InventoryConfig  `mapstructure:"inventory"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Photos     PhotosConfig     `mapstructure:"photos"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	EnableCORS        bool          `mapstructure:"enable_cors"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	EnableCompression bool          `mapstructure:"enable_compression"`
}

// AIConfig contains model provider configuration
type AIConfig struct {
	Provider      string        `mapstructure:"provider"`
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
	Temperature   float64       `mapstructure:"temperature"`
	Retry         retry.Policy  `mapstructure:"retry"`
}

// InventoryConfig contains freshness rules and seeding
type InventoryConfig struct {
	DefaultShelfLife   time.Duration `mapstructure:"default_shelf_life"`
	ExpiringSoonWindow time.Duration `mapstructure:"expiring_soon_window"`
	SeedDemo           bool          `mapstructure:"seed_demo"`
}

// StorageConfig selects the item repository
type StorageConfig struct {
	Driver     string      `mapstructure:"driver"`
	SQLitePath string      `mapstructure:"sqlite_path"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	Database  int    `mapstructure:"database"`
	KeyPrefix string `mapstructure:"key_prefix"`
	PoolSize  int    `mapstructure:"pool_size"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// PhotosConfig selects where uploaded photos are archived
type PhotosConfig struct {
	Provider   string `mapstructure:"provider"`
	LocalPath  string `mapstructure:"local_path"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Region   string `mapstructure:"s3_region"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
}

// RateLimitConfig contains API rate limiting configuration
type RateLimitConfig struct {
	Enable         bool `mapstructure:"enable"`
	RequestsPerMin int  `mapstructure:"requests_per_min"`
	BurstSize      int  `mapstructure:"burst_size"`
}

// MonitoringConfig contains observability configuration
type MonitoringConfig struct {
	EnableMetrics bool    `mapstructure:"enable_metrics"`
	EnableTracing bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint  string  `mapstructure:"otlp_endpoint"`
	SamplingRate  float64 `mapstructure:"sampling_rate"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	cfg, _, err := load(configPath)
	return cfg, err
}

func load(configPath string) (*Config, *viper.Viper, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/rasoiops")
	}

	// Enable environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.AI.Provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))
	if err := loadSecretFiles(&config); err != nil {
		return nil, err
	}
	if config.AI.APIKey == "" {
		config.AI.APIKey = apiKeyFromEnv(config.AI.Provider)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// apiKeyFromEnv checks the conventional unprefixed variables, provider-specific first
func apiKeyFromEnv(provider string) string {
	candidates := []string{"API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"}
	switch provider {
	case ProviderGemini:
		candidates = []string{"GEMINI_API_KEY", "API_KEY"}
	case ProviderOpenAI:
		candidates = []string{"OPENAI_API_KEY", "API_KEY"}
	}
	for _, name := range candidates {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "RasoiOps")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "3m")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "150s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.enable_compression", true)

	// AI defaults
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.max_image_bytes", 10<<20) // 10MB
	v.SetDefault("ai.temperature", 0.4)
	v.SetDefault("ai.retry.max_retries", 3)
	v.SetDefault("ai.retry.initial_delay", "2s")
	v.SetDefault("ai.retry.max_delay", "30s")
	v.SetDefault("ai.retry.max_elapsed", "2m")

	// Inventory defaults
	v.SetDefault("inventory.default_shelf_life", "168h") // 7 days
	v.SetDefault("inventory.expiring_soon_window", "72h")
	v.SetDefault("inventory.seed_demo", true)

	// Storage defaults
	v.SetDefault("storage.driver", StorageMemory)
	v.SetDefault("storage.sqlite_path", "rasoiops.db")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.database", 0)
	v.SetDefault("storage.redis.key_prefix", "rasoiops:")
	v.SetDefault("storage.redis.pool_size", 10)

	// Photo archive defaults
	v.SetDefault("photos.provider", PhotosNone)
	v.SetDefault("photos.local_path", "./data/photos")
	v.SetDefault("photos.s3_bucket", "")
	v.SetDefault("photos.s3_region", "us-east-1")
	v.SetDefault("photos.s3_endpoint", "")

	// Rate limit defaults
	v.SetDefault("rate_limit.enable", true)
	v.SetDefault("rate_limit.requests_per_min", 60)
	v.SetDefault("rate_limit.burst_size", 10)

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.otlp_endpoint", "localhost:4318")
	v.SetDefault("monitoring.sampling_rate", 0.1)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate required fields
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	// Validate port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenAI:
		if c.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required for provider %q (or set API_KEY)", c.AI.Provider)
		}
	case ProviderOllama, ProviderMock:
	default:
		return fmt.Errorf("ai.provider must be one of gemini, openai, ollama, mock; got %q", c.AI.Provider)
	}
	if c.AI.MaxImageBytes <= 0 {
		return fmt.Errorf("ai.max_image_bytes must be positive")
	}
	if c.AI.Retry.MaxRetries < 0 {
		return fmt.Errorf("ai.retry.max_retries must not be negative")
	}
	if c.AI.Retry.InitialDelay < 0 || c.AI.Retry.MaxDelay < 0 || c.AI.Retry.MaxElapsed < 0 {
		return fmt.Errorf("ai.retry delays must not be negative")
	}

	if c.Inventory.DefaultShelfLife <= 0 {
		return fmt.Errorf("inventory.default_shelf_life must be positive")
	}
	if c.Inventory.ExpiringSoonWindow < 0 {
		return fmt.Errorf("inventory.expiring_soon_window must not be negative")
	}

	switch c.Storage.Driver {
	case StorageMemory, StorageRedis:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("storage.driver must be one of memory, sqlite, redis; got %q", c.Storage.Driver)
	}

	switch c.Photos.Provider {
	case PhotosNone, "":
	case PhotosLocal:
		if c.Photos.LocalPath == "" {
			return fmt.Errorf("photos.local_path is required for the local provider")
		}
	case PhotosS3:
		if c.Photos.S3Bucket == "" {
			return fmt.Errorf("photos.s3_bucket is required for the s3 provider")
		}
	default:
		return fmt.Errorf("photos.provider must be one of none, local, s3; got %q", c.Photos.Provider)
	}

	if c.RateLimit.Enable && c.RateLimit.RequestsPerMin <= 0 {
		return fmt.Errorf("rate_limit.requests_per_min must be positive when rate limiting is enabled")
	}

	if c.Monitoring.SamplingRate < 0 || c.Monitoring.SamplingRate > 1 {
		return fmt.Errorf("monitoring.sampling_rate must be between 0 and 1")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Address returns the HTTP listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
