package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rasoiops/rasoiops/pkg/retry"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// LiveSettings are the values that may change while the process runs
type LiveSettings struct {
	Retry              retry.Policy
	DefaultShelfLife   time.Duration
	ExpiringSoonWindow time.Duration
}

// Live holds the current LiveSettings and swaps them when the config file changes
type Live struct {
	mu       sync.RWMutex
	settings LiveSettings
	v        *viper.Viper
	logger   *zap.Logger
}

// NewLive snapshots the live settings of cfg. The returned value never reloads
// unless Watch is called.
func NewLive(cfg *Config) *Live {
	l := &Live{logger: zap.NewNop()}
	l.apply(cfg)
	return l
}

// LoadLive loads configuration like Load and keeps the viper instance so the
// file can be watched afterwards.
func LoadLive(configPath string, logger *zap.Logger) (*Config, *Live, error) {
	cfg, v, err := load(configPath)
	if err != nil {
		return nil, nil, err
	}
	l := NewLive(cfg)
	l.v = v
	l.logger = logger.Named("config")
	return cfg, l, nil
}

// Settings returns the current snapshot
func (l *Live) Settings() LiveSettings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings
}

// RetryPolicy returns the current retry policy
func (l *Live) RetryPolicy() retry.Policy {
	return l.Settings().Retry
}

// SetLogger replaces the logger used for reload messages
func (l *Live) SetLogger(logger *zap.Logger) {
	l.logger = logger.Named("config")
}

// Watch reloads the config file on change. Invalid edits are logged and ignored.
// It is a no-op when no config file was found.
func (l *Live) Watch() {
	if l.v == nil || l.v.ConfigFileUsed() == "" {
		return
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		l.handleChange(e)
	})
	l.v.WatchConfig()
	l.logger.Info("Watching config file", zap.String("path", l.v.ConfigFileUsed()))
}

func (l *Live) handleChange(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}

	cfg, err := decode(l.v)
	if err != nil {
		l.logger.Warn("Ignoring invalid config change",
			zap.String("path", e.Name),
			zap.Error(err))
		return
	}

	l.apply(cfg)
	s := l.Settings()
	l.logger.Info("Config reloaded",
		zap.String("path", e.Name),
		zap.Int("retry_max_retries", s.Retry.MaxRetries),
		zap.Duration("retry_initial_delay", s.Retry.InitialDelay),
		zap.Duration("expiring_soon_window", s.ExpiringSoonWindow),
		zap.Duration("default_shelf_life", s.DefaultShelfLife))
}

func (l *Live) apply(cfg *Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings = LiveSettings{
		Retry:              cfg.AI.Retry,
		DefaultShelfLife:   cfg.Inventory.DefaultShelfLife,
		ExpiringSoonWindow: cfg.Inventory.ExpiringSoonWindow,
	}
}
