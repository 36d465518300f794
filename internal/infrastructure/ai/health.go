package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"go.uber.org/zap"
)

// HealthChecker provides health check functionality for the model provider.
// Results are cached so readiness probes do not spend provider quota.
type HealthChecker struct {
	provider outbound.ModelProvider
	cacheTTL time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	last   *AIHealthStatus
	lastAt time.Time
}

// NewHealthChecker creates a new AI health checker
func NewHealthChecker(provider outbound.ModelProvider, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		provider: provider,
		cacheTTL: time.Minute,
		timeout:  10 * time.Second,
		logger:   logger.Named("ai-health"),
	}
}

// AIHealthStatus represents the health status of the AI provider
type AIHealthStatus struct {
	Overall   string    `json:"overall"`
	Provider  string    `json:"provider"`
	Healthy   bool      `json:"healthy"`
	Details   string    `json:"details"`
	LastCheck time.Time `json:"last_check"`
}

// CheckHealth probes the provider, reusing a recent result when available
func (h *HealthChecker) CheckHealth(ctx context.Context) *AIHealthStatus {
	h.mu.Lock()
	if h.last != nil && time.Since(h.lastAt) < h.cacheTTL {
		cached := *h.last
		h.mu.Unlock()
		return &cached
	}
	h.mu.Unlock()

	status := &AIHealthStatus{
		Provider:  h.provider.Name(),
		LastCheck: time.Now(),
	}

	healthCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.provider.HealthCheck(healthCtx); err != nil {
		status.Overall = "critical"
		status.Details = fmt.Sprintf("Unhealthy: %v", err)
		h.logger.Warn("AI provider health check failed",
			zap.String("provider", status.Provider),
			zap.Error(err))
	} else {
		status.Overall = "healthy"
		status.Healthy = true
		status.Details = "Healthy"
		h.logger.Debug("AI provider health check passed", zap.String("provider", status.Provider))
	}

	h.mu.Lock()
	h.last = status
	h.lastAt = status.LastCheck
	h.mu.Unlock()

	out := *status
	return &out
}

// Check adapts CheckHealth to the healthcheck.Checker signature
func (h *HealthChecker) Check(ctx context.Context) error {
	status := h.CheckHealth(ctx)
	if !status.Healthy {
		return fmt.Errorf("%s: %s", status.Provider, status.Details)
	}
	return nil
}
