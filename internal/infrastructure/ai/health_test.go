package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/gemini"
	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/mock"
	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/ollama"
	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/openai"
	"github.com/rasoiops/rasoiops/internal/infrastructure/config"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flakyProvider struct {
	*mock.Client
	err   error
	calls int
}

func (p *flakyProvider) HealthCheck(ctx context.Context) error {
	p.calls++
	return p.err
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{config.ProviderGemini, gemini.ProviderName},
		{config.ProviderOpenAI, openai.ProviderName},
		{config.ProviderOllama, ollama.ProviderName},
		{config.ProviderMock, mock.ProviderName},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(config.AIConfig{Provider: tt.provider, APIKey: "k"}, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}

	_, err := NewProvider(config.AIConfig{Provider: "unknown"}, zap.NewNop())
	assert.Error(t, err)
}

func TestHealthChecker_CachesResult(t *testing.T) {
	p := &flakyProvider{Client: mock.NewClient(nil)}
	var _ outbound.ModelProvider = p
	h := NewHealthChecker(p, zap.NewNop())

	first := h.CheckHealth(context.Background())
	second := h.CheckHealth(context.Background())

	assert.True(t, first.Healthy)
	assert.Equal(t, "healthy", second.Overall)
	assert.Equal(t, 1, p.calls)
	assert.NoError(t, h.Check(context.Background()))
}

func TestHealthChecker_Unhealthy(t *testing.T) {
	p := &flakyProvider{Client: mock.NewClient(nil), err: errors.New("connection refused")}
	h := NewHealthChecker(p, zap.NewNop())

	status := h.CheckHealth(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, "critical", status.Overall)
	assert.Contains(t, status.Details, "connection refused")
	assert.Error(t, h.Check(context.Background()))
}
