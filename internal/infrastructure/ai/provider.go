// Package ai selects and monitors the configured model provider
package ai

import (
	"fmt"

	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/gemini"
	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/mock"
	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/ollama"
	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/openai"
	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/transport"
	"github.com/rasoiops/rasoiops/internal/infrastructure/config"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"go.uber.org/zap"
)

// NewProvider builds the model provider named in cfg.Provider
func NewProvider(cfg config.AIConfig, logger *zap.Logger) (outbound.ModelProvider, error) {
	tc := transport.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}

	switch cfg.Provider {
	case config.ProviderGemini, "":
		return gemini.NewClient(tc, logger), nil
	case config.ProviderOpenAI:
		return openai.NewClient(tc, logger), nil
	case config.ProviderOllama:
		return ollama.NewClient(tc, logger), nil
	case config.ProviderMock:
		logger.Warn("Using mock model provider; results are canned")
		return mock.NewClient(nil), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
