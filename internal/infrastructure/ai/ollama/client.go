// Package ollama provides Ollama integration for local AI inference
package ollama

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/transport"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"go.uber.org/zap"
)

const (
	// ProviderName identifies the provider in config, logs and metrics
	ProviderName = "ollama"

	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2-vision"
)

// Client implements outbound.ModelProvider using the Ollama chat API
type Client struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new Ollama client
func NewClient(cfg transport.Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	logger = logger.Named("ollama-client")
	logger.Info("Ollama client initialized",
		zap.String("base_url", baseURL),
		zap.String("model", model),
		zap.Duration("timeout", cfg.Timeout))

	return &Client{
		baseURL: baseURL,
		model:   model,
		client:  transport.NewHTTPClient(cfg.Timeout),
		logger:  logger,
	}
}

// Ollama API structures
type ChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ChatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Format   interface{}            `json:"format,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ChatResponse struct {
	Model           string      `json:"model"`
	Message         ChatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

// Name returns the provider name
func (c *Client) Name() string {
	return ProviderName
}

// Generate runs a non-streaming chat request. A schema is passed through as
// Ollama's structured output format.
func (c *Client) Generate(ctx context.Context, req outbound.ModelRequest) (*outbound.ModelResponse, error) {
	msg := ChatMessage{Role: "user", Content: req.Prompt}
	for _, img := range req.Images {
		msg.Images = append(msg.Images, base64.StdEncoding.EncodeToString(img.Data))
	}

	body := ChatRequest{
		Model:    c.model,
		Messages: []ChatMessage{msg},
		Stream:   false,
	}
	if req.Schema != nil {
		body.Format = req.Schema
	}
	options := map[string]interface{}{}
	if req.Temperature != 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if len(options) > 0 {
		body.Options = options
	}

	var resp ChatResponse
	if err := transport.PostJSON(ctx, c.client, ProviderName, c.baseURL+"/api/chat", nil, body, &resp); err != nil {
		return nil, err
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	c.logger.Debug("Ollama chat completed",
		zap.String("model", model),
		zap.Int("prompt_tokens", resp.PromptEvalCount),
		zap.Int("completion_tokens", resp.EvalCount))

	return &outbound.ModelResponse{
		Text:  resp.Message.Content,
		Model: model,
		Usage: outbound.TokenUsage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}

// HealthCheck checks that the Ollama daemon is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	return transport.Get(ctx, c.client, ProviderName, c.baseURL+"/api/tags", nil, nil)
}
