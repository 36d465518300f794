// Package openai provides integration with OpenAI-compatible chat completion APIs
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/transport"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"go.uber.org/zap"
)

const (
	// ProviderName identifies the provider in config, logs and metrics
	ProviderName = "openai"

	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

const systemPrompt = `You are the inventory and recipe assistant of a kitchen management system.

CRITICAL: You must respond with ONLY valid JSON. Do not include any explanatory text, markdown formatting, or other content outside the JSON.`

// Client implements outbound.ModelProvider using an OpenAI-compatible API
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new OpenAI client
func NewClient(cfg transport.Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	logger = logger.Named("openai-client")
	logger.Info("OpenAI client initialized",
		zap.String("base_url", baseURL),
		zap.String("model", model))

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  transport.NewHTTPClient(cfg.Timeout),
		logger:  logger,
	}
}

// OpenAI API structures
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message content is either a plain string or a list of ContentPart
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ChatCompletionResponse struct {
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Name returns the provider name
func (c *Client) Name() string {
	return ProviderName
}

// Generate runs a chat completion with the prompt and any images as the user turn
func (c *Client) Generate(ctx context.Context, req outbound.ModelRequest) (*outbound.ModelResponse, error) {
	body := ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: buildSystemPrompt(req.Schema)},
			{Role: "user", Content: buildUserContent(req)},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var resp ChatCompletionResponse
	if err := transport.PostJSON(ctx, c.client, ProviderName, c.baseURL+"/chat/completions", c.headers(), body, &resp); err != nil {
		return nil, err
	}

	out := &outbound.ModelResponse{
		Model: resp.Model,
		Usage: outbound.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if out.Model == "" {
		out.Model = c.model
	}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}

	c.logger.Info("OpenAI API call successful",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return out, nil
}

// HealthCheck lists models, which validates the key without spending tokens
func (c *Client) HealthCheck(ctx context.Context) error {
	return transport.Get(ctx, c.client, ProviderName, c.baseURL+"/models", c.headers(), nil)
}

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

// buildSystemPrompt embeds the response schema, since chat completions only
// accept object-rooted schemas natively.
func buildSystemPrompt(schema *outbound.Schema) string {
	if schema == nil {
		return systemPrompt
	}
	encoded, err := json.Marshal(schema)
	if err != nil {
		return systemPrompt
	}
	return systemPrompt + "\n\nThe JSON must match this schema:\n" + string(encoded)
}

func buildUserContent(req outbound.ModelRequest) interface{} {
	if len(req.Images) == 0 {
		return req.Prompt
	}

	parts := []ContentPart{{Type: "text", Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, ContentPart{
			Type: "image_url",
			ImageURL: &ImageURL{
				URL: "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	return parts
}
