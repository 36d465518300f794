// Package gemini provides Google Gemini integration through the public
// generateContent REST endpoint.
package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/transport"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"go.uber.org/zap"
)

const (
	// ProviderName identifies the provider in config, logs and metrics
	ProviderName = "gemini"

	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-3-flash-preview"
)

// Client implements outbound.ModelProvider using the Gemini API
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new Gemini client
func NewClient(cfg transport.Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	logger = logger.Named("gemini-client")
	logger.Info("Gemini client initialized",
		zap.String("base_url", baseURL),
		zap.String("model", model),
		zap.Duration("timeout", cfg.Timeout))

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  transport.NewHTTPClient(cfg.Timeout),
		logger:  logger,
	}
}

// Gemini API structures
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
}

type schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Items       *schema            `json:"items,omitempty"`
	Properties  map[string]*schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type generateResponse struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Name returns the provider name
func (c *Client) Name() string {
	return ProviderName
}

// Generate sends a single-turn generateContent request
func (c *Client) Generate(ctx context.Context, req outbound.ModelRequest) (*outbound.ModelResponse, error) {
	body := buildRequest(req)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)

	var resp generateResponse
	if err := transport.PostJSON(ctx, c.client, ProviderName, endpoint, c.headers(), body, &resp); err != nil {
		return nil, err
	}

	text := responseText(resp)
	model := resp.ModelVersion
	if model == "" {
		model = c.model
	}

	out := &outbound.ModelResponse{Text: text, Model: model}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = outbound.TokenUsage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.TotalTokenCount,
		}
	}

	c.logger.Debug("Gemini generateContent completed",
		zap.String("model", model),
		zap.Int("images", len(req.Images)),
		zap.Int("total_tokens", out.Usage.TotalTokens))

	return out, nil
}

// HealthCheck fetches the model metadata, which needs a valid key but no quota
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s", c.baseURL, c.model)
	return transport.Get(ctx, c.client, ProviderName, endpoint, c.headers(), nil)
}

func (c *Client) headers() map[string]string {
	return map[string]string{"x-goog-api-key": c.apiKey}
}

func buildRequest(req outbound.ModelRequest) generateRequest {
	parts := make([]part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: img.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}
	parts = append(parts, part{Text: req.Prompt})

	out := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	}

	cfg := &generationConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = convertSchema(req.Schema)
	}
	if cfg.ResponseSchema != nil || cfg.Temperature != 0 || cfg.MaxOutputTokens != 0 {
		out.GenerationConfig = cfg
	}
	return out
}

// convertSchema maps the provider-neutral schema onto Gemini's OpenAPI subset,
// which spells types in upper case.
func convertSchema(s *outbound.Schema) *schema {
	if s == nil {
		return nil
	}
	out := &schema{
		Type:        strings.ToUpper(string(s.Type)),
		Description: s.Description,
		Items:       convertSchema(s.Items),
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = convertSchema(prop)
		}
	}
	return out
}

func responseText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
