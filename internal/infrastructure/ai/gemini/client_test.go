package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/transport"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	apperrors "github.com/rasoiops/rasoiops/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(transport.Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestGenerate_SendsImageAndSchema(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/"+DefaultModel+":generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)

		img := req.Contents[0].Parts[0].InlineData
		require.NotNil(t, img)
		assert.Equal(t, "image/jpeg", img.MIMEType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), img.Data)
		assert.Equal(t, "Extract food", req.Contents[0].Parts[1].Text)

		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)
		assert.Equal(t, "ARRAY", req.GenerationConfig.ResponseSchema.Type)
		assert.Equal(t, "OBJECT", req.GenerationConfig.ResponseSchema.Items.Type)
		assert.Equal(t, "STRING", req.GenerationConfig.ResponseSchema.Items.Properties["name"].Type)

		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "[{\"name\":"}, {"text": "\"Milk\"}]"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15},
			"modelVersion": "gemini-3-flash-preview-001"
		}`))
	})

	resp, err := client.Generate(context.Background(), outbound.ModelRequest{
		Prompt: "Extract food",
		Images: []outbound.ImagePart{{MIMEType: "image/jpeg", Data: image}},
		Schema: outbound.ArrayOf(outbound.ObjectOf(map[string]*outbound.Schema{
			"name": outbound.Of(outbound.SchemaString),
		}, "name")),
	})

	require.NoError(t, err)
	assert.Equal(t, `[{"name":"Milk"}]`, resp.Text)
	assert.Equal(t, "gemini-3-flash-preview-001", resp.Model)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestGenerate_TextOnlyHasNoGenerationConfig(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Nil(t, req.GenerationConfig)
		require.Len(t, req.Contents[0].Parts, 1)
		_, _ = w.Write([]byte(`{"candidates": []}`))
	})

	resp, err := client.Generate(context.Background(), outbound.ModelRequest{Prompt: "hello"})

	require.NoError(t, err)
	assert.Empty(t, resp.Text)
	assert.Equal(t, DefaultModel, resp.Model)
}

func TestGenerate_RateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := client.Generate(context.Background(), outbound.ModelRequest{Prompt: "hello"})

	assert.True(t, apperrors.Is(err, apperrors.CodeTooManyRequests))
}

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1beta/models/"+DefaultModel, r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"models/gemini-3-flash-preview"}`))
	})

	assert.NoError(t, client.HealthCheck(context.Background()))
	assert.Equal(t, ProviderName, client.Name())
}
