package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/transport"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, false, req["stream"])
		assert.NotNil(t, req["format"])

		messages := req["messages"].([]interface{})
		require.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Len(t, msg["images"], 1)

		_ = json.NewEncoder(w).Encode(ChatResponse{
			Model:           DefaultModel,
			Message:         ChatMessage{Role: "assistant", Content: `[{"name":"Eggs"}]`},
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       8,
		})
	}))
	defer srv.Close()

	client := NewClient(transport.Config{BaseURL: srv.URL}, zap.NewNop())

	resp, err := client.Generate(context.Background(), outbound.ModelRequest{
		Prompt: "Extract food",
		Images: []outbound.ImagePart{{MIMEType: "image/jpeg", Data: []byte("jpeg")}},
		Schema: outbound.ArrayOf(outbound.Of(outbound.SchemaString)),
	})

	require.NoError(t, err)
	assert.Equal(t, `[{"name":"Eggs"}]`, resp.Text)
	assert.Equal(t, 20, resp.Usage.TotalTokens)
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	client := NewClient(transport.Config{BaseURL: srv.URL}, zap.NewNop())
	assert.NoError(t, client.HealthCheck(context.Background()))
}
