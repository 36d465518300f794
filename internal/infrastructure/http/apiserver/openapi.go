package apiserver

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec embed.FS

// OpenAPIHandler serves the embedded API description
type OpenAPIHandler struct {
	logger   *zap.Logger
	specYAML []byte
	specJSON []byte
}

// NewOpenAPIHandler loads the embedded document and prepares its JSON form
func NewOpenAPIHandler(logger *zap.Logger) (*OpenAPIHandler, error) {
	specData, err := openAPISpec.ReadFile("openapi.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI document: %w", err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(specData, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	specJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert OpenAPI document: %w", err)
	}

	return &OpenAPIHandler{
		logger:   logger,
		specYAML: specData,
		specJSON: specJSON,
	}, nil
}

// ServeOpenAPISpec serves the OpenAPI document in YAML format
func (h *OpenAPIHandler) ServeOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.specYAML)
}

// ServeOpenAPIJSON serves the OpenAPI document in JSON format
func (h *OpenAPIHandler) ServeOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.specJSON)
}

// ServeSwaggerUI serves a Swagger UI page pointed at the YAML document
func (h *OpenAPIHandler) ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", "default-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, swaggerPage, "/api/v1/openapi.yaml")
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>RasoiOps API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({ url: '%s', dom_id: '#swagger-ui', deepLinking: true });
        };
    </script>
</body>
</html>`
