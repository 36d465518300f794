package outbound

import (
	"context"
)

// ModelProvider is a hosted multimodal model that turns a prompt, optional
// inline images and an optional response schema into text.
type ModelProvider interface {
	Name() string
	Generate(ctx context.Context, req ModelRequest) (*ModelResponse, error)
	HealthCheck(ctx context.Context) error
}

// ModelRequest is a single generation request
type ModelRequest struct {
	Prompt      string
	Images      []ImagePart
	Schema      *Schema
	Temperature float64
	MaxTokens   int
}

// ImagePart is an inline image attached to a request
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// ModelResponse is the raw text answer plus accounting
type ModelResponse struct {
	Text  string
	Model string
	Usage TokenUsage
}

// TokenUsage reports token counts when the provider returns them
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// SchemaType names a JSON schema type
type SchemaType string

const (
	SchemaString  SchemaType = "string"
	SchemaNumber  SchemaType = "number"
	SchemaInteger SchemaType = "integer"
	SchemaBoolean SchemaType = "boolean"
	SchemaArray   SchemaType = "array"
	SchemaObject  SchemaType = "object"
)

// Schema is the subset of JSON schema understood by every provider
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// ArrayOf returns an array schema with the given element schema
func ArrayOf(items *Schema) *Schema {
	return &Schema{Type: SchemaArray, Items: items}
}

// ObjectOf returns an object schema where every listed property is required
func ObjectOf(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: SchemaObject, Properties: props, Required: required}
}

// Of returns a scalar schema
func Of(t SchemaType) *Schema {
	return &Schema{Type: t}
}
