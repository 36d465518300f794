// Package mock provides an offline model provider returning canned answers.
// It backs development setups without an API key and the HTTP tests.
package mock

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/rasoiops/rasoiops/internal/ports/outbound"
)

// ProviderName identifies the provider in config, logs and metrics
const ProviderName = "mock"

// Responder produces the raw text for a request
type Responder func(ctx context.Context, req outbound.ModelRequest) (string, error)

// Client implements outbound.ModelProvider without any network access
type Client struct {
	respond Responder
	calls   atomic.Int64
}

// NewClient creates a mock provider. A nil responder selects the canned one.
func NewClient(respond Responder) *Client {
	if respond == nil {
		respond = Canned
	}
	return &Client{respond: respond}
}

// Name returns the provider name
func (c *Client) Name() string {
	return ProviderName
}

// Generate returns whatever the responder produces
func (c *Client) Generate(ctx context.Context, req outbound.ModelRequest) (*outbound.ModelResponse, error) {
	c.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := c.respond(ctx, req)
	if err != nil {
		return nil, err
	}
	return &outbound.ModelResponse{Text: text, Model: ProviderName}, nil
}

// HealthCheck always succeeds
func (c *Client) HealthCheck(ctx context.Context) error {
	return nil
}

// Calls returns how many Generate calls were made
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

var inventoryPattern = regexp.MustCompile(`Inventory: \[([^\]]*)\]`)

// Canned answers image requests with a fixed pantry and text requests with
// three recipes built from the inventory named in the prompt.
func Canned(_ context.Context, req outbound.ModelRequest) (string, error) {
	if len(req.Images) > 0 {
		return `[
  {"name": "Tomatoes", "quantity": "6 units", "category": "Vegetables"},
  {"name": "Paneer", "quantity": "200g", "category": "Dairy"},
  {"name": "Coriander", "quantity": "1 bunch", "category": "Spices"}
]`, nil
	}

	ingredients := inventoryNames(req.Prompt)
	recipes := []map[string]interface{}{
		cannedRecipe("Pantry Stir Fry", ingredients, []string{"Soy sauce"}, 86),
		cannedRecipe("One-Pot Curry", ingredients, []string{"Coconut milk", "Garam masala"}, 78),
		cannedRecipe("Zero-Waste Frittata", ingredients, []string{"Eggs"}, 72),
	}

	encoded, err := json.Marshal(recipes)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func cannedRecipe(title string, used, missing []string, score float64) map[string]interface{} {
	return map[string]interface{}{
		"title":              title,
		"ingredientsUsed":    used,
		"missingIngredients": missing,
		"instructions": []string{
			"Prep and chop all ingredients.",
			"Cook the ingredients that expire soonest first.",
			"Season, combine and serve.",
		},
		"sustainabilityScore": score,
	}
}

// inventoryNames pulls "name" out of each "name (quantity)" entry in the prompt
func inventoryNames(prompt string) []string {
	m := inventoryPattern.FindStringSubmatch(prompt)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return []string{}
	}

	var names []string
	for _, entry := range strings.Split(m[1], ", ") {
		if i := strings.LastIndex(entry, " ("); i > 0 {
			entry = entry[:i]
		}
		if entry = strings.TrimSpace(entry); entry != "" {
			names = append(names, entry)
		}
	}
	if len(names) > 3 {
		names = names[:3]
	}
	return names
}
