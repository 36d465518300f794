// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/domain/recipe"
)

// InventoryService defines the use cases for the perishable inventory.
// HTTP handlers and the CLI drive the application through it.
type InventoryService interface {
	// Queries
	List(ctx context.Context) ([]inventory.View, error)
	Summary(ctx context.Context) (*InventorySummary, error)

	// Commands
	AddManual(ctx context.Context, cmd AddItemCommand) (*inventory.View, error)
	IngestDetected(ctx context.Context, detected []DetectedItem) ([]inventory.View, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// RecommendationService produces recipe suggestions for the current inventory
type RecommendationService interface {
	Recommend(ctx context.Context, items []inventory.Item, goal string) (*RecommendationResult, error)
	Latest() (*recipe.SuggestionSet, bool)
}

// AddItemCommand contains data for adding an item by hand
type AddItemCommand struct {
	Name       string    `json:"name" validate:"required,max=120,no_xss"`
	Category   string    `json:"category" validate:"max=40,no_xss"`
	Quantity   string    `json:"quantity" validate:"max=60,no_xss"`
	ExpiryDate time.Time `json:"expiryDate" validate:"required"`
}

// DetectedItem is a partial item as reported by image extraction
type DetectedItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Category string `json:"category"`
}

// InventorySummary aggregates the inventory at read time
type InventorySummary struct {
	Total      int                        `json:"total"`
	ByStatus   map[inventory.Status]int   `json:"byStatus"`
	ByCategory map[inventory.Category]int `json:"byCategory"`
	AsOf       time.Time                  `json:"asOf"`
}

// RecommendationResult is the outcome of a single recommendation request.
// Either Recipes holds the decoded suggestions or ParseFailed is set and
// RawResponse keeps the unparsable model output.
type RecommendationResult struct {
	Sequence    uint64              `json:"sequence"`
	Recipes     []recipe.Suggestion `json:"recipes"`
	ParseFailed bool                `json:"parse_error"`
	RawResponse string              `json:"-"`
}
