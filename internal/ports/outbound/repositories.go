// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
)

// ItemRepository defines the interface for inventory persistence.
// Implementations keep items newest-first and serialise mutations.
type ItemRepository interface {
	// Prepend stores items ahead of everything already stored, preserving
	// the order of the batch itself.
	Prepend(ctx context.Context, items ...inventory.Item) error
	// List returns every item newest-first
	List(ctx context.Context) ([]inventory.Item, error)
	// Delete removes the item with id; it reports false when no item matched
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Count(ctx context.Context) (int, error)
}

// PhotoStore archives uploaded photos
type PhotoStore interface {
	// Upload stores data under key and returns a locator (path or URL)
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

// PhotoKey builds the archive key for an uploaded photo
func PhotoKey(id uuid.UUID, takenAt time.Time, ext string) string {
	return "photos/" + takenAt.UTC().Format("2006/01") + "/" + id.String() + ext
}
