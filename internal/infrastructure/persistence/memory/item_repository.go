// Package memory provides the in-process item repository. State is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
)

// ItemRepository keeps items newest first in a slice guarded by a mutex
type ItemRepository struct {
	items []inventory.Item
	mutex sync.RWMutex
}

var _ outbound.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates an empty in-memory repository
func NewItemRepository() *ItemRepository {
	return &ItemRepository{}
}

// Prepend inserts items ahead of the existing ones, keeping their order
func (r *ItemRepository) Prepend(ctx context.Context, items ...inventory.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	next := make([]inventory.Item, 0, len(items)+len(r.items))
	next = append(next, items...)
	r.items = append(next, r.items...)
	return nil
}

// List returns a copy of all items, newest first
func (r *ItemRepository) List(ctx context.Context) ([]inventory.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]inventory.Item, len(r.items))
	copy(out, r.items)
	return out, nil
}

// Delete removes the item with id and reports whether it existed
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:i:i], r.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of stored items
func (r *ItemRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.items), nil
}
