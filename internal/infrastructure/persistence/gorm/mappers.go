package gorm

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
)

// ItemToModel converts a domain item to a GORM model at position
func ItemToModel(item inventory.Item, position int64) *ItemModel {
	return &ItemModel{
		ID:         item.ID.String(),
		Position:   position,
		Name:       item.Name,
		Category:   string(item.Category),
		Quantity:   item.Quantity,
		Source:     string(item.Source),
		AddedAt:    item.AddedAt.UTC(),
		ExpiryDate: item.ExpiryDate.UTC(),
	}
}

// ModelToItem converts a GORM model back to a domain item
func ModelToItem(m *ItemModel) (inventory.Item, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return inventory.Item{}, fmt.Errorf("corrupt item id %q: %w", m.ID, err)
	}
	return inventory.Item{
		ID:         id,
		Name:       m.Name,
		Category:   inventory.NormalizeCategory(m.Category),
		Quantity:   m.Quantity,
		AddedAt:    m.AddedAt.UTC(),
		ExpiryDate: m.ExpiryDate.UTC(),
		Source:     inventory.Source(m.Source),
	}, nil
}
