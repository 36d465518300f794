package gorm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"gorm.io/gorm"
)

// ItemRepository implements the item repository interface using GORM
type ItemRepository struct {
	db *gorm.DB
}

var _ outbound.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new item repository. The schema must already
// be migrated (see sqlite.SetupDatabase).
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Prepend inserts items above every existing row in one transaction. The
// first item of the batch receives the highest position.
func (r *ItemRepository) Prepend(ctx context.Context, items ...inventory.Item) error {
	if len(items) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var top int64
		if err := tx.Model(&ItemModel{}).Select("COALESCE(MAX(position), 0)").Scan(&top).Error; err != nil {
			return fmt.Errorf("failed to read top position: %w", err)
		}

		models := make([]*ItemModel, 0, len(items))
		for i, item := range items {
			models = append(models, ItemToModel(item, top+int64(len(items)-i)))
		}
		if err := tx.Create(&models).Error; err != nil {
			return fmt.Errorf("failed to insert items: %w", err)
		}
		return nil
	})
}

// List returns every item ordered newest first
func (r *ItemRepository) List(ctx context.Context) ([]inventory.Item, error) {
	var models []ItemModel
	if err := r.db.WithContext(ctx).Order("position DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	items := make([]inventory.Item, 0, len(models))
	for i := range models {
		item, err := ModelToItem(&models[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Delete removes the row for id and reports whether one existed
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&ItemModel{}, "id = ?", id.String())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Count returns the number of stored items
func (r *ItemRepository) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&ItemModel{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
