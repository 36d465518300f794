// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/domain/recipe"
	"github.com/rasoiops/rasoiops/internal/ports/inbound"
)

// ItemFactory provides methods to create test inventory items
type ItemFactory struct {
	faker *gofakeit.Faker
	now   time.Time
}

// NewItemFactory creates a new item factory with seeded faker. Expiry dates
// are relative to now.
func NewItemFactory(seed int64, now time.Time) *ItemFactory {
	return &ItemFactory{
		faker: gofakeit.New(seed),
		now:   now,
	}
}

// Fresh creates an item expiring well after the warning window
func (f *ItemFactory) Fresh() inventory.Item {
	return f.item(time.Duration(f.faker.Number(5, 30)) * 24 * time.Hour)
}

// ExpiringSoon creates an item expiring within the next two days
func (f *ItemFactory) ExpiringSoon() inventory.Item {
	return f.item(time.Duration(f.faker.Number(1, 47)) * time.Hour)
}

// Expired creates an item that expired in the past week
func (f *ItemFactory) Expired() inventory.Item {
	return f.item(-time.Duration(f.faker.Number(1, 168)) * time.Hour)
}

// Mixed creates n items cycling through fresh, expiring soon and expired
func (f *ItemFactory) Mixed(n int) []inventory.Item {
	items := make([]inventory.Item, 0, n)
	for i := 0; i < n; i++ {
		switch i % 3 {
		case 0:
			items = append(items, f.Fresh())
		case 1:
			items = append(items, f.ExpiringSoon())
		default:
			items = append(items, f.Expired())
		}
	}
	return items
}

// Detected creates n items as image extraction would report them
func (f *ItemFactory) Detected(n int) []inbound.DetectedItem {
	categories := inventory.Categories()
	out := make([]inbound.DetectedItem, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, inbound.DetectedItem{
			Name:     f.faker.Vegetable(),
			Quantity: f.faker.DigitN(1) + " units",
			Category: string(categories[f.faker.Number(0, len(categories)-1)]),
		})
	}
	return out
}

// Suggestion creates a valid recipe suggestion
func (f *ItemFactory) Suggestion() recipe.Suggestion {
	return recipe.Suggestion{
		Title:               f.faker.Dessert(),
		IngredientsUsed:     []string{f.faker.Vegetable(), f.faker.Fruit()},
		MissingIngredients:  []string{f.faker.Fruit()},
		Instructions:        []string{f.faker.Sentence(6), f.faker.Sentence(8)},
		SustainabilityScore: float64(f.faker.Number(0, 100)),
	}
}

func (f *ItemFactory) item(expiresIn time.Duration) inventory.Item {
	return NewItemBuilder().
		WithName(f.faker.Vegetable()).
		WithQuantity(f.faker.DigitN(1) + "kg").
		WithAddedAt(f.now.Add(-time.Hour)).
		WithExpiry(f.now.Add(expiresIn)).
		Build()
}

// ItemBuilder provides a fluent interface for building test items
type ItemBuilder struct {
	item inventory.Item
}

// NewItemBuilder creates a builder with a fresh dairy item
func NewItemBuilder() *ItemBuilder {
	now := time.Now().UTC()
	return &ItemBuilder{item: inventory.Item{
		ID:         uuid.New(),
		Name:       gofakeit.Vegetable(),
		Category:   inventory.CategoryVegetables,
		Quantity:   "1 unit",
		AddedAt:    now,
		ExpiryDate: now.Add(inventory.DefaultShelfLife),
		Source:     inventory.SourceManual,
	}}
}

// WithName sets the item name
func (b *ItemBuilder) WithName(name string) *ItemBuilder {
	b.item.Name = name
	return b
}

// WithCategory sets the item category
func (b *ItemBuilder) WithCategory(c inventory.Category) *ItemBuilder {
	b.item.Category = c
	return b
}

// WithQuantity sets the item quantity
func (b *ItemBuilder) WithQuantity(q string) *ItemBuilder {
	b.item.Quantity = q
	return b
}

// WithAddedAt sets the ingestion time
func (b *ItemBuilder) WithAddedAt(t time.Time) *ItemBuilder {
	b.item.AddedAt = t
	return b
}

// WithExpiry sets the expiry date
func (b *ItemBuilder) WithExpiry(t time.Time) *ItemBuilder {
	b.item.ExpiryDate = t
	return b
}

// WithSource sets the provenance
func (b *ItemBuilder) WithSource(s inventory.Source) *ItemBuilder {
	b.item.Source = s
	return b
}

// Build returns the item
func (b *ItemBuilder) Build() inventory.Item {
	return b.item
}
