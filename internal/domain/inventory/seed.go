package inventory

import (
	"time"

	"github.com/google/uuid"
)

const day = 24 * time.Hour

type demoItem struct {
	name      string
	category  Category
	quantity  string
	addedAgo  time.Duration
	expiresIn time.Duration
}

var demoItems = []demoItem{
	{"Organic Tomatoes", CategoryVegetables, "500g", 3 * day, 1 * day},
	{"Whole Milk", CategoryDairy, "1L", 1 * day, 4 * day},
	{"Baby Spinach", CategoryVegetables, "250g", 6 * day, -1 * day},
	{"Chicken Breast", CategoryMeat, "1kg", 2 * day, 2 * day},
	{"Greek Yogurt", CategoryDairy, "500ml", 10 * day, 15 * day},
	{"Red Onions", CategoryVegetables, "2kg", 5 * day, 20 * day},
	{"Avocados", CategoryFruits, "3 units", 4 * day, 1 * day},
	{"Basmati Rice", CategoryGrains, "5kg", 30 * day, 300 * day},
	{"Strawberries", CategoryFruits, "400g", 7 * day, -2 * day},
}

// DemoItems returns the demo pantry with dates relative to now, in display order.
func DemoItems(now time.Time) []Item {
	now = now.UTC()
	items := make([]Item, 0, len(demoItems))
	for _, s := range demoItems {
		items = append(items, Item{
			ID:         uuid.New(),
			Name:       s.name,
			Category:   s.category,
			Quantity:   s.quantity,
			AddedAt:    now.Add(-s.addedAgo),
			ExpiryDate: now.Add(s.expiresIn),
			Source:     SourceSeed,
		})
	}
	return items
}
