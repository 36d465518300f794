package inventory

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Defaults applied to blank fields on ingestion
const (
	DefaultName     = "Unknown Item"
	DefaultQuantity = "1 unit"

	// DefaultShelfLife is applied to items detected from a photo
	DefaultShelfLife = 7 * 24 * time.Hour
	// DefaultExpiringSoonWindow is how close to expiry an item becomes "Expiring Soon"
	DefaultExpiringSoonWindow = 72 * time.Hour

	MaxNameLength     = 120
	MaxQuantityLength = 60
)

// Category groups items for display and analytics
type Category string

const (
	CategoryVegetables Category = "Vegetables"
	CategoryFruits     Category = "Fruits"
	CategoryDairy      Category = "Dairy"
	CategoryMeat       Category = "Meat"
	CategoryGrains     Category = "Grains"
	CategorySpices     Category = "Spices"
	CategoryOther      Category = "Other"
)

// Categories lists every known category in display order
func Categories() []Category {
	return []Category{
		CategoryVegetables,
		CategoryFruits,
		CategoryDairy,
		CategoryMeat,
		CategoryGrains,
		CategorySpices,
		CategoryOther,
	}
}

// NormalizeCategory maps free text onto a known category, ignoring case and
// surrounding whitespace. Anything unrecognised becomes CategoryOther.
func NormalizeCategory(raw string) Category {
	trimmed := strings.TrimSpace(raw)
	for _, c := range Categories() {
		if strings.EqualFold(trimmed, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// Status is the freshness of an item relative to a point in time
type Status string

const (
	StatusFresh        Status = "Fresh"
	StatusExpiringSoon Status = "Expiring Soon"
	StatusExpired      Status = "Expired"
)

// StatusAt derives freshness from the expiry date. It is never stored.
func StatusAt(expiry, now time.Time, window time.Duration) Status {
	remaining := expiry.Sub(now)
	switch {
	case remaining <= 0:
		return StatusExpired
	case remaining <= window:
		return StatusExpiringSoon
	default:
		return StatusFresh
	}
}

// Source records how an item entered the inventory
type Source string

const (
	SourceManual Source = "manual"
	SourceVision Source = "vision"
	SourceSeed   Source = "seed"
)

// Item is a single perishable inventory record. Items are immutable once
// created; the only mutation the inventory supports is removal.
type Item struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Category   Category  `json:"category"`
	Quantity   string    `json:"quantity"`
	AddedAt    time.Time `json:"addedAt"`
	ExpiryDate time.Time `json:"expiryDate"`
	Source     Source    `json:"source"`
}

// NewItem creates an item with a fresh ID, applying defaults to blank fields
func NewItem(name, category, quantity string, addedAt, expiry time.Time, source Source) (Item, error) {
	item := Item{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(name),
		Category:   NormalizeCategory(category),
		Quantity:   strings.TrimSpace(quantity),
		AddedAt:    addedAt.UTC(),
		ExpiryDate: expiry.UTC(),
		Source:     source,
	}
	if item.Name == "" {
		item.Name = DefaultName
	}
	if item.Quantity == "" {
		item.Quantity = DefaultQuantity
	}
	if item.Source == "" {
		item.Source = SourceManual
	}

	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Validate checks the item invariants
func (i Item) Validate() error {
	if i.ID == uuid.Nil {
		return ErrInvalidItemID
	}
	if utf8.RuneCountInString(i.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(i.Quantity) > MaxQuantityLength {
		return ErrQuantityTooLong
	}
	if i.ExpiryDate.IsZero() {
		return ErrMissingExpiry
	}
	return nil
}

// StatusAt returns the item's freshness at now
func (i Item) StatusAt(now time.Time, window time.Duration) Status {
	return StatusAt(i.ExpiryDate, now, window)
}

// View is an item paired with its status as computed at read time
type View struct {
	Item
	Status Status `json:"status"`
}

// ViewAt computes the read-time view of the item
func (i Item) ViewAt(now time.Time, window time.Duration) View {
	return View{Item: i, Status: i.StatusAt(now, window)}
}

// ParseID parses an item identifier
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrInvalidItemID
	}
	return id, nil
}
