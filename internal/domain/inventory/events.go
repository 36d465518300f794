package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Event names published by the inventory
const (
	EventItemAdded   = "inventory.item_added"
	EventItemRemoved = "inventory.item_removed"
)

// ItemAddedEvent is raised for every item that enters the inventory
type ItemAddedEvent struct {
	Item    Item      `json:"item"`
	AddedAt time.Time `json:"addedAt"`
}

func (e ItemAddedEvent) EventName() string {
	return EventItemAdded
}

func (e ItemAddedEvent) OccurredAt() time.Time {
	return e.AddedAt
}

// ItemRemovedEvent is raised when an item is deleted
type ItemRemovedEvent struct {
	ItemID    uuid.UUID `json:"itemId"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	RemovedAt time.Time `json:"removedAt"`
}

func (e ItemRemovedEvent) EventName() string {
	return EventItemRemoved
}

func (e ItemRemovedEvent) OccurredAt() time.Time {
	return e.RemovedAt
}
