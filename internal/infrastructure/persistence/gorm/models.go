// Package gorm provides the GORM model and repository for inventory items
package gorm

import (
	"time"
)

// ItemModel is the row stored for an inventory item. Position increases
// with every insert; the newest item has the highest position.
type ItemModel struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	Position   int64     `gorm:"not null;uniqueIndex"`
	Name       string    `gorm:"type:varchar(120);not null"`
	Category   string    `gorm:"type:varchar(40);not null;index"`
	Quantity   string    `gorm:"type:varchar(60);not null"`
	Source     string    `gorm:"type:varchar(20);not null"`
	AddedAt    time.Time `gorm:"not null"`
	ExpiryDate time.Time `gorm:"not null;index"`
}

// TableName sets the table name
func (ItemModel) TableName() string {
	return "inventory_items"
}
