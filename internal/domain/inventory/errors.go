package inventory

import "errors"

// Domain errors for inventory operations

var (
	// Item validation errors
	ErrInvalidItemID   = errors.New("item id must be a valid UUID")
	ErrNameTooLong     = errors.New("item name must not exceed 120 characters")
	ErrQuantityTooLong = errors.New("item quantity must not exceed 60 characters")
	ErrMissingExpiry   = errors.New("item expiry date is required")
)
