package entity

import (
	"errors"
	"fmt"
)

// Error categories. Every domain error wraps exactly one of these so the
// delivery layer can map it with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrEmptyOrder            = fmt.Errorf("%w: order must have at least one item", ErrValidation)
	ErrUnknownSize           = fmt.Errorf("%w: unknown size", ErrValidation)
	ErrProductInactive       = fmt.Errorf("%w: product is not active", ErrValidation)
	ErrUnknownDiscountKind   = fmt.Errorf("%w: unknown discount type", ErrValidation)
	ErrInvalidPromotion      = fmt.Errorf("%w: invalid promotion", ErrValidation)
	ErrInvalidAdjustment     = fmt.Errorf("%w: invalid inventory adjustment", ErrValidation)
	ErrUnknownStatus         = fmt.Errorf("%w: unknown order status", ErrValidation)
	ErrProductNotFound       = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound         = fmt.Errorf("order %w", ErrNotFound)
	ErrInventoryItemNotFound = fmt.Errorf("inventory item %w", ErrNotFound)
	ErrNotificationNotFound  = fmt.Errorf("notification %w", ErrNotFound)
	ErrInvalidTransition     = fmt.Errorf("%w: invalid order status transition", ErrConflict)
	ErrOrderModified         = fmt.Errorf("%w: order has been modified by another request", ErrConflict)
	ErrPaymentNotAllowed     = fmt.Errorf("%w: payment not allowed in current order status", ErrConflict)
	ErrInsufficientStock     = fmt.Errorf("%w: insufficient stock", ErrConflict)
)
