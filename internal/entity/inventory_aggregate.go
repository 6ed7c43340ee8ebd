package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Apply returns the item with delta applied. A result below zero is rejected
// with ErrInsufficientStock rather than clamped.
func (i InventoryItem) Apply(delta decimal.Decimal) (InventoryItem, error) {
	next := i.Quantity.Add(delta)
	if next.IsNegative() {
		return i, fmt.Errorf("%w: %s has %s %s, change %s", ErrInsufficientStock, i.Name, i.Quantity, i.Unit, delta)
	}
	i.Quantity = next
	return i, nil
}

// AtOrBelowReorderLevel reports whether a low-stock signal is due.
func (i InventoryItem) AtOrBelowReorderLevel() bool {
	return i.Quantity.LessThanOrEqual(i.ReorderLevel)
}

// Validate checks an adjustment request before it reaches the store.
func (a InventoryAdjustment) Validate() error {
	if a.ItemID == "" {
		return fmt.Errorf("%w: inventory item id is required", ErrInvalidAdjustment)
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidAdjustment, a.Kind)
	}
	if a.Delta.IsZero() {
		return fmt.Errorf("%w: quantity change must be non-zero", ErrInvalidAdjustment)
	}
	switch a.Kind {
	case TransactionRestock:
		if a.Delta.IsNegative() {
			return fmt.Errorf("%w: restock must add stock", ErrInvalidAdjustment)
		}
	case TransactionOrderUsed, TransactionDamaged:
		if a.Delta.IsPositive() {
			return fmt.Errorf("%w: %s must remove stock", ErrInvalidAdjustment, a.Kind)
		}
	}
	return nil
}

// LowStockMessage is the text of a low_stock notification for the item.
func LowStockMessage(item InventoryItem) string {
	return fmt.Sprintf("Low stock: %s has %s %s remaining (reorder level %s)",
		item.Name, item.Quantity.String(), item.Unit, item.ReorderLevel.String())
}
