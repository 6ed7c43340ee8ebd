package entity

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Size is a product size variant.
type Size string

const (
	SizeRegular Size = "Regular"
	SizeLarge   Size = "Large"
)

// Product represents a menu item in the catalog.
type Product struct {
	ID         string                   `json:"id"`
	Name       string                   `json:"name"`
	Categories []string                 `json:"categories"`
	Prices     map[Size]decimal.Decimal `json:"prices"`
	Active     bool                     `json:"active"`
}

// PriceFor returns the base price of the given size variant.
func (p Product) PriceFor(size Size) (decimal.Decimal, error) {
	if size == "" {
		size = SizeRegular
	}
	price, ok := p.Prices[size]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w %q for product %s", ErrUnknownSize, size, p.ID)
	}
	return price, nil
}

// InCategory reports whether the product belongs to the category.
func (p Product) InCategory(categoryID string) bool {
	return slices.Contains(p.Categories, categoryID)
}

// AddOn is an extra (syrup, shot, topping) with its own price.
type AddOn struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OrderLine is a finalized line item within an order.
type OrderLine struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Size            Size            `json:"size"`
	Sweetness       string          `json:"sweetness"`
	Milk            *string         `json:"milk,omitempty"`
	AddOns          []AddOn         `json:"add_ons,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	PromotionID     string          `json:"promotion_id,omitempty"`
	DiscountPerUnit decimal.Decimal `json:"discount_per_unit"`
	LineDiscount    decimal.Decimal `json:"line_discount"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// Order represents a customer order.
type Order struct {
	ID                string          `json:"id"`
	Lines             []OrderLine     `json:"lines"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	ThresholdDiscount decimal.Decimal `json:"threshold_discount"`
	PromotionDiscount decimal.Decimal `json:"promotion_discount"`
	FinalTotal        decimal.Decimal `json:"final_total"`
	Status            OrderStatus     `json:"status"`
	PaymentComplete   bool            `json:"payment_complete"`
	PlacedAt          time.Time       `json:"placed_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

// TransactionKind classifies an inventory audit record.
type TransactionKind string

const (
	TransactionRestock   TransactionKind = "restock"
	TransactionOrderUsed TransactionKind = "order_used"
	TransactionAdjusted  TransactionKind = "adjusted"
	TransactionDamaged   TransactionKind = "damaged"
)

// Valid reports whether k is one of the fixed transaction kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionRestock, TransactionOrderUsed, TransactionAdjusted, TransactionDamaged:
		return true
	}
	return false
}

// InventoryItem is a stock-keeping record. ProductID is nil for raw materials.
type InventoryItem struct {
	ID           string          `json:"id"`
	ProductID    *string         `json:"product_id,omitempty"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	Unit         string          `json:"unit"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// InventoryTransaction is an append-only audit record of a stock change.
type InventoryTransaction struct {
	ID              string          `json:"id"`
	InventoryItemID string          `json:"inventory_item_id"`
	QuantityChange  decimal.Decimal `json:"quantity_change"`
	Kind            TransactionKind `json:"transaction_type"`
	OrderID         *string         `json:"order_id,omitempty"`
	Note            string          `json:"note,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// InventoryAdjustment is a request to change an item's quantity by Delta.
type InventoryAdjustment struct {
	ItemID  string
	Delta   decimal.Decimal
	Kind    TransactionKind
	OrderID *string
	Note    string
}

// NotificationType classifies a back-office notification.
type NotificationType string

const (
	NotificationLowStock NotificationType = "low_stock"
	NotificationOrder    NotificationType = "order"
)

// Notification is a back-office message.
type Notification struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
