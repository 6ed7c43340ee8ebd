package entity

import "time"

// Event represents a domain event published after a state change commits.
type Event interface {
	EventType() string
}

// AggregateBase carries identity and a mutation counter.
type AggregateBase struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

func (a *AggregateBase) GetAggregateID() string {
	return a.ID
}

func (a *AggregateBase) GetVersion() int {
	return a.Version
}

// --- Events ---

// OrderPlaced is emitted when an order has been persisted as pending.
type OrderPlaced struct {
	OrderID    string    `json:"order_id"`
	Lines      int       `json:"lines"`
	FinalTotal string    `json:"final_total"`
	PlacedAt   time.Time `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }

// OrderStatusChanged is emitted after a status transition commits.
type OrderStatusChanged struct {
	OrderID   string      `json:"order_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedAt time.Time   `json:"changed_at"`
}

func (e OrderStatusChanged) EventType() string { return "OrderStatusChanged" }

// InventoryAdjusted is emitted for every committed inventory transaction.
type InventoryAdjusted struct {
	InventoryItemID string          `json:"inventory_item_id"`
	TransactionID   string          `json:"transaction_id"`
	Kind            TransactionKind `json:"transaction_type"`
	QuantityChange  string          `json:"quantity_change"`
	Remaining       string          `json:"remaining"`
	OrderID         *string         `json:"order_id,omitempty"`
}

func (e InventoryAdjusted) EventType() string { return "InventoryAdjusted" }

// NotificationCreated is emitted after a notification has been persisted.
type NotificationCreated struct {
	NotificationID string           `json:"notification_id"`
	Type           NotificationType `json:"type"`
	Message        string           `json:"message"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (e NotificationCreated) EventType() string { return "NotificationCreated" }
