package repository

import (
	"context"
	"time"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
)

// ProductRepository handles persistence for the catalog.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]entity.Product, error)
	// Get returns entity.ErrProductNotFound for an unknown id.
	Get(ctx context.Context, id string) (*entity.Product, error)
	FindByCategory(ctx context.Context, categoryID string) ([]entity.Product, error)
	// FindByIDs returns the known products keyed by id; unknown ids are absent.
	FindByIDs(ctx context.Context, ids []string) (map[string]entity.Product, error)
	// Seed inserts initial products if none exist.
	Seed(ctx context.Context, products []entity.Product) error
}

// PromotionRepository handles persistence for promotions.
type PromotionRepository interface {
	// FindActive returns active promotions whose date window contains asOf,
	// ordered by creation. Day-of-week filtering is left to the matcher.
	FindActive(ctx context.Context, asOf time.Time) ([]entity.Promotion, error)
	Create(ctx context.Context, promotion *entity.Promotion) error
}

// OrderRepository handles persistence for orders.
type OrderRepository interface {
	// Create stores the order and its lines atomically.
	Create(ctx context.Context, order *entity.Order) error
	Get(ctx context.Context, id string) (*entity.Order, error)
	// UpdateStatus moves the order from one status to another only if it is
	// still in from; otherwise entity.ErrOrderModified.
	UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus, at time.Time) error
	SetPaymentComplete(ctx context.Context, id string, at time.Time) error
	FindRecent(ctx context.Context, limit int) ([]entity.Order, error)
}

// InventoryRepository handles persistence for stock and its audit trail.
type InventoryRepository interface {
	Get(ctx context.Context, id string) (*entity.InventoryItem, error)
	// GetForProduct returns nil without error when no item tracks the product.
	GetForProduct(ctx context.Context, productID string) (*entity.InventoryItem, error)
	// Adjust applies the delta atomically, refusing to go below zero with
	// entity.ErrInsufficientStock, and appends exactly one transaction.
	Adjust(ctx context.Context, adj entity.InventoryAdjustment) (*entity.InventoryItem, *entity.InventoryTransaction, error)
	Transactions(ctx context.Context, itemID string) ([]entity.InventoryTransaction, error)
	Seed(ctx context.Context, items []entity.InventoryItem) error
}

// NotificationRepository handles persistence for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	List(ctx context.Context, unreadOnly bool) ([]entity.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// CartStore keeps kiosk carts between requests of one session.
type CartStore interface {
	// Load returns an empty cart when the session has none or it expired.
	Load(ctx context.Context, sessionID string) (*entity.CartAggregate, error)
	Save(ctx context.Context, cart *entity.CartAggregate) error
	Delete(ctx context.Context, sessionID string) error
}
