package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

type inventoryRepository struct {
	mu           sync.Mutex
	items        map[string]entity.InventoryItem
	transactions []entity.InventoryTransaction
	now          func() time.Time
}

// NewInventoryRepository creates an empty in-memory inventory store.
func NewInventoryRepository() repository.InventoryRepository {
	return &inventoryRepository{items: map[string]entity.InventoryItem{}, now: time.Now}
}

func (r *inventoryRepository) Get(ctx context.Context, id string) (*entity.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrInventoryItemNotFound, id)
	}
	return &item, nil
}

func (r *inventoryRepository) GetForProduct(ctx context.Context, productID string) (*entity.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ProductID != nil && *item.ProductID == productID {
			return &item, nil
		}
	}
	return nil, nil
}

// Adjust checks and applies the delta under one lock, the in-process
// equivalent of the guarded UPDATE in the postgres store.
func (r *inventoryRepository) Adjust(ctx context.Context, adj entity.InventoryAdjustment) (*entity.InventoryItem, *entity.InventoryTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to adjust inventory item %s: %w", adj.ItemID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[adj.ItemID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", entity.ErrInventoryItemNotFound, adj.ItemID)
	}
	next, err := item.Apply(adj.Delta)
	if err != nil {
		return nil, nil, err
	}
	now := r.now().UTC()
	next.UpdatedAt = now
	r.items[adj.ItemID] = next

	txn := entity.InventoryTransaction{
		ID:              uuid.New().String(),
		InventoryItemID: adj.ItemID,
		QuantityChange:  adj.Delta,
		Kind:            adj.Kind,
		OrderID:         adj.OrderID,
		Note:            adj.Note,
		CreatedAt:       now,
	}
	r.transactions = append(r.transactions, txn)
	return &next, &txn, nil
}

func (r *inventoryRepository) Transactions(ctx context.Context, itemID string) ([]entity.InventoryTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entity.InventoryTransaction{}
	for _, t := range r.transactions {
		if t.InventoryItemID == itemID {
			out = append(out, t)
		}
	}
	return slices.Clip(out), nil
}

func (r *inventoryRepository) Seed(ctx context.Context, items []entity.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) > 0 {
		return nil
	}
	for _, item := range items {
		if item.UpdatedAt.IsZero() {
			item.UpdatedAt = r.now().UTC()
		}
		r.items[item.ID] = item
	}
	return nil
}
