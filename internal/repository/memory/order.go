package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

type orderRepository struct {
	mu     sync.RWMutex
	orders map[string]entity.Order
}

// NewOrderRepository creates an empty in-memory order store.
func NewOrderRepository() repository.OrderRepository {
	return &orderRepository{orders: map[string]entity.Order{}}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("%w: order %s already exists", entity.ErrConflict, order.ID)
	}
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrOrderNotFound, id)
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrOrderNotFound, id)
	}
	if o.Status != from {
		return fmt.Errorf("%w: %s", entity.ErrOrderModified, id)
	}
	o.Status = to
	o.UpdatedAt = at
	if to == entity.OrderCompleted {
		completed := at
		o.CompletedAt = &completed
	}
	r.orders[id] = o
	return nil
}

func (r *orderRepository) SetPaymentComplete(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrOrderNotFound, id)
	}
	if o.Status == entity.OrderCancelled || o.Status == entity.OrderRefunded {
		return fmt.Errorf("%w: %s", entity.ErrOrderModified, id)
	}
	o.PaymentComplete = true
	o.UpdatedAt = at
	r.orders[id] = o
	return nil
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.After(out[j].PlacedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneOrder(o entity.Order) entity.Order {
	o.Lines = slices.Clone(o.Lines)
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		o.CompletedAt = &t
	}
	return o
}
