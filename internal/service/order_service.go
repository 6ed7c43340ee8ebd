package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/messaging"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/pricing"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

const defaultRecentOrders = 50

// OrderItem is one line of a submitted cart snapshot. Prices are never taken
// from the client; add-on prices are the exception since add-ons have no
// catalog of their own.
type OrderItem struct {
	ProductID string         `json:"product_id"`
	Size      entity.Size    `json:"size"`
	Quantity  int            `json:"quantity"`
	Sweetness string         `json:"sweetness"`
	Milk      *string        `json:"milk"`
	AddOns    []entity.AddOn `json:"add_ons"`
}

// PlaceOrder is a confirmed cart snapshot.
type PlaceOrder struct {
	Items []OrderItem `json:"items"`
}

// StatusUpdate is the result of a status change. Reconciliation is set only
// when the change completed the order.
type StatusUpdate struct {
	Order          *entity.Order         `json:"order"`
	Reconciliation *ReconciliationReport `json:"reconciliation,omitempty"`
}

// OrderService orchestrates order-related business logic.
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	promotions  *PromotionService
	inventory   *InventoryService
	publisher   messaging.Publisher
	now         Clock
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	promotions *PromotionService,
	inventory *InventoryService,
	publisher messaging.Publisher,
	now Clock,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		promotions:  promotions,
		inventory:   inventory,
		publisher:   publisher,
		now:         now,
	}
}

// GetProducts returns all available products.
func (s *OrderService) GetProducts(ctx context.Context) ([]entity.Product, error) {
	return s.productRepo.FindAll(ctx)
}

// RecentOrders returns the latest orders, newest first.
func (s *OrderService) RecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = defaultRecentOrders
	}
	return s.orderRepo.FindRecent(ctx, limit)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	return s.orderRepo.Get(ctx, id)
}

// PlaceOrder prices the snapshot from the catalog, applies the best promotion
// per line and the threshold discount, and stores the order as pending.
// Every validation happens before the single write.
func (s *OrderService) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*entity.Order, error) {
	if len(cmd.Items) == 0 {
		return nil, entity.ErrEmptyOrder
	}

	ids := make([]string, 0, len(cmd.Items))
	for _, it := range cmd.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity of %s must be at least 1", entity.ErrValidation, it.ProductID)
		}
		ids = append(ids, it.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	// Folding through a cart merges duplicate selections the same way the kiosk does.
	cart := entity.NewCartAggregate("")
	for _, it := range cmd.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown product %s", entity.ErrValidation, it.ProductID)
		}
		if !p.Active {
			return nil, fmt.Errorf("%w: %s", entity.ErrProductInactive, p.ID)
		}
		item, err := entity.NewCartLineItem(p, it.Size, it.Quantity, it.Sweetness, it.Milk, it.AddOns)
		if err != nil {
			return nil, err
		}
		cart.AddItem(item)
	}

	lines := make([]pricing.Line, len(cart.Items))
	for i, item := range cart.Items {
		lines[i] = pricing.Line{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	match, err := s.promotions.Evaluate(ctx, products, lines)
	if err != nil {
		return nil, err
	}

	order, err := entity.NewOrder(uuid.New().String(), cart.Items, match.Discounts(), func() string { return uuid.New().String() }, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	slog.Info("Order placed",
		"order_id", order.ID,
		"lines", len(order.Lines),
		"subtotal", order.Subtotal.String(),
		"threshold_discount", order.ThresholdDiscount.String(),
		"promotion_discount", order.PromotionDiscount.String(),
		"final_total", order.FinalTotal.String(),
	)
	publishBestEffort(ctx, s.publisher, messaging.TopicOrderPlaced, order.ID, entity.OrderPlaced{
		OrderID:    order.ID,
		Lines:      len(order.Lines),
		FinalTotal: order.FinalTotal.StringFixed(2),
		PlacedAt:   order.PlacedAt,
	})
	return order, nil
}

// UpdateStatus moves an order along its lifecycle. The store only accepts the
// change if the order is still in the status it was read in, so two racing
// completions cannot both reconcile inventory. Reconciliation runs after the
// commit and outlives a cancelled request.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status string) (*StatusUpdate, error) {
	next, err := entity.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := order.Status
	at := s.now()
	if err := order.TransitionTo(next, at); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, from, next, at); err != nil {
		return nil, err
	}

	slog.Info("Order status changed", "order_id", id, "from", from, "to", next)
	publishBestEffort(ctx, s.publisher, messaging.TopicOrderStatus, id, entity.OrderStatusChanged{
		OrderID:   id,
		From:      from,
		To:        next,
		ChangedAt: at,
	})

	result := &StatusUpdate{Order: order}
	if next == entity.OrderCompleted {
		report := s.inventory.Reconcile(context.WithoutCancel(ctx), order)
		result.Reconciliation = &report
	}
	return result, nil
}

// ProcessPayment marks the order paid without changing its status.
func (s *OrderService) ProcessPayment(ctx context.Context, id string) (*entity.Order, error) {
	order, err := s.orderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed, err := order.MarkPaid(s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	if err := s.orderRepo.SetPaymentComplete(ctx, id, order.UpdatedAt); err != nil {
		return nil, err
	}
	slog.Info("Payment processed", "order_id", id, "final_total", order.FinalTotal.String())
	return order, nil
}
