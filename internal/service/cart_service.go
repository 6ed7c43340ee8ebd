package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/pricing"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

// CartView is a kiosk cart with its derived totals. Total follows the cart
// rule (subtotal minus the threshold discount); EstimatedTotal also takes the
// matched promotions off, which is what checkout will charge.
type CartView struct {
	SessionID         string                   `json:"session_id"`
	Items             []entity.CartLineItem    `json:"items"`
	Matches           []pricing.LineMatch      `json:"matches"`
	Promotions        []pricing.PromotionUsage `json:"promotions"`
	Subtotal          decimal.Decimal          `json:"subtotal"`
	Discount          decimal.Decimal          `json:"discount"`
	Total             decimal.Decimal          `json:"total"`
	PromotionDiscount decimal.Decimal          `json:"promotion_discount"`
	EstimatedTotal    decimal.Decimal          `json:"estimated_total"`
}

// AddItem is a kiosk selection to put into the cart.
type AddItem struct {
	ProductID string         `json:"product_id"`
	Size      entity.Size    `json:"size"`
	Quantity  int            `json:"quantity"`
	Sweetness string         `json:"sweetness"`
	Milk      *string        `json:"milk"`
	AddOns    []entity.AddOn `json:"add_ons"`
}

// CartService keeps one cart per kiosk session in a CartStore. Each session
// is driven by a single kiosk, so load-modify-save needs no locking.
type CartService struct {
	store       repository.CartStore
	productRepo repository.ProductRepository
	promotions  *PromotionService
	orders      *OrderService
}

func NewCartService(store repository.CartStore, productRepo repository.ProductRepository, promotions *PromotionService, orders *OrderService) *CartService {
	return &CartService{
		store:       store,
		productRepo: productRepo,
		promotions:  promotions,
		orders:      orders,
	}
}

// AddItem prices the selection from the catalog and merges it into the cart.
func (s *CartService) AddItem(ctx context.Context, sessionID string, req AddItem) (*CartView, error) {
	product, err := s.productRepo.Get(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, fmt.Errorf("%w: %s", entity.ErrProductInactive, product.ID)
	}
	item, err := entity.NewCartLineItem(*product, req.Size, req.Quantity, req.Sweetness, req.Milk, req.AddOns)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cart.AddItem(item)
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}

	slog.Info("Cart item added", "session_id", sessionID, "product_id", item.ProductID, "quantity", item.Quantity, "lines", len(cart.Items))
	return s.view(ctx, cart)
}

// RemoveItem drops a line; an out-of-range index leaves the cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, index int) (*CartView, error) {
	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	before := cart.GetVersion()
	cart.RemoveItem(index)
	if cart.GetVersion() != before {
		if err := s.store.Save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return s.view(ctx, cart)
}

// Clear empties the session cart.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

func (s *CartService) View(ctx context.Context, sessionID string) (*CartView, error) {
	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// Checkout places an order from the session cart and clears it. The cart is
// kept when the order cannot be placed.
func (s *CartService) Checkout(ctx context.Context, sessionID string) (*entity.Order, error) {
	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, entity.ErrEmptyOrder
	}

	cmd := PlaceOrder{Items: make([]OrderItem, 0, len(cart.Items))}
	for _, item := range cart.Items {
		cmd.Items = append(cmd.Items, OrderItem{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Sweetness: item.Sweetness,
			Milk:      item.Milk,
			AddOns:    item.AddOns,
		})
	}

	order, err := s.orders.PlaceOrder(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, sessionID); err != nil {
		slog.Error("Failed to clear cart after checkout", "session_id", sessionID, "order_id", order.ID, "err", err)
	}
	return order, nil
}

func (s *CartService) view(ctx context.Context, cart *entity.CartAggregate) (*CartView, error) {
	v := &CartView{
		SessionID:         cart.ID,
		Items:             cart.Items,
		Matches:           []pricing.LineMatch{},
		Promotions:        []pricing.PromotionUsage{},
		Subtotal:          cart.Subtotal(),
		Discount:          cart.Discount(),
		Total:             cart.Total(),
		PromotionDiscount: decimal.Zero,
	}
	v.EstimatedTotal = v.Total

	if cart.IsEmpty() {
		return v, nil
	}

	ids := make([]string, 0, len(cart.Items))
	lines := make([]pricing.Line, len(cart.Items))
	for i, item := range cart.Items {
		ids = append(ids, item.ProductID)
		lines[i] = pricing.Line{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	result, err := s.promotions.Evaluate(ctx, products, lines)
	if err != nil {
		return nil, err
	}

	v.Matches = result.Lines
	if result.Promotions != nil {
		v.Promotions = result.Promotions
	}
	v.PromotionDiscount = result.TotalDiscount()
	v.EstimatedTotal = decimal.Max(v.Total.Sub(v.PromotionDiscount), decimal.Zero)
	return v, nil
}
