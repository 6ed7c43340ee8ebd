package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository/memory"
)

// 2026-10-14 is a Wednesday.
var testNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

func fixedClock() Clock { return func() time.Time { return testNow } }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

type publishedEvent struct {
	topic string
	key   string
	event any
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (m *mockPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

func (m *mockPublisher) topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.topic)
	}
	return out
}

// failingNotificationRepository refuses every write.
type failingNotificationRepository struct {
	repository.NotificationRepository
}

func (failingNotificationRepository) Create(context.Context, *entity.Notification) error {
	return errors.New("notification store unavailable")
}

var testProducts = []entity.Product{
	{
		ID:         "iced-latte",
		Name:       "Iced Latte",
		Categories: []string{"Coffee"},
		Prices:     map[entity.Size]decimal.Decimal{entity.SizeRegular: dec("110"), entity.SizeLarge: dec("125")},
		Active:     true,
	},
	{
		ID:         "cake",
		Name:       "Chocolate Cake",
		Categories: []string{"Bakery"},
		Prices:     map[entity.Size]decimal.Decimal{entity.SizeRegular: dec("120")},
		Active:     true,
	},
	{
		ID:         "croissant",
		Name:       "Croissant",
		Categories: []string{"Bakery"},
		Prices:     map[entity.Size]decimal.Decimal{entity.SizeRegular: dec("55")},
		Active:     true,
	},
	{
		ID:         "retired",
		Name:       "Retired Blend",
		Categories: []string{"Coffee"},
		Prices:     map[entity.Size]decimal.Decimal{entity.SizeRegular: dec("70")},
		Active:     false,
	},
}

type fixture struct {
	publisher        *mockPublisher
	productRepo      repository.ProductRepository
	promotionRepo    repository.PromotionRepository
	orderRepo        repository.OrderRepository
	inventoryRepo    repository.InventoryRepository
	notificationRepo repository.NotificationRepository
	cartStore        *memory.CartStore

	catalog       *CatalogService
	promotions    *PromotionService
	notifications *NotificationService
	inventory     *InventoryService
	orders        *OrderService
	carts         *CartService
}

type fixtureOption func(*fixture)

func withNotificationRepository(repo repository.NotificationRepository) fixtureOption {
	return func(f *fixture) { f.notificationRepo = repo }
}

func setup(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		publisher:        &mockPublisher{},
		productRepo:      memory.NewProductRepository(),
		promotionRepo:    memory.NewPromotionRepository(),
		orderRepo:        memory.NewOrderRepository(),
		inventoryRepo:    memory.NewInventoryRepository(),
		notificationRepo: memory.NewNotificationRepository(),
		cartStore:        memory.NewCartStore(15 * time.Minute),
	}
	for _, opt := range opts {
		opt(f)
	}
	require.NoError(t, f.productRepo.Seed(context.Background(), testProducts))

	clock := fixedClock()
	f.catalog = NewCatalogService(f.productRepo)
	f.promotions = NewPromotionService(f.promotionRepo, f.productRepo, clock)
	f.notifications = NewNotificationService(f.notificationRepo, f.publisher, clock)
	f.inventory = NewInventoryService(f.inventoryRepo, f.notifications, f.publisher)
	f.orders = NewOrderService(f.orderRepo, f.productRepo, f.promotions, f.inventory, f.publisher, clock)
	f.carts = NewCartService(f.cartStore, f.productRepo, f.promotions, f.orders)
	return f
}

func (f *fixture) seedInventory(t *testing.T, items ...entity.InventoryItem) {
	t.Helper()
	require.NoError(t, f.inventoryRepo.Seed(context.Background(), items))
}

func (f *fixture) createPromotion(t *testing.T, p entity.Promotion) *entity.Promotion {
	t.Helper()
	if p.Kind == "" {
		p.Kind = entity.DiscountPercentage
	}
	if p.StartDate.IsZero() {
		p.StartDate = testNow.AddDate(0, 0, -7)
		p.EndDate = testNow.AddDate(0, 0, 7)
	}
	p.Active = true
	created, err := f.promotions.Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

// placeOrder places and returns an order for the given product quantities.
func (f *fixture) placeOrder(t *testing.T, items ...OrderItem) *entity.Order {
	t.Helper()
	order, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{Items: items})
	require.NoError(t, err)
	return order
}

func inventoryItem(id, productID, name string, quantity, reorder string) entity.InventoryItem {
	item := entity.InventoryItem{
		ID:           id,
		Name:         name,
		Quantity:     dec(quantity),
		ReorderLevel: dec(reorder),
		Unit:         "unit",
	}
	if productID != "" {
		item.ProductID = strPtr(productID)
	}
	return item
}
