package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

func prices(regular, large int64) map[entity.Size]decimal.Decimal {
	p := map[entity.Size]decimal.Decimal{entity.SizeRegular: decimal.NewFromInt(regular)}
	if large > 0 {
		p[entity.SizeLarge] = decimal.NewFromInt(large)
	}
	return p
}

func ptr(s string) *string { return &s }

// SeedProducts is the default café menu.
var SeedProducts = []entity.Product{
	{ID: "americano", Name: "Americano", Categories: []string{"coffee"}, Prices: prices(60, 75), Active: true},
	{ID: "iced-latte", Name: "Iced Latte", Categories: []string{"coffee"}, Prices: prices(80, 95), Active: true},
	{ID: "cappuccino", Name: "Cappuccino", Categories: []string{"coffee"}, Prices: prices(75, 90), Active: true},
	{ID: "matcha-latte", Name: "Matcha Latte", Categories: []string{"tea"}, Prices: prices(90, 105), Active: true},
	{ID: "thai-tea", Name: "Thai Milk Tea", Categories: []string{"tea"}, Prices: prices(65, 80), Active: true},
	{ID: "croissant", Name: "Butter Croissant", Categories: []string{"bakery"}, Prices: prices(55, 0), Active: true},
	{ID: "chocolate-cake", Name: "Chocolate Cake", Categories: []string{"bakery", "dessert"}, Prices: prices(120, 0), Active: true},
}

// SeedInventory tracks every menu item plus raw materials with no product.
var SeedInventory = []entity.InventoryItem{
	{ID: "inv-americano", ProductID: ptr("americano"), Name: "Americano cups", Quantity: decimal.NewFromInt(100), ReorderLevel: decimal.NewFromInt(20), Unit: "cup"},
	{ID: "inv-iced-latte", ProductID: ptr("iced-latte"), Name: "Iced Latte cups", Quantity: decimal.NewFromInt(80), ReorderLevel: decimal.NewFromInt(20), Unit: "cup"},
	{ID: "inv-cappuccino", ProductID: ptr("cappuccino"), Name: "Cappuccino cups", Quantity: decimal.NewFromInt(80), ReorderLevel: decimal.NewFromInt(20), Unit: "cup"},
	{ID: "inv-matcha-latte", ProductID: ptr("matcha-latte"), Name: "Matcha Latte cups", Quantity: decimal.NewFromInt(50), ReorderLevel: decimal.NewFromInt(10), Unit: "cup"},
	{ID: "inv-croissant", ProductID: ptr("croissant"), Name: "Butter Croissant", Quantity: decimal.NewFromInt(30), ReorderLevel: decimal.NewFromInt(5), Unit: "piece"},
	{ID: "inv-chocolate-cake", ProductID: ptr("chocolate-cake"), Name: "Chocolate Cake", Quantity: decimal.NewFromInt(12), ReorderLevel: decimal.NewFromInt(3), Unit: "slice"},
	{ID: "inv-milk", Name: "Milk", Quantity: decimal.NewFromInt(20), ReorderLevel: decimal.NewFromInt(5), Unit: "litre"},
	{ID: "inv-coffee-beans", Name: "Coffee beans", Quantity: decimal.RequireFromString("8.5"), ReorderLevel: decimal.NewFromInt(2), Unit: "kg"},
}

// Seed loads the default menu, stock and two promotions into empty stores.
// Stores that already hold data are left alone.
func Seed(ctx context.Context, products repository.ProductRepository, inventory repository.InventoryRepository, promotions *PromotionService, now Clock) error {
	if err := products.Seed(ctx, SeedProducts); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := inventory.Seed(ctx, SeedInventory); err != nil {
		return fmt.Errorf("failed to seed inventory: %w", err)
	}

	existing, err := promotions.repo.FindActive(ctx, now())
	if err != nil {
		return fmt.Errorf("failed to check promotions: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("Promotions already present, skipping", "count", len(existing))
		return nil
	}

	start := now()
	end := start.AddDate(1, 0, 0)
	seed := []entity.Promotion{
		{
			Name:       "Coffee Happy Days",
			Kind:       entity.DiscountPercentage,
			Value:      decimal.NewFromInt(10),
			StartDate:  start,
			EndDate:    end,
			Active:     true,
			TargetType: entity.TargetCategory,
			TargetIDs:  []string{"coffee"},
		},
		{
			Name:       "Weekend Cake",
			Kind:       entity.DiscountPercentage,
			Value:      decimal.NewFromInt(20),
			StartDate:  start,
			EndDate:    end,
			Days:       []string{"Saturday", "Sunday"},
			Active:     true,
			TargetType: entity.TargetProduct,
			TargetIDs:  []string{"chocolate-cake"},
		},
	}
	for _, p := range seed {
		if _, err := promotions.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to seed promotion %q: %w", p.Name, err)
		}
	}

	slog.Info("Seed data loaded", "products", len(SeedProducts), "inventory_items", len(SeedInventory), "promotions", len(seed))
	return nil
}
