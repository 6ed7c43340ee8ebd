package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/config"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/messaging"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/messaging/gochannel"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/messaging/kafka"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository/memory"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository/postgres"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository/redis"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/service"
)

// app is the wired object graph of one process.
type app struct {
	clock         service.Clock
	broker        messaging.Broker
	productRepo   repository.ProductRepository
	inventoryRepo repository.InventoryRepository

	catalog       *service.CatalogService
	carts         *service.CartService
	promotions    *service.PromotionService
	orders        *service.OrderService
	inventory     *service.InventoryService
	notifications *service.NotificationService

	closers []io.Closer
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &app{clock: service.LocalClock(loc)}

	var (
		productRepo      repository.ProductRepository
		promotionRepo    repository.PromotionRepository
		orderRepo        repository.OrderRepository
		inventoryRepo    repository.InventoryRepository
		notificationRepo repository.NotificationRepository
	)
	switch cfg.Store {
	case config.BackendPostgres:
		db, err := postgres.InitDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		productRepo = postgres.NewProductRepository(db)
		promotionRepo = postgres.NewPromotionRepository(db)
		orderRepo = postgres.NewOrderRepository(db)
		inventoryRepo = postgres.NewInventoryRepository(db)
		notificationRepo = postgres.NewNotificationRepository(db)
	default:
		productRepo = memory.NewProductRepository()
		promotionRepo = memory.NewPromotionRepository()
		orderRepo = memory.NewOrderRepository()
		inventoryRepo = memory.NewInventoryRepository()
		notificationRepo = memory.NewNotificationRepository()
	}

	var carts repository.CartStore
	if cfg.RedisAddr != "" {
		client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client)
		carts = redis.NewCartStore(client, cfg.CartIdleTimeout)
	} else {
		carts = memory.NewCartStore(cfg.CartIdleTimeout)
	}

	switch cfg.Broker {
	case config.BackendKafka:
		a.broker = kafka.NewKafkaBroker(cfg.KafkaBrokers)
	default:
		a.broker = gochannel.NewBroker(slog.Default())
	}
	a.closers = append(a.closers, a.broker)

	a.productRepo = productRepo
	a.inventoryRepo = inventoryRepo
	a.catalog = service.NewCatalogService(productRepo)
	a.notifications = service.NewNotificationService(notificationRepo, a.broker, a.clock)
	a.inventory = service.NewInventoryService(inventoryRepo, a.notifications, a.broker)
	a.promotions = service.NewPromotionService(promotionRepo, productRepo, a.clock)
	a.orders = service.NewOrderService(orderRepo, productRepo, a.promotions, a.inventory, a.broker, a.clock)
	a.carts = service.NewCartService(carts, productRepo, a.promotions, a.orders)

	slog.Info("Application wired", "store", cfg.Store, "broker", cfg.Broker, "redis_carts", cfg.RedisAddr != "", "timezone", loc.String())
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		slog.Error("Failed to release resources", "err", err)
		return fmt.Errorf("failed to close: %w", err)
	}
	return nil
}
