package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/config"
	delivery "github.com/Pondcod/cafe-kiosk-sub000/internal/delivery/http"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/logging"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/messaging"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository/postgres"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/service"
)

const consumerGroup = "cafe-kiosk"

func main() {
	app := &cli.App{
		Name:  "cafe-kiosk",
		Usage: "café kiosk ordering, pricing and inventory service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Usage: "persistence backend (postgres|memory)"},
			&cli.StringFlag{Name: "broker", Usage: "event broker (kafka|memory)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug|info|warn|error"},
		},
		Before: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			c.App.Metadata = map[string]any{"config": cfg}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API and event consumers",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address"},
					&cli.BoolFlag{Name: "seed", Usage: "load seed data before serving"},
				},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations",
				Action: migrate,
			},
			{
				Name:   "seed",
				Usage:  "load the default menu, stock and promotions",
				Action: seed,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Command failed", "err", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.IsSet("store") {
		cfg.Store = c.String("store")
	}
	if c.IsSet("broker") {
		cfg.Broker = c.String("broker")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata["config"].(*config.Config)
}

func serve(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("addr") {
		cfg.HTTPAddr = c.String("addr")
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Store == config.BackendMemory || c.Bool("seed") {
		if err := a.seed(ctx); err != nil {
			return err
		}
	}

	go a.broker.Consume(ctx, messaging.TopicOrderPlaced, consumerGroup+"-order-notifications", a.notifications.HandleOrderPlaced)
	go a.broker.Consume(ctx, messaging.TopicNotifications, consumerGroup+"-notification-delivery", a.notifications.HandleNotificationCreated)

	handler := delivery.NewHandler(a.catalog, a.carts, a.promotions, a.orders, a.inventory, a.notifications)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           delivery.NewRouter(handler, cfg.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.Store, "broker", cfg.Broker)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return httpServer.Shutdown(shutdownCtx)
}

func migrate(c *cli.Context) error {
	cfg := configFrom(c)
	if cfg.Store != config.BackendPostgres {
		return fmt.Errorf("migrate needs the postgres store, got %q", cfg.Store)
	}
	return postgres.Migrate(cfg.DatabaseURL)
}

func seed(c *cli.Context) error {
	cfg := configFrom(c)
	if cfg.Store == config.BackendMemory {
		return errors.New("seeding the memory store has no lasting effect; use serve instead")
	}
	a, err := buildApp(c.Context, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.seed(c.Context)
}

// seed loads the default data into the configured stores.
func (a *app) seed(ctx context.Context) error {
	return service.Seed(ctx, a.productRepo, a.inventoryRepo, a.promotions, a.clock)
}
