// Package redis keeps kiosk carts in Redis. Every write refreshes the key's
// TTL, so a cart left idle past the timeout disappears on its own.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

const keyPrefix = "kiosk:cart:"

type CartStore struct {
	client  goredis.UniversalClient
	idleTTL time.Duration
}

var _ repository.CartStore = (*CartStore)(nil)

func NewCartStore(client goredis.UniversalClient, idleTTL time.Duration) *CartStore {
	return &CartStore{client: client, idleTTL: idleTTL}
}

// NewClient connects to addr and pings it once.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *CartStore) Load(ctx context.Context, sessionID string) (*entity.CartAggregate, error) {
	data, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return entity.NewCartAggregate(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart %s: %w", sessionID, err)
	}

	var cart entity.CartAggregate
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart %s: %w", sessionID, err)
	}
	return &cart, nil
}

func (s *CartStore) Save(ctx context.Context, cart *entity.CartAggregate) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart %s: %w", cart.ID, err)
	}
	if err := s.client.Set(ctx, keyPrefix+cart.ID, data, s.idleTTL).Err(); err != nil {
		return fmt.Errorf("failed to save cart %s: %w", cart.ID, err)
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete cart %s: %w", sessionID, err)
	}
	return nil
}
