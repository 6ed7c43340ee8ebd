package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

type cartEntry struct {
	data      []byte
	expiresAt time.Time
}

// CartStore keeps carts encoded like the redis store does, so a loaded cart
// never aliases a stored one. Entries idle longer than ttl are dropped.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]cartEntry
	ttl   time.Duration
	now   func() time.Time
}

var _ repository.CartStore = (*CartStore)(nil)

// NewCartStore creates a cart store; ttl <= 0 keeps carts until deleted.
func NewCartStore(ttl time.Duration) *CartStore {
	return &CartStore{carts: map[string]cartEntry{}, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source, for tests of idle expiry.
func (s *CartStore) WithClock(now func() time.Time) *CartStore {
	s.now = now
	return s
}

func (s *CartStore) Load(ctx context.Context, sessionID string) (*entity.CartAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.carts[sessionID]
	if !ok {
		return entity.NewCartAggregate(sessionID), nil
	}
	if s.ttl > 0 && !s.now().Before(entry.expiresAt) {
		delete(s.carts, sessionID)
		return entity.NewCartAggregate(sessionID), nil
	}

	var cart entity.CartAggregate
	if err := json.Unmarshal(entry.data, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart %s: %w", sessionID, err)
	}
	return &cart, nil
}

func (s *CartStore) Save(ctx context.Context, cart *entity.CartAggregate) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart %s: %w", cart.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.ID] = cartEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}
