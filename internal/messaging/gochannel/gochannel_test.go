package gochannel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/messaging"
)

func TestPublishConsume(t *testing.T) {
	broker := NewBroker(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received []entity.OrderPlaced
	done := make(chan struct{})
	go func() {
		defer close(done)
		broker.Consume(ctx, messaging.TopicOrderPlaced, "test", func(ctx context.Context, payload []byte) error {
			var event entity.OrderPlaced
			if err := json.Unmarshal(payload, &event); err != nil {
				return err
			}
			mu.Lock()
			received = append(received, event)
			mu.Unlock()
			return nil
		})
	}()

	// Messages published before the subscription exists are dropped, so keep
	// publishing until one arrives.
	require.Eventually(t, func() bool {
		assert.NoError(t, broker.PublishEvent(ctx, messaging.TopicOrderPlaced, "order-1", entity.OrderPlaced{OrderID: "order-1", Lines: 2, FinalTotal: "475.00"}))
		mu.Lock()
		defer mu.Unlock()
		return len(received) > 0
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "order-1", received[0].OrderID)
	assert.Equal(t, "475.00", received[0].FinalTotal)
	mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestConsumeSurvivesHandlerErrors(t *testing.T) {
	broker := NewBroker(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	go broker.Consume(ctx, messaging.TopicNotifications, "test", func(context.Context, []byte) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("handler failed")
	})

	require.Eventually(t, func() bool {
		assert.NoError(t, broker.PublishEvent(ctx, messaging.TopicNotifications, "n1", entity.NotificationCreated{NotificationID: "n1"}))
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestPublishRejectsUnencodableEvent(t *testing.T) {
	broker := NewBroker(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = broker.Close() })

	err := broker.PublishEvent(context.Background(), messaging.TopicNotifications, "k", make(chan int))
	assert.Error(t, err)
}
