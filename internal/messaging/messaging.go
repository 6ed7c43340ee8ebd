package messaging

import (
	"context"
	"encoding/json"
	"fmt"
)

// Topics carrying domain events.
const (
	TopicOrderPlaced       = "orders.placed"
	TopicOrderStatus       = "orders.status"
	TopicInventoryAdjusted = "inventory.adjusted"
	TopicNotifications     = "notifications"
)

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// Subscriber defines an interface for subscribing to a message topic.
// Consume blocks until ctx is done.
type Subscriber interface {
	Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error)
}

// Broker is a closable publisher and subscriber pair.
type Broker interface {
	Publisher
	Subscriber
	Close() error
}

// Encode is the wire format shared by every broker implementation.
func Encode(event any) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return payload, nil
}

// NopPublisher drops every event. It stands in where no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, string, string, any) error { return nil }
