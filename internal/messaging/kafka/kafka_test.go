package kafka

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
)

func TestPublishConsume(t *testing.T) {
	brokers := os.Getenv("KIOSK_TEST_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("KIOSK_TEST_KAFKA_BROKERS not set")
	}
	broker := NewKafkaBroker(strings.Split(brokers, ","))
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	topic := "test-" + uuid.New().String()

	require.NoError(t, broker.PublishEvent(ctx, topic, "order-1", entity.OrderPlaced{OrderID: "order-1", Lines: 1, FinalTotal: "55.00"}))

	var received atomic.Int32
	go broker.Consume(ctx, topic, "test-"+uuid.New().String(), func(_ context.Context, payload []byte) error {
		if strings.Contains(string(payload), "order-1") {
			received.Add(1)
		}
		return nil
	})

	assert.Eventually(t, func() bool { return received.Load() > 0 }, 25*time.Second, 100*time.Millisecond)
}
