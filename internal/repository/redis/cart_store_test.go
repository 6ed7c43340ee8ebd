package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
)

func TestCartStore(t *testing.T) {
	addr := os.Getenv("KIOSK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KIOSK_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewCartStore(client, time.Minute)
	session := "test-" + uuid.New().String()

	empty, err := store.Load(ctx, session)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, session, empty.ID)

	cart := entity.NewCartAggregate(session)
	cart.AddItem(entity.CartLineItem{ProductID: "cake", ProductName: "Chocolate Cake", Size: entity.SizeRegular, Quantity: 2, UnitPrice: decimal.NewFromInt(120), LineTotal: decimal.NewFromInt(240)})
	require.NoError(t, store.Save(ctx, cart))

	ttl, err := client.TTL(ctx, keyPrefix+session).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	loaded, err := store.Load(ctx, session)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.True(t, decimal.NewFromInt(240).Equal(loaded.Subtotal()))

	require.NoError(t, store.Delete(ctx, session))
	gone, err := store.Load(ctx, session)
	require.NoError(t, err)
	assert.True(t, gone.IsEmpty())
}
