package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
)

// openTestDB runs against a disposable database named by
// KIOSK_TEST_DATABASE_URL and skips otherwise.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("KIOSK_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("KIOSK_TEST_DATABASE_URL not set")
	}
	db, err := InitDB(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertItem(t *testing.T, db *sqlx.DB, quantity int64) string {
	t.Helper()
	id := "inv-" + uuid.New().String()
	_, err := db.Exec(`INSERT INTO inventory_items (id, name, quantity, reorder_level, unit) VALUES ($1, $2, $3, 2, 'litre')`,
		id, "Milk", quantity)
	require.NoError(t, err)
	return id
}

func TestInventoryAdjustConcurrent(t *testing.T) {
	db := openTestDB(t)
	repo := NewInventoryRepository(db)
	ctx := context.Background()
	id := insertItem(t, db, 10)

	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := repo.Adjust(ctx, entity.InventoryAdjustment{ItemID: id, Delta: decimal.NewFromInt(-1), Kind: entity.TransactionAdjusted})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, entity.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(15), rejected.Load())

	item, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, item.Quantity.IsZero())

	txns, err := repo.Transactions(ctx, id)
	require.NoError(t, err)
	assert.Len(t, txns, 10)

	_, _, err = repo.Adjust(ctx, entity.InventoryAdjustment{ItemID: "inv-" + uuid.New().String(), Delta: decimal.NewFromInt(1), Kind: entity.TransactionRestock})
	assert.ErrorIs(t, err, entity.ErrInventoryItemNotFound)
}

func TestOrderRoundTripAndConditionalStatus(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	milk := "Oat Milk"

	order := &entity.Order{
		ID: uuid.New().String(),
		Lines: []entity.OrderLine{{
			ID:              uuid.New().String(),
			ProductID:       "iced-latte",
			ProductName:     "Iced Latte",
			Size:            entity.SizeRegular,
			Sweetness:       "Regular Sweet",
			Milk:            &milk,
			AddOns:          []entity.AddOn{{Name: "Extra Shot", Price: decimal.NewFromInt(15)}},
			Quantity:        2,
			UnitPrice:       decimal.NewFromInt(125),
			DiscountPerUnit: decimal.RequireFromString("31.25"),
			LineDiscount:    decimal.RequireFromString("62.5"),
			LineTotal:       decimal.NewFromInt(250),
		}},
		Subtotal:          decimal.NewFromInt(250),
		PromotionDiscount: decimal.RequireFromString("62.5"),
		FinalTotal:        decimal.RequireFromString("187.5"),
		Status:            entity.OrderPending,
		PlacedAt:          now,
		UpdatedAt:         now,
	}
	require.NoError(t, repo.Create(ctx, order))

	got, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.True(t, order.FinalTotal.Equal(got.FinalTotal))
	require.NotNil(t, got.Lines[0].Milk)
	assert.Equal(t, milk, *got.Lines[0].Milk)
	require.Len(t, got.Lines[0].AddOns, 1)
	assert.Empty(t, got.Lines[0].PromotionID)

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, entity.OrderPending, entity.OrderCompleted, now))
	err = repo.UpdateStatus(ctx, order.ID, entity.OrderPending, entity.OrderCompleted, now)
	assert.ErrorIs(t, err, entity.ErrOrderModified)

	err = repo.UpdateStatus(ctx, uuid.New().String(), entity.OrderPending, entity.OrderCompleted, now)
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)

	got, err = repo.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestNotificationMarkReadUnknown(t *testing.T) {
	db := openTestDB(t)
	repo := NewNotificationRepository(db)
	assert.ErrorIs(t, repo.MarkRead(context.Background(), uuid.New().String()), entity.ErrNotificationNotFound)
}
