package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/messaging"
)

func TestPlaceOrder(t *testing.T) {
	t.Run("prices from catalog and applies discounts", func(t *testing.T) {
		f := setup(t)
		f.createPromotion(t, entity.Promotion{
			Name:       "Latte Wednesdays",
			Value:      dec("25"),
			Days:       []string{"Monday", "Wednesday", "Friday"},
			TargetType: entity.TargetProduct,
			TargetIDs:  []string{"iced-latte"},
		})

		order := f.placeOrder(t,
			OrderItem{ProductID: "iced-latte", Quantity: 2, Sweetness: "Regular Sweet", Milk: strPtr("Oat Milk")},
			OrderItem{ProductID: "cake", Quantity: 3},
		)

		assert.Equal(t, entity.OrderPending, order.Status)
		require.Len(t, order.Lines, 2)
		assert.True(t, dec("27.5").Equal(order.Lines[0].DiscountPerUnit))
		assert.True(t, dec("580").Equal(order.Subtotal))
		assert.True(t, dec("50").Equal(order.ThresholdDiscount))
		assert.True(t, dec("55").Equal(order.PromotionDiscount))
		assert.True(t, dec("475").Equal(order.FinalTotal))

		stored, err := f.orders.GetOrder(context.Background(), order.ID)
		require.NoError(t, err)
		assert.True(t, order.FinalTotal.Equal(stored.FinalTotal))

		assert.Equal(t, []string{messaging.TopicOrderPlaced}, f.publisher.topics())
	})

	t.Run("merges duplicate selections", func(t *testing.T) {
		f := setup(t)
		order := f.placeOrder(t,
			OrderItem{ProductID: "iced-latte", Quantity: 1, Sweetness: "Regular Sweet", Milk: strPtr("Oat Milk")},
			OrderItem{ProductID: "iced-latte", Quantity: 2, Sweetness: "Regular Sweet", Milk: strPtr("Oat Milk")},
		)
		require.Len(t, order.Lines, 1)
		assert.Equal(t, 3, order.Lines[0].Quantity)
		assert.True(t, dec("330").Equal(order.Subtotal))
	})

	t.Run("adds add-on prices to the unit price", func(t *testing.T) {
		f := setup(t)
		order := f.placeOrder(t, OrderItem{
			ProductID: "iced-latte",
			Size:      entity.SizeLarge,
			Quantity:  1,
			AddOns:    []entity.AddOn{{Name: "Extra Shot", Price: dec("15")}},
		})
		assert.True(t, dec("140").Equal(order.Lines[0].UnitPrice))
	})

	tests := []struct {
		name   string
		items  []OrderItem
		target error
	}{
		{"empty", nil, entity.ErrEmptyOrder},
		{"zero quantity", []OrderItem{{ProductID: "cake", Quantity: 0}}, entity.ErrValidation},
		{"unknown product", []OrderItem{{ProductID: "ghost", Quantity: 1}}, entity.ErrValidation},
		{"inactive product", []OrderItem{{ProductID: "retired", Quantity: 1}}, entity.ErrProductInactive},
		{"unknown size", []OrderItem{{ProductID: "cake", Size: entity.SizeLarge, Quantity: 1}}, entity.ErrUnknownSize},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			f := setup(t)
			_, err := f.orders.PlaceOrder(context.Background(), PlaceOrder{Items: tt.items})
			assert.ErrorIs(t, err, tt.target)

			orders, err := f.orders.RecentOrders(context.Background(), 0)
			require.NoError(t, err)
			assert.Empty(t, orders, "no order is written on validation failure")
		})
	}

	t.Run("broker failure does not fail the order", func(t *testing.T) {
		f := setup(t)
		f.publisher.err = errors.New("broker down")
		order := f.placeOrder(t, OrderItem{ProductID: "cake", Quantity: 1})

		_, err := f.orders.GetOrder(context.Background(), order.ID)
		assert.NoError(t, err)
	})
}

func TestUpdateStatusReconcilesOnCompletion(t *testing.T) {
	f := setup(t)
	f.seedInventory(t, inventoryItem("inv-milk", "iced-latte", "Milk", "5", "10"))
	order := f.placeOrder(t, OrderItem{ProductID: "iced-latte", Quantity: 2})

	result, err := f.orders.UpdateStatus(context.Background(), order.ID, "completed")
	require.NoError(t, err)

	assert.Equal(t, entity.OrderCompleted, result.Order.Status)
	require.NotNil(t, result.Order.CompletedAt)
	require.NotNil(t, result.Reconciliation)
	assert.Equal(t, 0, result.Reconciliation.Failed())
	assert.Equal(t, []string{"inv-milk"}, result.Reconciliation.LowStockItems)

	item, err := f.inventoryRepo.Get(context.Background(), "inv-milk")
	require.NoError(t, err)
	assert.True(t, dec("3").Equal(item.Quantity))

	txns, err := f.inventory.Transactions(context.Background(), "inv-milk")
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.True(t, dec("-2").Equal(txns[0].QuantityChange))
	assert.Equal(t, entity.TransactionOrderUsed, txns[0].Kind)
	require.NotNil(t, txns[0].OrderID)
	assert.Equal(t, order.ID, *txns[0].OrderID)

	notifications, err := f.notifications.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, entity.NotificationLowStock, notifications[0].Type)
	assert.Contains(t, notifications[0].Message, "Milk")
	assert.Contains(t, notifications[0].Message, "3")
	assert.Contains(t, notifications[0].Message, "10")

	stored, err := f.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCompleted, stored.Status)
}

func TestUpdateStatusPartialReconciliation(t *testing.T) {
	f := setup(t)
	f.seedInventory(t,
		inventoryItem("inv-latte", "iced-latte", "Iced Latte cups", "50", "5"),
		inventoryItem("inv-cake", "cake", "Chocolate Cake", "2", "1"),
	)
	order := f.placeOrder(t,
		OrderItem{ProductID: "iced-latte", Quantity: 4},
		OrderItem{ProductID: "cake", Quantity: 3},
		OrderItem{ProductID: "croissant", Quantity: 1},
	)

	result, err := f.orders.UpdateStatus(context.Background(), order.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCompleted, result.Order.Status)

	report := result.Reconciliation
	require.NotNil(t, report)
	require.Len(t, report.Lines, 3)
	assert.Equal(t, LineAdjusted, report.Lines[0].Outcome)
	assert.Equal(t, LineFailed, report.Lines[1].Outcome)
	assert.NotEmpty(t, report.Lines[1].Error)
	assert.Equal(t, LineSkipped, report.Lines[2].Outcome)
	assert.Equal(t, 1, report.Failed())

	latte, err := f.inventoryRepo.Get(context.Background(), "inv-latte")
	require.NoError(t, err)
	assert.True(t, dec("46").Equal(latte.Quantity))

	cake, err := f.inventoryRepo.Get(context.Background(), "inv-cake")
	require.NoError(t, err)
	assert.True(t, dec("2").Equal(cake.Quantity), "rejected line leaves stock untouched")

	cakeTxns, err := f.inventory.Transactions(context.Background(), "inv-cake")
	require.NoError(t, err)
	assert.Empty(t, cakeTxns)

	stored, err := f.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCompleted, stored.Status)
}

func TestUpdateStatusDedupesLowStockPerPass(t *testing.T) {
	f := setup(t)
	f.seedInventory(t, inventoryItem("inv-latte", "iced-latte", "Iced Latte cups", "6", "5"))
	order := f.placeOrder(t,
		OrderItem{ProductID: "iced-latte", Quantity: 1, Milk: strPtr("Oat Milk")},
		OrderItem{ProductID: "iced-latte", Quantity: 2, Milk: strPtr("Whole Milk")},
	)
	require.Len(t, order.Lines, 2)

	result, err := f.orders.UpdateStatus(context.Background(), order.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, []string{"inv-latte"}, result.Reconciliation.LowStockItems)

	notifications, err := f.notifications.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "has 3 unit")

	txns, err := f.inventory.Transactions(context.Background(), "inv-latte")
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestUpdateStatusNotificationFailureKeepsCompletion(t *testing.T) {
	f := setup(t, withNotificationRepository(failingNotificationRepository{}))
	f.seedInventory(t, inventoryItem("inv-milk", "iced-latte", "Milk", "5", "10"))
	order := f.placeOrder(t, OrderItem{ProductID: "iced-latte", Quantity: 2})

	result, err := f.orders.UpdateStatus(context.Background(), order.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCompleted, result.Order.Status)
	assert.Len(t, result.Reconciliation.NotificationErrors, 1)

	item, err := f.inventoryRepo.Get(context.Background(), "inv-milk")
	require.NoError(t, err)
	assert.True(t, dec("3").Equal(item.Quantity))
}

func TestUpdateStatusConflicts(t *testing.T) {
	f := setup(t)
	f.seedInventory(t, inventoryItem("inv-cake", "cake", "Chocolate Cake", "10", "1"))
	order := f.placeOrder(t, OrderItem{ProductID: "cake", Quantity: 1})
	ctx := context.Background()

	t.Run("unknown status", func(t *testing.T) {
		_, err := f.orders.UpdateStatus(ctx, order.ID, "shipped")
		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.orders.UpdateStatus(ctx, "ghost", "processing")
		assert.ErrorIs(t, err, entity.ErrOrderNotFound)
	})

	t.Run("refund before completion", func(t *testing.T) {
		_, err := f.orders.UpdateStatus(ctx, order.ID, "refunded")
		assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	})

	t.Run("processing has no reconciliation", func(t *testing.T) {
		result, err := f.orders.UpdateStatus(ctx, order.ID, "processing")
		require.NoError(t, err)
		assert.Nil(t, result.Reconciliation)
	})

	t.Run("completing twice reconciles once", func(t *testing.T) {
		_, err := f.orders.UpdateStatus(ctx, order.ID, "completed")
		require.NoError(t, err)

		_, err = f.orders.UpdateStatus(ctx, order.ID, "completed")
		assert.ErrorIs(t, err, entity.ErrConflict)

		txns, err := f.inventory.Transactions(ctx, "inv-cake")
		require.NoError(t, err)
		assert.Len(t, txns, 1)
	})

	t.Run("refund after completion", func(t *testing.T) {
		result, err := f.orders.UpdateStatus(ctx, order.ID, "refunded")
		require.NoError(t, err)
		assert.Equal(t, entity.OrderRefunded, result.Order.Status)
	})

	t.Run("refunded is terminal", func(t *testing.T) {
		_, err := f.orders.UpdateStatus(ctx, order.ID, "pending")
		assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	})
}

func TestUpdateStatusLostRace(t *testing.T) {
	f := setup(t)
	order := f.placeOrder(t, OrderItem{ProductID: "cake", Quantity: 1})
	ctx := context.Background()

	// Another request cancels the order between our read and our write.
	require.NoError(t, f.orderRepo.UpdateStatus(ctx, order.ID, entity.OrderPending, entity.OrderCancelled, testNow))
	err := f.orderRepo.UpdateStatus(ctx, order.ID, entity.OrderPending, entity.OrderCompleted, testNow)
	assert.ErrorIs(t, err, entity.ErrOrderModified)

	stored, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, stored.Status)
}

func TestProcessPayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("flips the flag without changing status", func(t *testing.T) {
		order := f.placeOrder(t, OrderItem{ProductID: "cake", Quantity: 1})
		paid, err := f.orders.ProcessPayment(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, paid.PaymentComplete)
		assert.Equal(t, entity.OrderPending, paid.Status)

		again, err := f.orders.ProcessPayment(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, again.PaymentComplete)
	})

	t.Run("rejected for cancelled orders", func(t *testing.T) {
		order := f.placeOrder(t, OrderItem{ProductID: "cake", Quantity: 1})
		_, err := f.orders.UpdateStatus(ctx, order.ID, "cancelled")
		require.NoError(t, err)

		_, err = f.orders.ProcessPayment(ctx, order.ID)
		assert.ErrorIs(t, err, entity.ErrPaymentNotAllowed)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.orders.ProcessPayment(ctx, "ghost")
		assert.ErrorIs(t, err, entity.ErrNotFound)
	})
}
