package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryItemApply(t *testing.T) {
	milk := InventoryItem{ID: "inv-milk", Name: "Milk", Quantity: dec("5"), ReorderLevel: dec("10"), Unit: "litre"}

	next, err := milk.Apply(dec("-2"))
	require.NoError(t, err)
	assert.True(t, dec("3").Equal(next.Quantity))
	assert.True(t, next.AtOrBelowReorderLevel())

	_, err = milk.Apply(dec("-6"))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, dec("5").Equal(milk.Quantity), "receiver is not modified")

	empty, err := milk.Apply(dec("-5"))
	require.NoError(t, err)
	assert.True(t, empty.Quantity.IsZero())
}

func TestInventoryAdjustmentValidate(t *testing.T) {
	tests := []struct {
		name  string
		adj   InventoryAdjustment
		valid bool
	}{
		{"restock", InventoryAdjustment{ItemID: "i", Delta: dec("5"), Kind: TransactionRestock}, true},
		{"negative restock", InventoryAdjustment{ItemID: "i", Delta: dec("-5"), Kind: TransactionRestock}, false},
		{"order used", InventoryAdjustment{ItemID: "i", Delta: dec("-1"), Kind: TransactionOrderUsed}, true},
		{"positive damaged", InventoryAdjustment{ItemID: "i", Delta: dec("1"), Kind: TransactionDamaged}, false},
		{"adjusted either way", InventoryAdjustment{ItemID: "i", Delta: dec("1.5"), Kind: TransactionAdjusted}, true},
		{"zero delta", InventoryAdjustment{ItemID: "i", Delta: dec("0"), Kind: TransactionAdjusted}, false},
		{"unknown kind", InventoryAdjustment{ItemID: "i", Delta: dec("1"), Kind: "stolen"}, false},
		{"missing item", InventoryAdjustment{Delta: dec("1"), Kind: TransactionRestock}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.adj.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidAdjustment)
			}
		})
	}
}

func TestLowStockMessage(t *testing.T) {
	msg := LowStockMessage(InventoryItem{Name: "Milk", Quantity: dec("3"), ReorderLevel: dec("10"), Unit: "litre"})
	assert.Contains(t, msg, "Milk")
	assert.Contains(t, msg, "3 litre")
	assert.Contains(t, msg, "reorder level 10")
}
