package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

const inventoryColumns = "id, product_id, name, quantity, reorder_level, unit, updated_at"

type inventoryRow struct {
	ID           string          `db:"id"`
	ProductID    sql.NullString  `db:"product_id"`
	Name         string          `db:"name"`
	Quantity     decimal.Decimal `db:"quantity"`
	ReorderLevel decimal.Decimal `db:"reorder_level"`
	Unit         string          `db:"unit"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (r inventoryRow) toEntity() *entity.InventoryItem {
	item := &entity.InventoryItem{
		ID:           r.ID,
		Name:         r.Name,
		Quantity:     r.Quantity,
		ReorderLevel: r.ReorderLevel,
		Unit:         r.Unit,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.ProductID.Valid {
		pid := r.ProductID.String
		item.ProductID = &pid
	}
	return item
}

type transactionRow struct {
	ID              string          `db:"id"`
	InventoryItemID string          `db:"inventory_item_id"`
	QuantityChange  decimal.Decimal `db:"quantity_change"`
	Kind            string          `db:"transaction_type"`
	OrderID         sql.NullString  `db:"order_id"`
	Note            string          `db:"note"`
	CreatedAt       time.Time       `db:"created_at"`
}

type inventoryRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewInventoryRepository creates a new InventoryRepository backed by Postgres.
func NewInventoryRepository(db *sqlx.DB) repository.InventoryRepository {
	return &inventoryRepository{db: db, now: time.Now}
}

func (r *inventoryRepository) Get(ctx context.Context, id string) (*entity.InventoryItem, error) {
	var row inventoryRow
	err := r.db.GetContext(ctx, &row, "SELECT "+inventoryColumns+" FROM inventory_items WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrInventoryItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory item %s: %w", id, err)
	}
	return row.toEntity(), nil
}

func (r *inventoryRepository) GetForProduct(ctx context.Context, productID string) (*entity.InventoryItem, error) {
	var row inventoryRow
	err := r.db.GetContext(ctx, &row, "SELECT "+inventoryColumns+" FROM inventory_items WHERE product_id = $1", productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory for product %s: %w", productID, err)
	}
	return row.toEntity(), nil
}

// Adjust runs the guarded decrement and the audit insert in one transaction,
// so a concurrent adjustment can never observe or produce a negative quantity.
func (r *inventoryRepository) Adjust(ctx context.Context, adj entity.InventoryAdjustment) (*entity.InventoryItem, *entity.InventoryTransaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := r.now().UTC()
	var row inventoryRow
	err = tx.GetContext(ctx, &row, `
		UPDATE inventory_items
		SET quantity = quantity + $2, updated_at = $3
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING `+inventoryColumns,
		adj.ItemID, adj.Delta, now,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, r.adjustRejected(ctx, tx, adj)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to adjust inventory item %s: %w", adj.ItemID, err)
	}

	txn := &entity.InventoryTransaction{
		ID:              uuid.New().String(),
		InventoryItemID: adj.ItemID,
		QuantityChange:  adj.Delta,
		Kind:            adj.Kind,
		OrderID:         adj.OrderID,
		Note:            adj.Note,
		CreatedAt:       now,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory_transactions (id, inventory_item_id, quantity_change, transaction_type, order_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		txn.ID, txn.InventoryItemID, txn.QuantityChange, string(txn.Kind), nullString(txn.OrderID), txn.Note, txn.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert inventory transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return row.toEntity(), txn, nil
}

func (r *inventoryRepository) adjustRejected(ctx context.Context, tx *sqlx.Tx, adj entity.InventoryAdjustment) error {
	var row inventoryRow
	err := tx.GetContext(ctx, &row, "SELECT "+inventoryColumns+" FROM inventory_items WHERE id = $1", adj.ItemID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", entity.ErrInventoryItemNotFound, adj.ItemID)
	}
	if err != nil {
		return fmt.Errorf("failed to query inventory item %s: %w", adj.ItemID, err)
	}
	_, err = row.toEntity().Apply(adj.Delta)
	if err == nil {
		// The row changed between the update and this read; report it as a conflict anyway.
		err = fmt.Errorf("%w: %s", entity.ErrInsufficientStock, adj.ItemID)
	}
	return err
}

func (r *inventoryRepository) Transactions(ctx context.Context, itemID string) ([]entity.InventoryTransaction, error) {
	var rows []transactionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, inventory_item_id, quantity_change, transaction_type, order_id, note, created_at
		FROM inventory_transactions
		WHERE inventory_item_id = $1
		ORDER BY created_at, id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory transactions: %w", err)
	}

	out := make([]entity.InventoryTransaction, 0, len(rows))
	for _, row := range rows {
		t := entity.InventoryTransaction{
			ID:              row.ID,
			InventoryItemID: row.InventoryItemID,
			QuantityChange:  row.QuantityChange,
			Kind:            entity.TransactionKind(row.Kind),
			Note:            row.Note,
			CreatedAt:       row.CreatedAt,
		}
		if row.OrderID.Valid {
			oid := row.OrderID.String
			t.OrderID = &oid
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *inventoryRepository) Seed(ctx context.Context, items []entity.InventoryItem) error {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM inventory_items"); err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	for _, item := range items {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO inventory_items (id, product_id, name, quantity, reorder_level, unit, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, nullString(item.ProductID), item.Name, item.Quantity, item.ReorderLevel, item.Unit, r.now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to seed inventory item %s: %w", item.ID, err)
		}
	}
	return nil
}
