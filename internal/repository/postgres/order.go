package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

const orderColumns = `id, subtotal, threshold_discount, promotion_discount, final_total,
	order_status, payment_complete, placed_at, updated_at, completed_at`

type orderRow struct {
	ID                string          `db:"id"`
	Subtotal          decimal.Decimal `db:"subtotal"`
	ThresholdDiscount decimal.Decimal `db:"threshold_discount"`
	PromotionDiscount decimal.Decimal `db:"promotion_discount"`
	FinalTotal        decimal.Decimal `db:"final_total"`
	Status            string          `db:"order_status"`
	PaymentComplete   bool            `db:"payment_complete"`
	PlacedAt          time.Time       `db:"placed_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
	CompletedAt       sql.NullTime    `db:"completed_at"`
}

func (r orderRow) toEntity() entity.Order {
	o := entity.Order{
		ID:                r.ID,
		Subtotal:          r.Subtotal,
		ThresholdDiscount: r.ThresholdDiscount,
		PromotionDiscount: r.PromotionDiscount,
		FinalTotal:        r.FinalTotal,
		Status:            entity.OrderStatus(r.Status),
		PaymentComplete:   r.PaymentComplete,
		PlacedAt:          r.PlacedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		o.CompletedAt = &t
	}
	return o
}

type orderLineRow struct {
	ID              string          `db:"id"`
	OrderID         string          `db:"order_id"`
	ProductID       string          `db:"product_id"`
	ProductName     string          `db:"product_name"`
	Size            string          `db:"size"`
	Sweetness       string          `db:"sweetness"`
	Milk            sql.NullString  `db:"milk"`
	AddOns          []byte          `db:"add_ons"`
	Quantity        int             `db:"quantity"`
	UnitPrice       decimal.Decimal `db:"unit_price"`
	PromotionID     sql.NullString  `db:"promotion_id"`
	DiscountPerUnit decimal.Decimal `db:"discount_per_unit"`
	LineDiscount    decimal.Decimal `db:"line_discount"`
	LineTotal       decimal.Decimal `db:"line_total"`
}

func (r orderLineRow) toEntity() (entity.OrderLine, error) {
	line := entity.OrderLine{
		ID:              r.ID,
		ProductID:       r.ProductID,
		ProductName:     r.ProductName,
		Size:            entity.Size(r.Size),
		Sweetness:       r.Sweetness,
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice,
		PromotionID:     r.PromotionID.String,
		DiscountPerUnit: r.DiscountPerUnit,
		LineDiscount:    r.LineDiscount,
		LineTotal:       r.LineTotal,
	}
	if r.Milk.Valid {
		milk := r.Milk.String
		line.Milk = &milk
	}
	if len(r.AddOns) > 0 {
		if err := json.Unmarshal(r.AddOns, &line.AddOns); err != nil {
			return entity.OrderLine{}, fmt.Errorf("failed to decode add-ons of line %s: %w", r.ID, err)
		}
	}
	return line, nil
}

type orderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository backed by Postgres.
func NewOrderRepository(db *sqlx.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, subtotal, threshold_discount, promotion_discount, final_total,
		                    order_status, payment_complete, placed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		order.ID, order.Subtotal, order.ThresholdDiscount, order.PromotionDiscount, order.FinalTotal,
		string(order.Status), order.PaymentComplete, order.PlacedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for pos, line := range order.Lines {
		addOns, err := json.Marshal(line.AddOns)
		if err != nil {
			return fmt.Errorf("failed to encode add-ons: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, position, product_id, product_name, size, sweetness, milk,
			                         add_ons, quantity, unit_price, promotion_id, discount_per_unit, line_discount, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			line.ID, order.ID, pos, line.ProductID, line.ProductName, string(line.Size), line.Sweetness,
			nullString(line.Milk), addOns, line.Quantity, line.UnitPrice,
			sql.NullString{String: line.PromotionID, Valid: line.PromotionID != ""},
			line.DiscountPerUnit, line.LineDiscount, line.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (*entity.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order %s: %w", id, err)
	}

	order := row.toEntity()
	if order.Lines, err = r.lines(ctx, id); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET order_status = $3,
		    updated_at = $4,
		    completed_at = CASE WHEN $3 = 'completed' THEN $4 ELSE completed_at END
		WHERE id = $1 AND order_status = $2`,
		id, string(from), string(to), at,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return r.checkAffected(ctx, res, id)
}

func (r *orderRepository) SetPaymentComplete(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET payment_complete = TRUE, updated_at = $2 WHERE id = $1 AND order_status NOT IN ('cancelled', 'refunded')",
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	return r.checkAffected(ctx, res, id)
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+orderColumns+" FROM orders ORDER BY placed_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := make([]entity.Order, 0, len(rows))
	for _, row := range rows {
		o := row.toEntity()
		if o.Lines, err = r.lines(ctx, o.ID); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *orderRepository) lines(ctx context.Context, orderID string) ([]entity.OrderLine, error) {
	var rows []orderLineRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, order_id, product_id, product_name, size, sweetness, milk, add_ons, quantity,
		       unit_price, promotion_id, discount_per_unit, line_discount, line_total
		FROM order_items WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}

	lines := make([]entity.OrderLine, 0, len(rows))
	for _, row := range rows {
		line, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// checkAffected distinguishes a missing order from a lost conditional update.
func (r *orderRepository) checkAffected(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)", id); err != nil {
		return fmt.Errorf("failed to check order %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", entity.ErrOrderNotFound, id)
	}
	return fmt.Errorf("%w: %s", entity.ErrOrderModified, id)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
