package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

type promotionRow struct {
	ID         string          `db:"id"`
	Name       string          `db:"name"`
	Kind       string          `db:"discount_type"`
	Value      decimal.Decimal `db:"discount_value"`
	StartDate  time.Time       `db:"start_date"`
	EndDate    time.Time       `db:"end_date"`
	Days       pq.StringArray  `db:"days_of_week"`
	Active     bool            `db:"is_active"`
	TargetType string          `db:"target_type"`
	TargetIDs  pq.StringArray  `db:"target_ids"`
	CreatedAt  time.Time       `db:"created_at"`
}

type promotionRepository struct {
	db *sqlx.DB
}

// NewPromotionRepository creates a new PromotionRepository backed by Postgres.
func NewPromotionRepository(db *sqlx.DB) repository.PromotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) FindActive(ctx context.Context, asOf time.Time) ([]entity.Promotion, error) {
	var rows []promotionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, discount_type, discount_value, start_date, end_date, days_of_week,
		       is_active, target_type, target_ids, created_at
		FROM promotions
		WHERE is_active AND start_date <= $1::date AND end_date >= $1::date
		ORDER BY created_at, id`,
		asOf.Format(time.DateOnly),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query active promotions: %w", err)
	}

	promotions := make([]entity.Promotion, 0, len(rows))
	for _, row := range rows {
		promotions = append(promotions, entity.Promotion{
			ID:         row.ID,
			Name:       row.Name,
			Kind:       entity.DiscountKind(row.Kind),
			Value:      row.Value,
			StartDate:  row.StartDate,
			EndDate:    row.EndDate,
			Days:       []string(row.Days),
			Active:     row.Active,
			TargetType: entity.TargetType(row.TargetType),
			TargetIDs:  []string(row.TargetIDs),
			CreatedAt:  row.CreatedAt,
		})
	}
	return promotions, nil
}

func (r *promotionRepository) Create(ctx context.Context, p *entity.Promotion) error {
	var days any
	if len(p.Days) > 0 {
		days = pq.Array(p.Days)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO promotions (id, name, discount_type, discount_value, start_date, end_date,
		                        days_of_week, is_active, target_type, target_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, string(p.Kind), p.Value,
		p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly),
		days, p.Active, string(p.TargetType), pq.Array(p.TargetIDs), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert promotion %s: %w", p.ID, err)
	}
	return nil
}
