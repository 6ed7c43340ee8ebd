package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

const productColumns = "id, name, categories, prices, is_active"

type productRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	Categories pq.StringArray `db:"categories"`
	Prices     []byte         `db:"prices"`
	Active     bool           `db:"is_active"`
}

func (r productRow) toEntity() (entity.Product, error) {
	prices := map[entity.Size]decimal.Decimal{}
	if len(r.Prices) > 0 {
		if err := json.Unmarshal(r.Prices, &prices); err != nil {
			return entity.Product{}, fmt.Errorf("failed to decode prices of product %s: %w", r.ID, err)
		}
	}
	return entity.Product{
		ID:         r.ID,
		Name:       r.Name,
		Categories: []string(r.Categories),
		Prices:     prices,
		Active:     r.Active,
	}, nil
}

type productRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository backed by Postgres.
func NewProductRepository(db *sqlx.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+productColumns+" FROM products ORDER BY name"); err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return toProducts(rows)
}

func (r *productRepository) Get(ctx context.Context, id string) (*entity.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product %s: %w", id, err)
	}
	p, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) FindByCategory(ctx context.Context, categoryID string) ([]entity.Product, error) {
	var rows []productRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+productColumns+" FROM products WHERE $1 = ANY(categories) ORDER BY name", categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products of category %s: %w", categoryID, err)
	}
	return toProducts(rows)
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.Product, error) {
	out := make(map[string]entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []productRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+productColumns+" FROM products WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query products by id: %w", err)
	}
	products, err := toProducts(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM products"); err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	for _, p := range products {
		prices, err := json.Marshal(p.Prices)
		if err != nil {
			return fmt.Errorf("failed to encode prices of product %s: %w", p.ID, err)
		}
		_, err = r.db.ExecContext(ctx,
			"INSERT INTO products (id, name, categories, prices, is_active) VALUES ($1, $2, $3, $4, $5)",
			p.ID, p.Name, pq.Array(p.Categories), prices, p.Active,
		)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

func toProducts(rows []productRow) ([]entity.Product, error) {
	products := make([]entity.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}
