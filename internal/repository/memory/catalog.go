// Package memory implements the repository contracts in process memory. It
// backs STORE=memory and the service tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

type productRepository struct {
	mu       sync.RWMutex
	products map[string]entity.Product
}

// NewProductRepository creates an empty in-memory catalog.
func NewProductRepository() repository.ProductRepository {
	return &productRepository{products: map[string]entity.Product{}}
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(entity.Product) bool { return true }), nil
}

func (r *productRepository) Get(ctx context.Context, id string) (*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrProductNotFound, id)
	}
	return &p, nil
}

func (r *productRepository) FindByCategory(ctx context.Context, categoryID string) ([]entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(p entity.Product) bool { return p.InCategory(categoryID) }), nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]entity.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.products) > 0 {
		return nil
	}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return nil
}

func (r *productRepository) sorted(keep func(entity.Product) bool) []entity.Product {
	out := make([]entity.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type promotionRepository struct {
	mu         sync.RWMutex
	promotions []entity.Promotion
}

// NewPromotionRepository creates an empty in-memory promotion store.
func NewPromotionRepository() repository.PromotionRepository {
	return &promotionRepository{}
}

func (r *promotionRepository) FindActive(ctx context.Context, asOf time.Time) ([]entity.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day := asOf.Format(time.DateOnly)
	out := make([]entity.Promotion, 0, len(r.promotions))
	for _, p := range r.promotions {
		if !p.Active {
			continue
		}
		if p.StartDate.Format(time.DateOnly) > day || p.EndDate.Format(time.DateOnly) < day {
			continue
		}
		p.Days = slices.Clone(p.Days)
		p.TargetIDs = slices.Clone(p.TargetIDs)
		out = append(out, p)
	}
	return out, nil
}

// Create appends in insertion order, which FindActive preserves.
func (r *promotionRepository) Create(ctx context.Context, p *entity.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.promotions {
		if strings.EqualFold(existing.ID, p.ID) {
			return fmt.Errorf("%w: promotion %s already exists", entity.ErrConflict, p.ID)
		}
	}
	r.promotions = append(r.promotions, *p)
	return nil
}
