package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/pricing"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

// MatchItem is one (product, quantity) pair submitted to the matcher.
type MatchItem struct {
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Size      entity.Size `json:"size,omitempty"`
}

// PromotionService loads promotions and runs the matcher against server time.
type PromotionService struct {
	repo        repository.PromotionRepository
	productRepo repository.ProductRepository
	now         Clock
}

func NewPromotionService(repo repository.PromotionRepository, productRepo repository.ProductRepository, now Clock) *PromotionService {
	return &PromotionService{repo: repo, productRepo: productRepo, now: now}
}

// Create validates and stores a promotion. ID and CreatedAt are assigned here.
func (s *PromotionService) Create(ctx context.Context, p entity.Promotion) (*entity.Promotion, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = uuid.New().String()
	p.CreatedAt = s.now()

	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}
	slog.Info("Promotion created", "promotion_id", p.ID, "name", p.Name, "value", p.Value.String())
	return &p, nil
}

// Active returns the promotions eligible right now, weekday included.
func (s *PromotionService) Active(ctx context.Context) ([]entity.Promotion, error) {
	now := s.now()
	candidates, err := s.repo.FindActive(ctx, now)
	if err != nil {
		return nil, err
	}
	active := make([]entity.Promotion, 0, len(candidates))
	for _, p := range candidates {
		if p.ActiveOn(now) {
			active = append(active, p)
		}
	}
	return active, nil
}

// Evaluate runs the matcher over priced lines for products the caller has
// already loaded.
func (s *PromotionService) Evaluate(ctx context.Context, products map[string]entity.Product, lines []pricing.Line) (pricing.Result, error) {
	now := s.now()
	promotions, err := s.repo.FindActive(ctx, now)
	if err != nil {
		return pricing.Result{}, fmt.Errorf("failed to load promotions: %w", err)
	}
	return pricing.Match(now, promotions, products, lines), nil
}

// Match prices the items from the catalog and runs the matcher. Unknown
// products come back unmodified with a zero unit price.
func (s *PromotionService) Match(ctx context.Context, items []MatchItem) (pricing.Result, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return pricing.Result{}, err
	}

	lines := make([]pricing.Line, len(items))
	for i, it := range items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		unit := decimal.Zero
		if p, ok := products[it.ProductID]; ok {
			if unit, err = p.PriceFor(it.Size); err != nil {
				return pricing.Result{}, err
			}
		}
		lines[i] = pricing.Line{ProductID: it.ProductID, Quantity: qty, UnitPrice: unit}
	}
	return s.Evaluate(ctx, products, lines)
}
