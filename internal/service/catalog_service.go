package service

import (
	"context"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

// CatalogService is the read-only view of the menu.
type CatalogService struct {
	productRepo repository.ProductRepository
}

func NewCatalogService(productRepo repository.ProductRepository) *CatalogService {
	return &CatalogService{productRepo: productRepo}
}

// Products returns the menu, or one category of it when categoryID is set.
func (s *CatalogService) Products(ctx context.Context, categoryID string) ([]entity.Product, error) {
	if categoryID != "" {
		return s.productRepo.FindByCategory(ctx, categoryID)
	}
	return s.productRepo.FindAll(ctx)
}

func (s *CatalogService) Product(ctx context.Context, id string) (*entity.Product, error) {
	return s.productRepo.Get(ctx, id)
}
