package product

import (
	"context"
	"fmt"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/tx"
	"stockyard/internal/domain"
	"stockyard/pkg/numerator"
)

// Service provides business logic for the product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

// prepareForCreate handles code generation and uniqueness checks.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PR"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}

	if p.SKU != "" {
		if exists, _ := s.checkSKUExists(ctx, p.SKU, p.ID); exists {
			return apperror.NewDuplicate("product", "sku", p.SKU)
		}
	}

	return nil
}

// prepareForUpdate handles uniqueness checks.
func (s *Service) prepareForUpdate(ctx context.Context, p *Product) error {
	if p.SKU != "" {
		if exists, _ := s.checkSKUExists(ctx, p.SKU, p.ID); exists {
			return apperror.NewDuplicate("product", "sku", p.SKU)
		}
	}
	return nil
}

// FindBySKU retrieves a product by SKU.
func (s *Service) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	p, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) checkSKUExists(ctx context.Context, sku string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		return false, nil
	}
	return existing.ID != excludeID, nil
}
