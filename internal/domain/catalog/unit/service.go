package unit

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

// Service provides business logic for the operating-unit catalog.
type Service struct {
	*domain.CatalogService[*Unit]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Unit service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Unit]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "unit",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, u *Unit) error {
	if u.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("UN"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		u.Code = code
	}
	return nil
}

// ListActive retrieves all active units.
func (s *Service) ListActive(ctx context.Context) ([]*Unit, error) {
	return s.repo.ListActive(ctx)
}

// RequireActive loads a unit and fails when it is missing or inactive.
func (s *Service) RequireActive(ctx context.Context, unitID id.ID) (*Unit, error) {
	u, err := s.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if !u.Active || u.DeletionMark {
		return nil, apperror.NewValidation("unit is not active").
			WithDetail("unitId", unitID.String())
	}
	return u, nil
}
