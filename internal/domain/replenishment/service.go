package replenishment

import (
	"context"
	"fmt"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/tx"
	"stockyard/internal/domain/audit"
	"stockyard/internal/domain/catalog/product"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/logger"
	"stockyard/pkg/numerator"
)

// Repository defines persistence for replenishment batches.
type Repository interface {
	Create(ctx context.Context, batch *Batch) error
	GetByID(ctx context.Context, id id.ID) (*Batch, error)
	ListByProduct(ctx context.Context, productID id.ID, limit, offset int) ([]*Batch, error)
}

// StockAdjuster mutates one ledger balance within the caller's
// transaction.
type StockAdjuster interface {
	Adjust(ctx context.Context, m ledger.Movement) (ledger.Adjustment, error)
}

// ProductLookup reads the product catalog.
type ProductLookup interface {
	GetByID(ctx context.Context, id id.ID) (*product.Product, error)
}

// Service receives stock into the central warehouse.
type Service struct {
	repo      Repository
	stock     StockAdjuster
	products  ProductLookup
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new replenishment service.
func NewService(
	repo Repository,
	stock StockAdjuster,
	products ProductLookup,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		stock:     stock,
		products:  products,
		numerator: num,
		txManager: txManager,
	}
}

// Replenish records a batch and increments central stock atomically.
// The batch number is generated per day when not supplied.
func (s *Service) Replenish(ctx context.Context, productID, actorID id.ID, qtyItems int64, batchNumber, notes string) (*Batch, error) {
	prod, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if prod.IsUnitProduced() {
		return nil, apperror.NewValidation("unit-produced products carry no central stock").
			WithDetail("productId", productID.String())
	}

	batch := NewBatch(productID, actorID, qtyItems)
	batch.Notes = notes
	if err := batch.Validate(ctx); err != nil {
		return nil, err
	}

	if batchNumber != "" {
		batch.Number = batchNumber
	} else {
		number, err := s.numerator.GetNextNumber(ctx, numerator.BatchConfig(), nil, time.Now())
		if err != nil {
			return nil, fmt.Errorf("generate batch number: %w", err)
		}
		batch.Number = number
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, batch); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		_, err := s.stock.Adjust(ctx, ledger.Movement{
			Scope:       ledger.Central(),
			ProductID:   productID,
			Delta:       qtyItems,
			Action:      audit.ActionReplenish,
			SubjectType: "replenishment_batch",
			SubjectID:   batch.ID,
			Description: fmt.Sprintf("batch %s received: %s", batch.Number, prod.FormatQuantity(qtyItems)),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "central stock replenished",
		"batch", batch.Number, "product_id", productID, "quantity_items", qtyItems)
	return batch, nil
}

// GetByID retrieves a batch.
func (s *Service) GetByID(ctx context.Context, batchID id.ID) (*Batch, error) {
	return s.repo.GetByID(ctx, batchID)
}

// ListByProduct retrieves a product's receipt history.
func (s *Service) ListByProduct(ctx context.Context, productID id.ID, limit, offset int) ([]*Batch, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByProduct(ctx, productID, limit, offset)
}
