package stockrequest

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

// StockMover moves stock between ledger scopes within the caller's
// transaction.
type StockMover interface {
	Transfer(ctx context.Context, p ledger.TransferParams) error
}

// ProductLookup reads the product catalog.
type ProductLookup interface {
	GetByID(ctx context.Context, id id.ID) (*product.Product, error)
}

// Service drives the request workflow: pending, then approved or
// rejected, both terminal.
type Service struct {
	repo      Repository
	mover     StockMover
	products  ProductLookup
	audit     audit.Sink
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new stock request service.
func NewService(
	repo Repository,
	mover StockMover,
	products ProductLookup,
	sink audit.Sink,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		mover:     mover,
		products:  products,
		audit:     sink,
		numerator: num,
		txManager: txManager,
	}
}

// Create records a pending request.
func (s *Service) Create(ctx context.Context, unitID, productID, requesterID id.ID, quantity int64, notes string) (*StockRequest, error) {
	req := New(unitID, productID, requesterID, quantity, notes)
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.IsUnitProduced() {
		return nil, apperror.NewValidation("unit-produced products cannot be requested from central stock").
			WithDetail("productId", productID.String())
	}

	if req.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SR"),
			&numerator.Options{Strategy: numerator.StrategyCached}, time.Now())
		if err != nil {
			return nil, fmt.Errorf("generate number: %w", err)
		}
		req.Number = number
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock request created",
		"id", req.ID, "number", req.Number, "unit_id", unitID, "product_id", productID)
	return req, nil
}

// Approve converts the requested quantity to items, moves central
// stock into the unit's inventory and marks the request approved, all
// in one transaction. Insufficient central stock aborts everything and
// leaves the request pending.
func (s *Service) Approve(ctx context.Context, requestID, approverID id.ID) (*StockRequest, error) {
	var approved *StockRequest

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.CanResolve(StatusApproved); err != nil {
			return err
		}

		p, err := s.products.GetByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		items, err := p.ToItems(req.Quantity)
		if err != nil {
			return err
		}

		err = s.mover.Transfer(ctx, ledger.TransferParams{
			From:        ledger.Central(),
			To:          ledger.Inventory(req.UnitID),
			ProductID:   req.ProductID,
			Quantity:    items,
			SubjectType: "stock_request",
			SubjectID:   req.ID,
			Description: fmt.Sprintf("request %s approved: %s", req.Number, p.FormatQuantity(items)),
		})
		if err != nil {
			return err
		}

		req.QuantityItems = items
		req.markResolved(StatusApproved, approverID)

		ok, err := s.repo.Resolve(ctx, req)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewInvalidStateTransition("stock_request", req.ID.String(), "resolved", string(StatusApproved))
		}

		if err := s.audit.Record(ctx, audit.Entry{
			Action:      audit.ActionApproval,
			SubjectType: "stock_request",
			SubjectID:   req.ID,
			ActorID:     approverID,
			NewValues:   map[string]any{"status": string(StatusApproved), "quantity_items": items},
			Description: fmt.Sprintf("stock request %s approved", req.Number),
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		approved = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock request approved",
		"id", approved.ID, "number", approved.Number, "quantity_items", approved.QuantityItems)
	return approved, nil
}

// Reject marks a pending request rejected. No stock moves.
func (s *Service) Reject(ctx context.Context, requestID, actorID id.ID, notes string) (*StockRequest, error) {
	var rejected *StockRequest

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.CanResolve(StatusRejected); err != nil {
			return err
		}

		if notes != "" {
			req.Notes = notes
		}
		req.markResolved(StatusRejected, actorID)

		ok, err := s.repo.Resolve(ctx, req)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewInvalidStateTransition("stock_request", req.ID.String(), "resolved", string(StatusRejected))
		}

		if err := s.audit.Record(ctx, audit.Entry{
			Action:      audit.ActionRejection,
			SubjectType: "stock_request",
			SubjectID:   req.ID,
			ActorID:     actorID,
			NewValues:   map[string]any{"status": string(StatusRejected), "notes": req.Notes},
			Description: fmt.Sprintf("stock request %s rejected", req.Number),
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		rejected = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock request rejected", "id", rejected.ID, "number", rejected.Number)
	return rejected, nil
}

// GetByID retrieves a request.
func (s *Service) GetByID(ctx context.Context, requestID id.ID) (*StockRequest, error) {
	return s.repo.GetByID(ctx, requestID)
}

// List retrieves requests with filtering.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*StockRequest, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	return s.repo.List(ctx, f)
}
