// Package stockrequest provides the stock request document: a unit's
// ask for central stock, resolved by approval (which moves the stock)
// or rejection.
package stockrequest

import (
	"context"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
)

// Status represents the request lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// StockRequest represents a unit's request for central stock.
// Quantity is expressed in the product's natural packaging unit (sets
// for set products); QuantityItems is fixed once, at approval.
type StockRequest struct {
	entity.Document

	UnitID    id.ID `db:"unit_id" json:"unitId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// Quantity in the product's natural packaging unit
	Quantity int64 `db:"quantity" json:"quantity"`

	// QuantityItems is the converted item count, set at approval
	QuantityItems int64 `db:"quantity_items" json:"quantityItems"`

	Status Status `db:"status" json:"status"`
	Notes  string `db:"notes" json:"notes,omitempty"`

	ResolvedBy *id.ID     `db:"resolved_by" json:"resolvedBy,omitempty"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// New creates a pending request.
func New(unitID, productID, requesterID id.ID, quantity int64, notes string) *StockRequest {
	return &StockRequest{
		Document:  entity.NewDocument(requesterID),
		UnitID:    unitID,
		ProductID: productID,
		Quantity:  quantity,
		Status:    StatusPending,
		Notes:     notes,
	}
}

// Validate implements entity.Validatable.
func (r *StockRequest) Validate(ctx context.Context) error {
	if id.IsNil(r.UnitID) {
		return apperror.NewValidation("unit is required").WithDetail("field", "unitId")
	}
	if id.IsNil(r.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if r.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", r.Quantity)
	}
	return nil
}

// CanResolve fails unless the request is still pending.
func (r *StockRequest) CanResolve(target Status) error {
	if r.Status != StatusPending {
		return apperror.NewInvalidStateTransition("stock_request", r.ID.String(), string(r.Status), string(target))
	}
	return nil
}

func (r *StockRequest) markResolved(status Status, actorID id.ID) {
	now := time.Now().UTC()
	r.Status = status
	r.ResolvedBy = &actorID
	r.ResolvedAt = &now
	r.Touch()
}
