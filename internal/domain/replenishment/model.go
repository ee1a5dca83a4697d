// Package replenishment provides the replenishment batch document:
// stock arriving at the central warehouse.
package replenishment

import (
	"context"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
)

// Batch represents one receipt of central stock. Number carries the
// batch number (BATCH-YYYYMMDD-NNNN).
type Batch struct {
	entity.Document

	ProductID id.ID `db:"product_id" json:"productId"`

	// QuantityItems is the received quantity in items
	QuantityItems int64 `db:"quantity_items" json:"quantityItems"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewBatch creates a batch document.
func NewBatch(productID, actorID id.ID, qtyItems int64) *Batch {
	return &Batch{
		Document:      entity.NewDocument(actorID),
		ProductID:     productID,
		QuantityItems: qtyItems,
	}
}

// Validate implements entity.Validatable.
func (b *Batch) Validate(ctx context.Context) error {
	if id.IsNil(b.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if b.QuantityItems <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("quantityItems", b.QuantityItems)
	}
	return nil
}
