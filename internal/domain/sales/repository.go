package sales

import (
	"context"
	"time"

	"stockyard/internal/core/id"
)

// ListFilter narrows sale listings.
type ListFilter struct {
	UnitID   *id.ID
	DateFrom *time.Time
	DateTo   *time.Time
	Status   *PaymentStatus
	Limit    int
	Offset   int
}

// Repository defines persistence for sales.
type Repository interface {
	// Create inserts the sale header.
	Create(ctx context.Context, sale *Sale) error

	// SaveItems batch inserts sale lines.
	SaveItems(ctx context.Context, saleID id.ID, items []SaleItem) error

	// GetByID retrieves a sale with its items.
	GetByID(ctx context.Context, id id.ID) (*Sale, error)

	// GetForUpdate loads the sale header with a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Sale, error)

	// UpdateTotals persists the recalculated header totals.
	UpdateTotals(ctx context.Context, sale *Sale) error

	// ConfirmPayment persists confirmation with a conditional
	// UPDATE ... WHERE payment_status = 'pending'. Returns false when
	// the sale was not pending.
	ConfirmPayment(ctx context.Context, sale *Sale) (bool, error)

	// List retrieves sales with filtering.
	List(ctx context.Context, f ListFilter) ([]*Sale, error)
}
