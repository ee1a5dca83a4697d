package stockrequest

import (
	"context"

	"stockyard/internal/core/id"
)

// ListFilter narrows request listings.
type ListFilter struct {
	UnitID *id.ID
	Status *Status
	Limit  int
	Offset int
}

// Repository defines persistence for stock requests.
type Repository interface {
	Create(ctx context.Context, req *StockRequest) error

	GetByID(ctx context.Context, id id.ID) (*StockRequest, error)

	// GetForUpdate loads the request with a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*StockRequest, error)

	// Resolve persists a terminal state with a conditional
	// UPDATE ... WHERE status = 'pending'. Returns false when the row
	// was no longer pending (lost race).
	Resolve(ctx context.Context, req *StockRequest) (bool, error)

	List(ctx context.Context, f ListFilter) ([]*StockRequest, error)
}
