package unit

import (
	"context"

	"stockyard/internal/domain"
)

// Repository defines the interface for Unit persistence.
type Repository interface {
	domain.CatalogRepository[*Unit]

	// ListActive retrieves all active units.
	ListActive(ctx context.Context) ([]*Unit, error)
}
