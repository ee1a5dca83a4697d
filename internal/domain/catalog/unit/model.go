// Package unit provides the operating-unit catalog. Operating units
// are the retail locations that hold local inventory and sell stock.
package unit

import (
	"context"

	"stockyard/internal/core/entity"
)

// Unit represents an operating unit (retail location).
type Unit struct {
	entity.Catalog

	// Location is a free-form address or site description
	Location string `db:"location" json:"location"`

	// Active units can request stock and record sales
	Active bool `db:"active" json:"active"`
}

// New creates an active unit with required fields.
func New(name, location string) *Unit {
	return &Unit{
		Catalog:  entity.NewCatalog("", name),
		Location: location,
		Active:   true,
	}
}

// Validate implements entity.Validatable.
func (u *Unit) Validate(ctx context.Context) error {
	return u.Catalog.Validate(ctx)
}
