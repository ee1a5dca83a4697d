package entity

import (
	"context"

	"stockyard/internal/core/apperror"
)

// Catalog is the base type for reference data (products, units, operating units).
type Catalog struct {
	Base

	// Code is a human-readable identifier (unique)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// DeletionMark indicates soft-deleted entity
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		Base: NewBase(),
		Code: code,
		Name: name,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	// Code can be auto-generated, so it's optional at creation
	// but required at save time

	return nil
}

// MarkDeleted sets the deletion mark.
func (c *Catalog) MarkDeleted() {
	c.DeletionMark = true
}

// Undelete clears the deletion mark.
func (c *Catalog) Undelete() {
	c.DeletionMark = false
}
