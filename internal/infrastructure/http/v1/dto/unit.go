package dto

import (
	"stockyard/internal/domain/catalog/unit"
)

// UnitResponse is the API shape of an operating unit.
type UnitResponse struct {
	CatalogResponse
	Location string `json:"location"`
	Active   bool   `json:"active"`
}

// FromUnit maps a unit to its API shape.
func FromUnit(u *unit.Unit) UnitResponse {
	return UnitResponse{
		CatalogResponse: FromCatalog(u.Catalog),
		Location:        u.Location,
		Active:          u.Active,
	}
}

// FromUnits maps a slice of units.
func FromUnits(list []*unit.Unit) []UnitResponse {
	out := make([]UnitResponse, len(list))
	for i, u := range list {
		out[i] = FromUnit(u)
	}
	return out
}

// CreateUnitRequest creates an operating unit.
type CreateUnitRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
}

// ToEntity maps the request to a new unit.
func (r CreateUnitRequest) ToEntity() *unit.Unit {
	return unit.New(r.Name, r.Location)
}

// UpdateUnitRequest updates mutable unit fields.
type UpdateUnitRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Active   *bool   `json:"active"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// ApplyTo copies the set fields onto an existing unit.
func (r UpdateUnitRequest) ApplyTo(u *unit.Unit) {
	if r.Name != nil {
		u.Name = *r.Name
	}
	if r.Location != nil {
		u.Location = *r.Location
	}
	if r.Active != nil {
		u.Active = *r.Active
	}
	u.SetVersion(r.Version)
}
