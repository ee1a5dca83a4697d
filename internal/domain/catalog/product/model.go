// Package product provides the product catalog. Products carry the
// packaging data (items per set, unit labels) the converter and the
// documents rely on.
package product

import (
	"context"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/unitconv"
)

// Type defines how a product is packaged.
type Type string

const (
	// TypeIndividual products are counted in single retail items.
	TypeIndividual Type = "individual"

	// TypeSet products are requested in sets that unpack into items.
	TypeSet Type = "set"
)

// SourceType defines where a product's stock comes from.
type SourceType string

const (
	// SourceCentralStock products flow from the central warehouse.
	SourceCentralStock SourceType = "central_stock"

	// SourceUnitProduced products are made on-site and never hit the
	// ledger (virtual unlimited stock).
	SourceUnitProduced SourceType = "unit_produced"
)

// Product represents a sellable item.
type Product struct {
	entity.Catalog

	// SKU is the stock keeping unit (unique)
	SKU string `db:"sku" json:"sku"`

	Type       Type       `db:"product_type" json:"productType"`
	SourceType SourceType `db:"source_type" json:"sourceType"`

	// ItemsPerSet applies to set products; 1 for individual products
	ItemsPerSet int64 `db:"items_per_set" json:"itemsPerSet"`

	// Uom labels for retail items (e.g. bottle/bottles)
	Uom       string `db:"uom" json:"uom"`
	UomPlural string `db:"uom_plural" json:"uomPlural"`

	// SetUom labels for the packaging unit (e.g. set/sets)
	SetUom       string `db:"set_uom" json:"setUom,omitempty"`
	SetUomPlural string `db:"set_uom_plural" json:"setUomPlural,omitempty"`

	CostPrice    types.Money `db:"cost_price" json:"costPrice"`
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	// Trackable products participate in stock control
	Trackable bool `db:"trackable" json:"trackable"`
}

// New creates a product with required fields.
func New(name, sku string, productType Type, sourceType SourceType) *Product {
	p := &Product{
		Catalog:     entity.NewCatalog("", name),
		SKU:         sku,
		Type:        productType,
		SourceType:  sourceType,
		ItemsPerSet: 1,
		Trackable:   true,
	}
	return p
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch p.Type {
	case TypeIndividual:
		if p.ItemsPerSet != 1 {
			return apperror.NewValidation("individual products must have items_per_set = 1").
				WithDetail("itemsPerSet", p.ItemsPerSet)
		}
	case TypeSet:
		if p.ItemsPerSet < 2 {
			return apperror.NewValidation("set products must have items_per_set >= 2").
				WithDetail("itemsPerSet", p.ItemsPerSet)
		}
		if p.SetUom == "" {
			return apperror.NewValidation("set products require a set unit label").
				WithDetail("field", "setUom")
		}
	default:
		return apperror.NewValidation("invalid product type").
			WithDetail("value", string(p.Type))
	}

	switch p.SourceType {
	case SourceCentralStock, SourceUnitProduced:
	default:
		return apperror.NewValidation("invalid source type").
			WithDetail("value", string(p.SourceType))
	}

	if p.Uom == "" {
		return apperror.NewValidation("unit of measurement is required").
			WithDetail("field", "uom")
	}

	if p.SellingPrice.IsNegative() || p.CostPrice.IsNegative() {
		return apperror.NewValidation("prices cannot be negative")
	}

	return nil
}

// IsSet reports whether the product is requested in sets.
func (p *Product) IsSet() bool {
	return p.Type == TypeSet
}

// IsUnitProduced reports whether the product bypasses the ledger.
func (p *Product) IsUnitProduced() bool {
	return p.SourceType == SourceUnitProduced
}

// Packaging returns the conversion descriptor for this product.
func (p *Product) Packaging() unitconv.Packaging {
	itemPlural := p.UomPlural
	if itemPlural == "" {
		itemPlural = p.Uom + "s"
	}
	setPlural := p.SetUomPlural
	if setPlural == "" && p.SetUom != "" {
		setPlural = p.SetUom + "s"
	}
	return unitconv.Packaging{
		ItemsPerSet: p.ItemsPerSet,
		SetUnit:     unitconv.Labels{Singular: p.SetUom, Plural: setPlural},
		ItemUnit:    unitconv.Labels{Singular: p.Uom, Plural: itemPlural},
	}
}

// ToItems converts a quantity in the product's natural packaging unit
// (sets for set products, items otherwise) into items.
func (p *Product) ToItems(qty int64) (int64, error) {
	if qty < 0 {
		return 0, apperror.NewValidation("quantity cannot be negative").
			WithDetail("quantity", qty)
	}
	if p.IsSet() {
		return p.Packaging().ToItems(qty, 0)
	}
	return qty, nil
}

// FormatQuantity renders an item count using the product's unit labels.
func (p *Product) FormatQuantity(totalItems int64) string {
	return p.Packaging().Format(totalItems)
}
