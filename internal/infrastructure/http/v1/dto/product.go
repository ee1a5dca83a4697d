package dto

import (
	"stockyard/internal/core/types"
	"stockyard/internal/domain/catalog/product"
)

// ProductResponse is the API shape of a product.
type ProductResponse struct {
	CatalogResponse
	SKU          string      `json:"sku"`
	ProductType  string      `json:"productType"`
	SourceType   string      `json:"sourceType"`
	ItemsPerSet  int64       `json:"itemsPerSet"`
	Uom          string      `json:"uom"`
	UomPlural    string      `json:"uomPlural,omitempty"`
	SetUom       string      `json:"setUom,omitempty"`
	SetUomPlural string      `json:"setUomPlural,omitempty"`
	CostPrice    types.Money `json:"costPrice"`
	SellingPrice types.Money `json:"sellingPrice"`
	Trackable    bool        `json:"trackable"`
}

// FromProduct maps a product to its API shape.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		CatalogResponse: FromCatalog(p.Catalog),
		SKU:             p.SKU,
		ProductType:     string(p.Type),
		SourceType:      string(p.SourceType),
		ItemsPerSet:     p.ItemsPerSet,
		Uom:             p.Uom,
		UomPlural:       p.UomPlural,
		SetUom:          p.SetUom,
		SetUomPlural:    p.SetUomPlural,
		CostPrice:       p.CostPrice,
		SellingPrice:    p.SellingPrice,
		Trackable:       p.Trackable,
	}
}

// CreateProductRequest creates a product.
type CreateProductRequest struct {
	Name         string      `json:"name" binding:"required"`
	SKU          string      `json:"sku" binding:"required"`
	ProductType  string      `json:"productType" binding:"required,oneof=individual set"`
	SourceType   string      `json:"sourceType" binding:"required,oneof=central_stock unit_produced"`
	ItemsPerSet  int64       `json:"itemsPerSet"`
	Uom          string      `json:"uom" binding:"required"`
	UomPlural    string      `json:"uomPlural"`
	SetUom       string      `json:"setUom"`
	SetUomPlural string      `json:"setUomPlural"`
	CostPrice    types.Money `json:"costPrice"`
	SellingPrice types.Money `json:"sellingPrice"`
}

// ToEntity maps the request to a new product.
func (r CreateProductRequest) ToEntity() *product.Product {
	p := product.New(r.Name, r.SKU, product.Type(r.ProductType), product.SourceType(r.SourceType))
	if r.ItemsPerSet > 0 {
		p.ItemsPerSet = r.ItemsPerSet
	}
	p.Uom = r.Uom
	p.UomPlural = r.UomPlural
	p.SetUom = r.SetUom
	p.SetUomPlural = r.SetUomPlural
	p.CostPrice = r.CostPrice
	p.SellingPrice = r.SellingPrice
	return p
}

// UpdateProductRequest updates mutable product fields.
type UpdateProductRequest struct {
	Name         *string      `json:"name"`
	Uom          *string      `json:"uom"`
	UomPlural    *string      `json:"uomPlural"`
	SetUom       *string      `json:"setUom"`
	SetUomPlural *string      `json:"setUomPlural"`
	CostPrice    *types.Money `json:"costPrice"`
	SellingPrice *types.Money `json:"sellingPrice"`
	Trackable    *bool        `json:"trackable"`
	Version      int          `json:"version" binding:"required,min=1"`
}

// ApplyTo copies the set fields onto an existing product.
func (r UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Uom != nil {
		p.Uom = *r.Uom
	}
	if r.UomPlural != nil {
		p.UomPlural = *r.UomPlural
	}
	if r.SetUom != nil {
		p.SetUom = *r.SetUom
	}
	if r.SetUomPlural != nil {
		p.SetUomPlural = *r.SetUomPlural
	}
	if r.CostPrice != nil {
		p.CostPrice = *r.CostPrice
	}
	if r.SellingPrice != nil {
		p.SellingPrice = *r.SellingPrice
	}
	if r.Trackable != nil {
		p.Trackable = *r.Trackable
	}
	p.SetVersion(r.Version)
}
