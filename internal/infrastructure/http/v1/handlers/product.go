package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/domain/catalog/product"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product catalog. CRUD comes from the
// generic catalog handler, SKU lookup is product-specific.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
}

// NewProductHandler creates a configured product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	config := CatalogHandlerConfig[
		*product.Product,
		dto.CreateProductRequest,
		dto.UpdateProductRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "product",

		MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(p *product.Product) any {
			return dto.FromProduct(p)
		},
	}

	return &ProductHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// FindBySKU handles GET /products/by-sku/:sku
func (h *ProductHandler) FindBySKU(c *gin.Context) {
	p, err := h.service.FindBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}
