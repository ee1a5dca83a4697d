package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/domain/catalog/unit"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// UnitHandler serves the operating unit catalog.
type UnitHandler struct {
	*CatalogHandler[*unit.Unit, dto.CreateUnitRequest, dto.UpdateUnitRequest]
	service *unit.Service
}

// NewUnitHandler creates a configured unit handler.
func NewUnitHandler(base *BaseHandler, service *unit.Service) *UnitHandler {
	config := CatalogHandlerConfig[
		*unit.Unit,
		dto.CreateUnitRequest,
		dto.UpdateUnitRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "unit",

		MapCreateDTO: func(req dto.CreateUnitRequest) *unit.Unit {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateUnitRequest, existing *unit.Unit) *unit.Unit {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(u *unit.Unit) any {
			return dto.FromUnit(u)
		},
	}

	return &UnitHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// ListActive handles GET /units/active
func (h *UnitHandler) ListActive(c *gin.Context) {
	units, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUnits(units))
}
