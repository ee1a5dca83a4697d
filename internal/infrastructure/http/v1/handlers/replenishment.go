package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/replenishment"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// ReplenishmentHandler serves central warehouse receipts.
type ReplenishmentHandler struct {
	*BaseHandler
	service *replenishment.Service
}

// NewReplenishmentHandler creates a new replenishment handler.
func NewReplenishmentHandler(base *BaseHandler, service *replenishment.Service) *ReplenishmentHandler {
	return &ReplenishmentHandler{BaseHandler: base, service: service}
}

// Replenish handles POST /central/replenishments
func (h *ReplenishmentHandler) Replenish(c *gin.Context) {
	var req dto.ReplenishRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId"))
		return
	}

	batch, err := h.service.Replenish(c.Request.Context(), productID, h.GetActorID(c), req.Quantity, req.BatchNumber, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromBatch(batch)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Get handles GET /central/replenishments/:id
func (h *ReplenishmentHandler) Get(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	batch, err := h.service.GetByID(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(batch))
}

// ListByProduct handles GET /central/replenishments?productId=...
func (h *ReplenishmentHandler) ListByProduct(c *gin.Context) {
	productID, err := id.Parse(c.Query("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("productId query parameter is required"))
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	offset := h.ParseIntQuery(c, "offset", 0)

	list, err := h.service.ListByProduct(c.Request.Context(), productID, limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatches(list))
}
