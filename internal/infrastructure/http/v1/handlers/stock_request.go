package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/stockrequest"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// StockRequestHandler serves the stock request workflow: units file
// requests for central stock, managers approve or reject them.
type StockRequestHandler struct {
	*BaseHandler
	service *stockrequest.Service
}

// NewStockRequestHandler creates a new stock request handler.
func NewStockRequestHandler(base *BaseHandler, service *stockrequest.Service) *StockRequestHandler {
	return &StockRequestHandler{BaseHandler: base, service: service}
}

// Create handles POST /stock-requests
func (h *StockRequestHandler) Create(c *gin.Context) {
	var req dto.CreateStockRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}

	unitID, err := id.Parse(req.UnitID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid unitId"))
		return
	}
	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId"))
		return
	}

	request, err := h.service.Create(c.Request.Context(), unitID, productID, h.GetActorID(c), req.Quantity, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromStockRequest(request)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Approve handles POST /stock-requests/:id/approve
func (h *StockRequestHandler) Approve(c *gin.Context) {
	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	request, err := h.service.Approve(c.Request.Context(), requestID, h.GetActorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockRequest(request))
}

// Reject handles POST /stock-requests/:id/reject
func (h *StockRequestHandler) Reject(c *gin.Context) {
	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RejectStockRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}

	request, err := h.service.Reject(c.Request.Context(), requestID, h.GetActorID(c), req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockRequest(request))
}

// Get handles GET /stock-requests/:id
func (h *StockRequestHandler) Get(c *gin.Context) {
	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	request, err := h.service.GetByID(c.Request.Context(), requestID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockRequest(request))
}

// List handles GET /stock-requests
func (h *StockRequestHandler) List(c *gin.Context) {
	f := stockrequest.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if unitStr := c.Query("unitId"); unitStr != "" {
		unitID, err := id.Parse(unitStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid unitId"))
			return
		}
		f.UnitID = &unitID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := stockrequest.Status(statusStr)
		f.Status = &status
	}

	list, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockRequests(list))
}
