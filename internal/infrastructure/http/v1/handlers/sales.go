package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/sales"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// SalesHandler serves the sales checkout flow.
type SalesHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(base *BaseHandler, service *sales.Service) *SalesHandler {
	return &SalesHandler{BaseHandler: base, service: service}
}

// Checkout handles POST /sales
func (h *SalesHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	unitID, err := id.Parse(req.UnitID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid unitId"))
		return
	}

	lines, ok := h.parseLines(c, req.Lines)
	if !ok {
		return
	}

	sale, err := h.service.Checkout(c.Request.Context(), sales.CheckoutParams{
		UnitID:        unitID,
		SellerID:      h.GetActorID(c),
		PaymentMethod: req.PaymentMethod,
		Lines:         lines,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromSale(sale)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// AppendItems handles POST /sales/:id/items
func (h *SalesHandler) AppendItems(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AppendItemsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, ok := h.parseLines(c, req.Lines)
	if !ok {
		return
	}

	sale, err := h.service.AppendItems(c.Request.Context(), saleID, lines)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(sale))
}

// ConfirmPayment handles POST /sales/:id/confirm
func (h *SalesHandler) ConfirmPayment(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ConfirmPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.ConfirmPayment(c.Request.Context(), saleID, h.GetActorID(c), req.PaymentRef)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(sale))
}

// Get handles GET /sales/:id
func (h *SalesHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	sale, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(sale))
}

// List handles GET /sales
func (h *SalesHandler) List(c *gin.Context) {
	f := sales.ListFilter{
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
		status := sales.PaymentStatus(statusStr)
		f.Status = &status
	}
	if fromStr := c.Query("dateFrom"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateFrom, RFC3339 expected"))
			return
		}
		f.DateFrom = &from
	}
	if toStr := c.Query("dateTo"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateTo, RFC3339 expected"))
			return
		}
		f.DateTo = &to
	}

	list, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSales(list))
}

func (h *SalesHandler) parseLines(c *gin.Context, reqLines []dto.CheckoutLineRequest) ([]sales.CheckoutLine, bool) {
	lines := make([]sales.CheckoutLine, len(reqLines))
	for i, l := range reqLines {
		productID, err := id.Parse(l.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId").WithDetail("line", i))
			return nil, false
		}
		lines[i] = sales.CheckoutLine{ProductID: productID, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	return lines, true
}
