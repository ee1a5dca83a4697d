package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/inventory"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves stock views and direct ledger operations:
// unit inventories, the central warehouse view, unit-to-unit transfers
// and low-stock thresholds.
type InventoryHandler struct {
	*BaseHandler
	views  *inventory.Service
	ledger *ledger.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, views *inventory.Service, ledgerSvc *ledger.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		views:       views,
		ledger:      ledgerSvc,
	}
}

// UnitInventory handles GET /units/:id/inventory
func (h *InventoryHandler) UnitInventory(c *gin.Context) {
	unitID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rows, err := h.views.UnitInventory(c.Request.Context(), unitID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInventoryRows(rows))
}

// CentralStock handles GET /central/stock
func (h *InventoryHandler) CentralStock(c *gin.Context) {
	rows, err := h.views.CentralStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInventoryRows(rows))
}

// Transfer handles POST /inventory/transfers
func (h *InventoryHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	fromUnit, err := id.Parse(req.FromUnitID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fromUnitId"))
		return
	}
	toUnit, err := id.Parse(req.ToUnitID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid toUnitId"))
		return
	}
	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId"))
		return
	}

	if err := h.ledger.TransferBetweenUnits(c.Request.Context(), fromUnit, toUnit, productID, req.Quantity); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "transfer completed")
}

// SetUnitThreshold handles PUT /units/:id/thresholds
func (h *InventoryHandler) SetUnitThreshold(c *gin.Context) {
	unitID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	h.setThreshold(c, ledger.Inventory(unitID))
}

// SetCentralThreshold handles PUT /central/thresholds
func (h *InventoryHandler) SetCentralThreshold(c *gin.Context) {
	h.setThreshold(c, ledger.Central())
}

func (h *InventoryHandler) setThreshold(c *gin.Context, scope ledger.Scope) {
	var req dto.SetThresholdRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId"))
		return
	}

	if err := h.ledger.SetLowStockThreshold(c.Request.Context(), scope, productID, req.Threshold); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "threshold updated")
}
