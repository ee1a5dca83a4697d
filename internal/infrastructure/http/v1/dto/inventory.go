package dto

import (
	"stockyard/internal/domain/inventory"
)

// InventoryRowResponse is one product line of an inventory view.
type InventoryRowResponse struct {
	Product           ProductResponse `json:"product"`
	Quantity          int64           `json:"quantity"`
	Formatted         string          `json:"formatted"`
	LowStockThreshold int64           `json:"lowStockThreshold"`
	Low               bool            `json:"low"`
	Virtual           bool            `json:"virtual"`
}

// FromInventoryRow maps an inventory row to its API shape.
func FromInventoryRow(row inventory.Row) InventoryRowResponse {
	return InventoryRowResponse{
		Product:           FromProduct(row.Product),
		Quantity:          row.Quantity,
		Formatted:         row.Formatted,
		LowStockThreshold: row.LowStockThreshold,
		Low:               row.Low,
		Virtual:           row.Virtual,
	}
}

// FromInventoryRows maps a slice of rows.
func FromInventoryRows(rows []inventory.Row) []InventoryRowResponse {
	out := make([]InventoryRowResponse, len(rows))
	for i, row := range rows {
		out[i] = FromInventoryRow(row)
	}
	return out
}

// ReplenishRequest receives stock into the central warehouse.
type ReplenishRequest struct {
	ProductID   string `json:"productId" binding:"required"`
	Quantity    int64  `json:"quantity" binding:"required,min=1"`
	BatchNumber string `json:"batchNumber"`
	Notes       string `json:"notes"`
}

// TransferRequest moves stock between two unit inventories.
type TransferRequest struct {
	FromUnitID string `json:"fromUnitId" binding:"required"`
	ToUnitID   string `json:"toUnitId" binding:"required"`
	ProductID  string `json:"productId" binding:"required"`
	Quantity   int64  `json:"quantity" binding:"required,min=1"`
}

// SetThresholdRequest configures the low-stock alert level.
type SetThresholdRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Threshold int64  `json:"threshold" binding:"min=0"`
}

// AdjustmentResponse reports the quantity before and after a movement.
type AdjustmentResponse struct {
	ProductID   string `json:"productId"`
	OldQuantity int64  `json:"oldQuantity"`
	NewQuantity int64  `json:"newQuantity"`
}
