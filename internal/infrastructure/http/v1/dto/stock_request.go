package dto

import (
	"time"

	"stockyard/internal/domain/stockrequest"
)

// StockRequestResponse is the API shape of a stock request.
type StockRequestResponse struct {
	DocumentResponse
	UnitID        string     `json:"unitId"`
	ProductID     string     `json:"productId"`
	Quantity      int64      `json:"quantity"`
	QuantityItems int64      `json:"quantityItems,omitempty"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes,omitempty"`
	ResolvedBy    *string    `json:"resolvedBy,omitempty"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
}

// FromStockRequest maps a stock request to its API shape.
func FromStockRequest(r *stockrequest.StockRequest) StockRequestResponse {
	resp := StockRequestResponse{
		DocumentResponse: FromDocument(r.Document),
		UnitID:           r.UnitID.String(),
		ProductID:        r.ProductID.String(),
		Quantity:         r.Quantity,
		QuantityItems:    r.QuantityItems,
		Status:           string(r.Status),
		Notes:            r.Notes,
		ResolvedAt:       r.ResolvedAt,
	}
	if r.ResolvedBy != nil {
		s := r.ResolvedBy.String()
		resp.ResolvedBy = &s
	}
	return resp
}

// FromStockRequests maps a slice of requests.
func FromStockRequests(list []*stockrequest.StockRequest) []StockRequestResponse {
	out := make([]StockRequestResponse, len(list))
	for i, r := range list {
		out[i] = FromStockRequest(r)
	}
	return out
}

// CreateStockRequestRequest files a request for central stock.
// Quantity is expressed in the product's natural packaging unit
// (sets for set products, items otherwise).
type CreateStockRequestRequest struct {
	UnitID    string `json:"unitId" binding:"required"`
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	Notes     string `json:"notes"`
}

// RejectStockRequestRequest declines a pending request.
type RejectStockRequestRequest struct {
	Notes string `json:"notes"`
}
