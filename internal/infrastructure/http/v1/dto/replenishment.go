package dto

import (
	"stockyard/internal/domain/replenishment"
)

// BatchResponse is the API shape of a replenishment batch.
type BatchResponse struct {
	DocumentResponse
	ProductID     string `json:"productId"`
	QuantityItems int64  `json:"quantityItems"`
	Notes         string `json:"notes,omitempty"`
}

// FromBatch maps a replenishment batch to its API shape.
func FromBatch(b *replenishment.Batch) BatchResponse {
	return BatchResponse{
		DocumentResponse: FromDocument(b.Document),
		ProductID:        b.ProductID.String(),
		QuantityItems:    b.QuantityItems,
		Notes:            b.Notes,
	}
}

// FromBatches maps a slice of batches.
func FromBatches(list []*replenishment.Batch) []BatchResponse {
	out := make([]BatchResponse, len(list))
	for i, b := range list {
		out[i] = FromBatch(b)
	}
	return out
}
