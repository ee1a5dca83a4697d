package dto

import (
	"time"

	"stockyard/internal/core/types"
	"stockyard/internal/domain/sales"
)

// SaleItemResponse is one line of a sale.
type SaleItemResponse struct {
	LineID    string      `json:"lineId"`
	LineNo    int         `json:"lineNo"`
	ProductID string      `json:"productId"`
	Quantity  int64       `json:"quantity"`
	UnitPrice types.Money `json:"unitPrice"`
	Amount    types.Money `json:"amount"`
}

// SaleResponse is the API shape of a sale.
type SaleResponse struct {
	DocumentResponse
	UnitID        string             `json:"unitId"`
	TotalAmount   types.Money        `json:"totalAmount"`
	PaymentMethod string             `json:"paymentMethod"`
	PaymentStatus string             `json:"paymentStatus"`
	PaymentRef    string             `json:"paymentRef,omitempty"`
	ConfirmedAt   *time.Time         `json:"confirmedAt,omitempty"`
	Items         []SaleItemResponse `json:"items"`
}

// FromSale maps a sale to its API shape.
func FromSale(s *sales.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemResponse{
			LineID:    item.LineID.String(),
			LineNo:    item.LineNo,
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Amount:    item.Amount,
		}
	}
	return SaleResponse{
		DocumentResponse: FromDocument(s.Document),
		UnitID:           s.UnitID.String(),
		TotalAmount:      s.TotalAmount,
		PaymentMethod:    s.PaymentMethod,
		PaymentStatus:    string(s.PaymentStatus),
		PaymentRef:       s.PaymentRef,
		ConfirmedAt:      s.ConfirmedAt,
		Items:            items,
	}
}

// FromSales maps sale headers for listings.
func FromSales(list []*sales.Sale) []SaleResponse {
	out := make([]SaleResponse, len(list))
	for i, s := range list {
		out[i] = FromSale(s)
	}
	return out
}

// CheckoutLineRequest is one requested sale line. UnitPrice overrides
// the catalog selling price when present.
type CheckoutLineRequest struct {
	ProductID string       `json:"productId" binding:"required"`
	Quantity  int64        `json:"quantity" binding:"required,min=1"`
	UnitPrice *types.Money `json:"unitPrice,omitempty"`
}

// CheckoutRequest records a sale at a unit.
type CheckoutRequest struct {
	UnitID        string                `json:"unitId" binding:"required"`
	PaymentMethod string                `json:"paymentMethod" binding:"required"`
	Lines         []CheckoutLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// AppendItemsRequest adds lines to a pending sale.
type AppendItemsRequest struct {
	Lines []CheckoutLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ConfirmPaymentRequest settles a pending sale.
type ConfirmPaymentRequest struct {
	PaymentRef string `json:"paymentRef"`
}
