// Package sales provides the sale document: checkout at an operating
// unit, item appends while payment is pending, and payment
// confirmation.
package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// PaymentStatus represents the payment lifecycle state.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
)

// Sale represents a checkout at an operating unit. Number carries the
// invoice number (INV-YYYY-NNNNN).
type Sale struct {
	entity.Document

	UnitID id.ID `db:"unit_id" json:"unitId"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	PaymentMethod string        `db:"payment_method" json:"paymentMethod"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	// PaymentRef is the external transaction reference, set on confirm
	PaymentRef  string     `db:"payment_ref" json:"paymentRef,omitempty"`
	ConfirmedAt *time.Time `db:"confirmed_at" json:"confirmedAt,omitempty"`

	// Table part: sold items
	Items []SaleItem `db:"-" json:"items"`
}

// SaleItem represents one sold line. Quantity is in retail items.
type SaleItem struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
	Amount    types.Money `db:"amount" json:"amount"`
}

// NewSale creates a sale document for a unit.
func NewSale(unitID, sellerID id.ID, paymentMethod string) *Sale {
	return &Sale{
		Document:      entity.NewDocument(sellerID),
		UnitID:        unitID,
		TotalAmount:   types.ZeroMoney(),
		PaymentMethod: paymentMethod,
		PaymentStatus: PaymentPending,
		Items:         make([]SaleItem, 0),
	}
}

// AddItem appends a line and recalculates the total.
func (s *Sale) AddItem(productID id.ID, quantity int64, unitPrice types.Money) {
	amount := unitPrice.Mul(decimal.NewFromInt(quantity))
	s.Items = append(s.Items, SaleItem{
		LineID:    id.New(),
		LineNo:    len(s.Items) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Amount:    amount,
	})
	s.TotalAmount = s.TotalAmount.Add(amount)
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if id.IsNil(s.UnitID) {
		return apperror.NewValidation("unit is required").WithDetail("field", "unitId")
	}
	if s.PaymentMethod == "" {
		return apperror.NewValidation("payment method is required").
			WithDetail("field", "paymentMethod")
	}
	if len(s.Items) == 0 {
		return apperror.NewValidation("sale requires at least one item")
	}
	for i, item := range s.Items {
		if item.Quantity <= 0 {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("line", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("item price cannot be negative").
				WithDetail("line", i+1)
		}
	}
	return nil
}

// CanModify fails unless payment is still pending: paid sales are frozen.
func (s *Sale) CanModify() error {
	if s.PaymentStatus != PaymentPending {
		return apperror.NewInvalidStateTransition("sale", s.ID.String(), string(s.PaymentStatus), string(PaymentPending))
	}
	return nil
}
