package sales

import (
	"context"
	"fmt"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/tx"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/audit"
	"stockyard/internal/domain/catalog/product"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/logger"
	"stockyard/pkg/numerator"
)

// StockAdjuster mutates one ledger balance within the caller's
// transaction.
type StockAdjuster interface {
	Adjust(ctx context.Context, m ledger.Movement) (ledger.Adjustment, error)
}

// ProductLookup reads the product catalog.
type ProductLookup interface {
	GetByID(ctx context.Context, id id.ID) (*product.Product, error)
}

// CheckoutLine is one requested sale line. UnitPrice overrides the
// catalog selling price when set.
type CheckoutLine struct {
	ProductID id.ID        `json:"productId"`
	Quantity  int64        `json:"quantity"`
	UnitPrice *types.Money `json:"unitPrice,omitempty"`
}

// price resolves the effective unit price for a line.
func (l CheckoutLine) price(p *product.Product) types.Money {
	if l.UnitPrice != nil {
		return *l.UnitPrice
	}
	return p.SellingPrice
}

// CheckoutParams describes a checkout request.
type CheckoutParams struct {
	UnitID        id.ID
	SellerID      id.ID
	PaymentMethod string
	Lines         []CheckoutLine
}

// Service coordinates sales: each checkout decrements unit inventory
// and persists the sale atomically.
type Service struct {
	repo      Repository
	stock     StockAdjuster
	products  ProductLookup
	policy    *PaymentPolicy
	audit     audit.Sink
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new sales service.
func NewService(
	repo Repository,
	stock StockAdjuster,
	products ProductLookup,
	policy *PaymentPolicy,
	sink audit.Sink,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		stock:     stock,
		products:  products,
		policy:    policy,
		audit:     sink,
		numerator: num,
		txManager: txManager,
	}
}

// Checkout records a sale. Every trackable line decrements the unit's
// inventory; unit-produced products sell from unlimited virtual stock
// and skip the ledger. Any insufficient stock aborts the entire sale.
func (s *Service) Checkout(ctx context.Context, p CheckoutParams) (*Sale, error) {
	if len(p.Lines) == 0 {
		return nil, apperror.NewValidation("sale requires at least one item")
	}

	sale := NewSale(p.UnitID, p.SellerID, p.PaymentMethod)
	sale.PaymentStatus = s.policy.StatusFor(p.PaymentMethod)
	if sale.PaymentStatus == PaymentConfirmed {
		now := time.Now().UTC()
		sale.ConfirmedAt = &now
	}

	// Invoice numbers are strictly sequential. Allocation happens
	// outside the sale transaction, so an aborted checkout leaves a
	// gap rather than a reused number.
	number, err := s.numerator.GetNextNumber(ctx, numerator.InvoiceConfig(), nil, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate invoice number: %w", err)
	}
	sale.Number = number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, line := range p.Lines {
			prod, err := s.products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if line.Quantity <= 0 {
				return apperror.NewValidation("item quantity must be positive").
					WithDetail("productId", line.ProductID.String())
			}

			if err := s.decrementStock(ctx, sale, prod, line.Quantity); err != nil {
				return err
			}
			sale.AddItem(prod.ID, line.Quantity, line.price(prod))
		}

		if err := sale.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		if err := s.repo.SaveItems(ctx, sale.ID, sale.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale recorded",
		"id", sale.ID,
		"invoice", sale.Number,
		"unit_id", p.UnitID,
		"total", sale.TotalAmount,
		"payment_status", sale.PaymentStatus,
	)
	return sale, nil
}

// AppendItems adds lines to a pending sale, decrementing stock for
// each. Paid sales are frozen.
func (s *Service) AppendItems(ctx context.Context, saleID id.ID, lines []CheckoutLine) (*Sale, error) {
	if len(lines) == 0 {
		return nil, apperror.NewValidation("no items to append")
	}

	var updated *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := sale.CanModify(); err != nil {
			return err
		}

		for _, line := range lines {
			prod, err := s.products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if line.Quantity <= 0 {
				return apperror.NewValidation("item quantity must be positive").
					WithDetail("productId", line.ProductID.String())
			}
			if err := s.decrementStock(ctx, sale, prod, line.Quantity); err != nil {
				return err
			}
			sale.AddItem(prod.ID, line.Quantity, line.price(prod))
		}

		added := sale.Items[len(sale.Items)-len(lines):]
		if err := s.repo.SaveItems(ctx, sale.ID, added); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		if err := s.repo.UpdateTotals(ctx, sale); err != nil {
			return fmt.Errorf("update totals: %w", err)
		}

		updated = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale items appended", "id", saleID, "added", len(lines))
	return updated, nil
}

// ConfirmPayment moves a pending sale to confirmed with an external
// transaction reference.
func (s *Service) ConfirmPayment(ctx context.Context, saleID id.ID, actorID id.ID, paymentRef string) (*Sale, error) {
	var confirmed *Sale

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.PaymentStatus != PaymentPending {
			return apperror.NewInvalidStateTransition("sale", sale.ID.String(), string(sale.PaymentStatus), string(PaymentConfirmed))
		}

		now := time.Now().UTC()
		sale.PaymentStatus = PaymentConfirmed
		sale.PaymentRef = paymentRef
		sale.ConfirmedAt = &now
		sale.Touch()

		ok, err := s.repo.ConfirmPayment(ctx, sale)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewInvalidStateTransition("sale", sale.ID.String(), "resolved", string(PaymentConfirmed))
		}

		if err := s.audit.Record(ctx, audit.Entry{
			Action:      audit.ActionUpdate,
			SubjectType: "sale",
			SubjectID:   sale.ID,
			ActorID:     actorID,
			OldValues:   map[string]any{"payment_status": string(PaymentPending)},
			NewValues:   map[string]any{"payment_status": string(PaymentConfirmed), "payment_ref": paymentRef},
			Description: fmt.Sprintf("payment confirmed for invoice %s", sale.Number),
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		confirmed = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment confirmed", "id", saleID, "invoice", confirmed.Number)
	return confirmed, nil
}

// GetByID retrieves a sale with items.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, saleID)
}

// List retrieves sales with filtering.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*Sale, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	return s.repo.List(ctx, f)
}

func (s *Service) decrementStock(ctx context.Context, sale *Sale, prod *product.Product, qty int64) error {
	// Unit-produced items sell from unlimited on-site stock.
	if prod.IsUnitProduced() || !prod.Trackable {
		return nil
	}
	_, err := s.stock.Adjust(ctx, ledger.Movement{
		Scope:       ledger.Inventory(sale.UnitID),
		ProductID:   prod.ID,
		Delta:       -qty,
		Action:      audit.ActionSale,
		SubjectType: "sale",
		SubjectID:   sale.ID,
		Description: fmt.Sprintf("sold %s", prod.FormatQuantity(qty)),
	})
	return err
}
