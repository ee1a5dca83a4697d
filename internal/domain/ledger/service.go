package ledger

import (
	"context"
	"fmt"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/tx"
	"stockyard/internal/domain/audit"
	"stockyard/pkg/logger"
)

// Service provides ledger operations. Adjust and Transfer must be
// called within a caller-managed transaction (document services open
// one); TransferBetweenUnits and SetLowStockThreshold open their own.
type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     audit.Sink
}

// NewService creates a new ledger service.
func NewService(repo Repository, txManager tx.Manager, sink audit.Sink) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		audit:     sink,
	}
}

// Movement describes a single-scope quantity change.
type Movement struct {
	Scope     Scope
	ProductID id.ID

	// Delta in items; positive receives stock, negative issues it
	Delta int64

	// Action and subject identify the document causing the movement
	Action      audit.Action
	SubjectType string
	SubjectID   id.ID
	Description string
}

// Adjustment reports the quantity before and after a movement.
type Adjustment struct {
	OldQuantity int64 `json:"oldQuantity"`
	NewQuantity int64 `json:"newQuantity"`
}

// Adjust applies a movement to one balance row. The row is created
// lazily on a positive delta; a delta that would drive the quantity
// negative fails with INSUFFICIENT_STOCK and changes nothing.
func (s *Service) Adjust(ctx context.Context, m Movement) (Adjustment, error) {
	if m.Delta == 0 {
		return Adjustment{}, apperror.NewValidation("delta must be non-zero").
			WithDetail("productId", m.ProductID)
	}

	current, found, err := s.repo.GetForUpdate(ctx, m.Scope, m.ProductID)
	if err != nil {
		return Adjustment{}, fmt.Errorf("lock balance %s/%s: %w", m.Scope, m.ProductID, err)
	}
	if !found {
		if m.Delta < 0 {
			return Adjustment{}, apperror.NewInsufficientStock(m.ProductID.String(), -m.Delta, 0)
		}
		current, err = s.lockFresh(ctx, m.Scope, m.ProductID)
		if err != nil {
			return Adjustment{}, err
		}
	}

	next := current + m.Delta
	if next < 0 {
		return Adjustment{}, apperror.NewInsufficientStock(m.ProductID.String(), -m.Delta, current)
	}

	if err := s.repo.Upsert(ctx, m.Scope, m.ProductID, next); err != nil {
		return Adjustment{}, fmt.Errorf("upsert balance %s/%s: %w", m.Scope, m.ProductID, err)
	}

	if err := s.recordMovement(ctx, m, current, next); err != nil {
		return Adjustment{}, err
	}

	return Adjustment{OldQuantity: current, NewQuantity: next}, nil
}

// lockFresh inserts a missing balance row and relocks it. The relock
// observes any concurrently committed first movement, so the caller's
// absolute write never erases it.
func (s *Service) lockFresh(ctx context.Context, scope Scope, productID id.ID) (int64, error) {
	if err := s.repo.EnsureRow(ctx, scope, productID); err != nil {
		return 0, fmt.Errorf("create balance %s/%s: %w", scope, productID, err)
	}
	qty, found, err := s.repo.GetForUpdate(ctx, scope, productID)
	if err != nil {
		return 0, fmt.Errorf("relock balance %s/%s: %w", scope, productID, err)
	}
	if !found {
		return 0, fmt.Errorf("balance %s/%s missing after insert", scope, productID)
	}
	return qty, nil
}

// TransferParams describes an atomic two-scope movement.
type TransferParams struct {
	From      Scope
	To        Scope
	ProductID id.ID
	Quantity  int64 // items, must be positive

	SubjectType string
	SubjectID   id.ID
	Description string
}

// Transfer moves quantity from one scope to another within the
// caller's transaction. The destination is untouched when the source
// has insufficient stock.
func (s *Service) Transfer(ctx context.Context, p TransferParams) error {
	if p.Quantity <= 0 {
		return apperror.NewValidation("transfer quantity must be positive").
			WithDetail("quantity", p.Quantity)
	}
	if p.From == p.To {
		return apperror.NewSameUnitTransfer(p.From.String())
	}

	// Lock both rows in the stable scope order regardless of
	// transfer direction.
	first, second := p.From, p.To
	if second.before(first) {
		first, second = second, first
	}

	quantities := make(map[Scope]int64, 2)
	for _, scope := range []Scope{first, second} {
		qty, found, err := s.repo.GetForUpdate(ctx, scope, p.ProductID)
		if err != nil {
			return fmt.Errorf("lock balance %s/%s: %w", scope, p.ProductID, err)
		}
		if !found {
			qty, err = s.lockFresh(ctx, scope, p.ProductID)
			if err != nil {
				return err
			}
		}
		quantities[scope] = qty
	}

	fromQty := quantities[p.From]
	if fromQty < p.Quantity {
		return apperror.NewInsufficientStock(p.ProductID.String(), p.Quantity, fromQty)
	}
	toQty := quantities[p.To]

	if err := s.repo.Upsert(ctx, p.From, p.ProductID, fromQty-p.Quantity); err != nil {
		return fmt.Errorf("decrement %s/%s: %w", p.From, p.ProductID, err)
	}
	if err := s.repo.Upsert(ctx, p.To, p.ProductID, toQty+p.Quantity); err != nil {
		return fmt.Errorf("increment %s/%s: %w", p.To, p.ProductID, err)
	}

	out := Movement{
		Scope: p.From, ProductID: p.ProductID, Delta: -p.Quantity,
		Action: audit.ActionTransfer, SubjectType: p.SubjectType,
		SubjectID: p.SubjectID, Description: p.Description,
	}
	if err := s.recordMovement(ctx, out, fromQty, fromQty-p.Quantity); err != nil {
		return err
	}
	in := out
	in.Scope, in.Delta = p.To, p.Quantity
	if err := s.recordMovement(ctx, in, toQty, toQty+p.Quantity); err != nil {
		return err
	}

	logger.Debug(ctx, "transferred stock",
		"product_id", p.ProductID,
		"from", p.From.String(),
		"to", p.To.String(),
		"quantity", p.Quantity,
	)

	return nil
}

// TransferBetweenUnits moves stock directly between two operating
// units in its own transaction.
func (s *Service) TransferBetweenUnits(ctx context.Context, fromUnit, toUnit, productID id.ID, qty int64) error {
	if fromUnit == toUnit {
		return apperror.NewSameUnitTransfer(fromUnit.String())
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.Transfer(ctx, TransferParams{
			From:        Inventory(fromUnit),
			To:          Inventory(toUnit),
			ProductID:   productID,
			Quantity:    qty,
			SubjectType: "unit_transfer",
			SubjectID:   id.New(),
			Description: "direct transfer between units",
		})
	})
}

// QuantityOf returns the current quantity for display reads.
func (s *Service) QuantityOf(ctx context.Context, scope Scope, productID id.ID) (int64, error) {
	return s.repo.Get(ctx, scope, productID)
}

// ListBalances returns all balances in a scope.
func (s *Service) ListBalances(ctx context.Context, scope Scope) ([]Balance, error) {
	return s.repo.ListByScope(ctx, scope)
}

// SetLowStockThreshold updates the alert threshold on a balance row.
func (s *Service) SetLowStockThreshold(ctx context.Context, scope Scope, productID id.ID, threshold int64) error {
	if threshold < 0 {
		return apperror.NewValidation("threshold cannot be negative").
			WithDetail("threshold", threshold)
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SetLowStockThreshold(ctx, scope, productID, threshold)
	})
}

func (s *Service) recordMovement(ctx context.Context, m Movement, oldQty, newQty int64) error {
	pid := m.ProductID
	entry := audit.Entry{
		Action:      m.Action,
		ProductID:   &pid,
		SubjectType: m.SubjectType,
		SubjectID:   m.SubjectID,
		OldValues:   map[string]any{"scope": m.Scope.String(), "quantity": oldQty},
		NewValues:   map[string]any{"scope": m.Scope.String(), "quantity": newQty},
		Description: m.Description,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}
