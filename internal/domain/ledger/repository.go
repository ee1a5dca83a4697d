package ledger

import (
	"context"
	"time"

	"stockyard/internal/core/id"
)

// Balance is one row of the ledger: quantity of a product in a scope.
// Quantities are canonical item counts.
type Balance struct {
	Scope             Scope     `json:"scope"`
	ProductID         id.ID     `json:"productId"`
	Quantity          int64     `json:"quantity"`
	LowStockThreshold int64     `json:"lowStockThreshold"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// IsLow reports whether the balance sits at or below its threshold.
// A zero threshold disables the check.
func (b Balance) IsLow() bool {
	return b.LowStockThreshold > 0 && b.Quantity <= b.LowStockThreshold
}

// Repository defines persistence for ledger balances.
//
// Mutating methods must run inside a caller-provided transaction;
// GetForUpdate takes a row lock that lives until that transaction ends.
type Repository interface {
	// GetForUpdate returns the balance with a row lock.
	// found is false when no row exists yet.
	GetForUpdate(ctx context.Context, scope Scope, productID id.ID) (qty int64, found bool, err error)

	// EnsureRow creates a zero-quantity row unless one already exists.
	// FOR UPDATE on a missing row locks nothing, so first movements
	// must insert before relocking or two writers both read zero and
	// the later absolute write erases the earlier one.
	EnsureRow(ctx context.Context, scope Scope, productID id.ID) error

	// Get returns the current quantity, zero when no row exists.
	Get(ctx context.Context, scope Scope, productID id.ID) (int64, error)

	// Upsert writes the quantity, creating the row if needed.
	Upsert(ctx context.Context, scope Scope, productID id.ID, qty int64) error

	// ListByScope returns all balances in a scope.
	ListByScope(ctx context.Context, scope Scope) ([]Balance, error)

	// SetLowStockThreshold updates the alert threshold on a row.
	SetLowStockThreshold(ctx context.Context, scope Scope, productID id.ID, threshold int64) error
}
