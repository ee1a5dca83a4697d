// Package ledger_repo provides the PostgreSQL implementation of the
// stock ledger balance store.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/infrastructure/storage/postgres"
)

const balancesTable = "reg_balances"

// BalanceRepo implements ledger.Repository over a single balances table.
// Central warehouse rows carry the nil UUID as unit_id so the primary
// key (scope_kind, unit_id, product_id) stays non-null.
type BalanceRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ ledger.Repository = (*BalanceRepo)(nil)

// NewBalanceRepo creates a new balance repository.
func NewBalanceRepo(txManager *postgres.TxManager) *BalanceRepo {
	return &BalanceRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scopeKey(scope ledger.Scope) (int16, id.ID) {
	return int16(scope.Kind), scope.UnitID
}

// GetForUpdate returns the balance quantity with a row lock.
// The lock lives until the surrounding transaction ends.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, scope ledger.Scope, productID id.ID) (int64, bool, error) {
	kind, unitID := scopeKey(scope)

	sql := `
		SELECT quantity
		FROM reg_balances
		WHERE scope_kind = $1 AND unit_id = $2 AND product_id = $3
		FOR UPDATE
	`

	var qty int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, kind, unitID, productID).Scan(&qty)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get balance for update: %w", postgres.MapError(err))
	}

	return qty, true, nil
}

// Get returns the current quantity, zero when no row exists.
func (r *BalanceRepo) Get(ctx context.Context, scope ledger.Scope, productID id.ID) (int64, error) {
	kind, unitID := scopeKey(scope)

	q := r.builder.Select("quantity").
		From(balancesTable).
		Where(squirrel.Eq{"scope_kind": kind, "unit_id": unitID, "product_id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var qty int64
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&qty)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return qty, nil
}

// EnsureRow creates a zero-quantity row unless one already exists.
// Callers relock with GetForUpdate afterwards; the insert itself takes
// the row lock when it wins, and loses gracefully to a concurrent one.
func (r *BalanceRepo) EnsureRow(ctx context.Context, scope ledger.Scope, productID id.ID) error {
	kind, unitID := scopeKey(scope)

	sql := `
		INSERT INTO reg_balances (scope_kind, unit_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (scope_kind, unit_id, product_id) DO NOTHING
	`

	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, kind, unitID, productID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ensure balance row: %w", postgres.MapError(err))
	}

	return nil
}

// Upsert writes the quantity, creating the row if needed.
func (r *BalanceRepo) Upsert(ctx context.Context, scope ledger.Scope, productID id.ID, qty int64) error {
	kind, unitID := scopeKey(scope)

	sql := `
		INSERT INTO reg_balances (scope_kind, unit_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (scope_kind, unit_id, product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, kind, unitID, productID, qty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert balance: %w", postgres.MapError(err))
	}

	return nil
}

// ListByScope returns all balances in a scope, ordered by product.
func (r *BalanceRepo) ListByScope(ctx context.Context, scope ledger.Scope) ([]ledger.Balance, error) {
	kind, unitID := scopeKey(scope)

	q := r.builder.Select("product_id", "quantity", "low_stock_threshold", "updated_at").
		From(balancesTable).
		Where(squirrel.Eq{"scope_kind": kind, "unit_id": unitID}).
		OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	defer rows.Close()

	var balances []ledger.Balance
	for rows.Next() {
		b := ledger.Balance{Scope: scope}
		if err := rows.Scan(&b.ProductID, &b.Quantity, &b.LowStockThreshold, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		balances = append(balances, b)
	}

	return balances, rows.Err()
}

// SetLowStockThreshold updates the alert threshold, creating the row
// at zero quantity when the product has never moved in this scope.
func (r *BalanceRepo) SetLowStockThreshold(ctx context.Context, scope ledger.Scope, productID id.ID, threshold int64) error {
	kind, unitID := scopeKey(scope)

	sql := `
		INSERT INTO reg_balances (scope_kind, unit_id, product_id, quantity, low_stock_threshold, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
		ON CONFLICT (scope_kind, unit_id, product_id) DO UPDATE SET
			low_stock_threshold = EXCLUDED.low_stock_threshold,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, kind, unitID, productID, threshold, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set low stock threshold: %w", postgres.MapError(err))
	}

	return nil
}
