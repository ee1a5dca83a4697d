package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/domain/stockrequest"
	"stockyard/internal/infrastructure/storage/postgres"
)

const stockRequestsTable = "doc_stock_requests"

// StockRequestRepo implements stockrequest.Repository.
type StockRequestRepo struct {
	*BaseDocumentRepo[*stockrequest.StockRequest]
}

var _ stockrequest.Repository = (*StockRequestRepo)(nil)

// NewStockRequestRepo creates a new stock request repository.
func NewStockRequestRepo(txManager *postgres.TxManager) *StockRequestRepo {
	return &StockRequestRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			stockRequestsTable,
			postgres.ExtractDBColumns[stockrequest.StockRequest](),
			func() *stockrequest.StockRequest { return &stockrequest.StockRequest{} },
		),
	}
}

// Resolve persists a terminal state. The WHERE clause on status makes
// the pending-to-terminal transition race-free: a second resolver sees
// zero rows affected and backs off.
func (r *StockRequestRepo) Resolve(ctx context.Context, req *stockrequest.StockRequest) (bool, error) {
	q := r.Builder().
		Update(stockRequestsTable).
		Set("status", req.Status).
		Set("quantity_items", req.QuantityItems).
		Set("notes", req.Notes).
		Set("resolved_by", req.ResolvedBy).
		Set("resolved_at", req.ResolvedAt).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": req.ID}).
		Where(squirrel.Eq{"status": stockrequest.StatusPending})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build resolve: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("resolve stock request: %w", postgres.MapError(err))
	}

	return result.RowsAffected() > 0, nil
}

// List retrieves requests with filtering, newest first.
func (r *StockRequestRepo) List(ctx context.Context, f stockrequest.ListFilter) ([]*stockrequest.StockRequest, error) {
	q := r.baseSelect()

	if f.UnitID != nil {
		q = q.Where(squirrel.Eq{"unit_id": *f.UnitID})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}

	q = q.OrderBy("date DESC")

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*stockrequest.StockRequest
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock requests: %w", err)
	}

	return items, nil
}
