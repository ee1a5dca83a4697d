package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/sales"
	"stockyard/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "doc_sales"
	saleItemsTable = "doc_sale_items"
)

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	*BaseDocumentRepo[*sales.Sale]
}

var _ sales.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			salesTable,
			postgres.ExtractDBColumns[sales.Sale](),
			func() *sales.Sale { return &sales.Sale{} },
		),
	}
}

// GetByID retrieves a sale with its items.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	sale, err := r.BaseDocumentRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	items, err := r.getItems(ctx, saleID)
	if err != nil {
		return nil, err
	}
	sale.Items = items

	return sale, nil
}

func (r *SaleRepo) getItems(ctx context.Context, saleID id.ID) ([]sales.SaleItem, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "quantity", "unit_price", "amount").
		From(saleItemsTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []sales.SaleItem
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}

	return items, nil
}

// SaveItems batch inserts sale lines. Existing lines are kept; callers
// pass only the new tail when appending.
func (r *SaleRepo) SaveItems(ctx context.Context, saleID id.ID, items []sales.SaleItem) error {
	if len(items) == 0 {
		return nil
	}

	// COPY when inside a transaction, plain insert otherwise.
	if tx := r.TxManager().GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.TxManager())
		columns := []string{"line_id", "sale_id", "line_no", "product_id", "quantity", "unit_price", "amount"}
		rows := make([][]any, 0, len(items))
		for _, item := range items {
			rows = append(rows, []any{
				item.LineID, saleID, item.LineNo, item.ProductID,
				item.Quantity, item.UnitPrice, item.Amount,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, saleItemsTable, columns, rows); err != nil {
			return fmt.Errorf("copy sale items: %w", err)
		}
		return nil
	}

	q := r.Builder().
		Insert(saleItemsTable).
		Columns("line_id", "sale_id", "line_no", "product_id", "quantity", "unit_price", "amount")

	for _, item := range items {
		q = q.Values(
			item.LineID, saleID, item.LineNo, item.ProductID,
			item.Quantity, item.UnitPrice, item.Amount,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale items: %w", err)
	}

	return nil
}

// UpdateTotals persists the recalculated header totals.
func (r *SaleRepo) UpdateTotals(ctx context.Context, sale *sales.Sale) error {
	q := r.Builder().
		Update(salesTable).
		Set("total_amount", sale.TotalAmount).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": sale.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update totals: %w", err)
	}

	_, err = r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale totals: %w", err)
	}

	return nil
}

// ConfirmPayment persists payment confirmation. The WHERE clause on
// payment_status makes concurrent confirmations lose cleanly.
func (r *SaleRepo) ConfirmPayment(ctx context.Context, sale *sales.Sale) (bool, error) {
	q := r.Builder().
		Update(salesTable).
		Set("payment_status", sales.PaymentConfirmed).
		Set("payment_ref", sale.PaymentRef).
		Set("confirmed_at", sale.ConfirmedAt).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": sale.ID}).
		Where(squirrel.Eq{"payment_status": sales.PaymentPending})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build confirm payment: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("confirm payment: %w", postgres.MapError(err))
	}

	return result.RowsAffected() > 0, nil
}

// List retrieves sales with filtering, newest first. Items are not
// loaded; use GetByID for a full document.
func (r *SaleRepo) List(ctx context.Context, f sales.ListFilter) ([]*sales.Sale, error) {
	q := r.baseSelect()

	if f.UnitID != nil {
		q = q.Where(squirrel.Eq{"unit_id": *f.UnitID})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"payment_status": *f.Status})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.DateTo})
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

	var items []*sales.Sale
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	return items, nil
}
