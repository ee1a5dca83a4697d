// Package report_repo provides the PostgreSQL implementation of daily
// report persistence and its aggregation queries.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/report"
	"stockyard/internal/infrastructure/storage/postgres"
)

const (
	reportsTable     = "doc_daily_reports"
	reportItemsTable = "doc_daily_report_items"
)

// DailyReportRepo implements report.Repository. The reports table
// carries UNIQUE (unit_id, date); its violation surfaces as
// DUPLICATE_REPORT so two clerks cannot file the same day twice.
type DailyReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	cols      []string
}

var _ report.Repository = (*DailyReportRepo)(nil)

// NewDailyReportRepo creates a new daily report repository.
func NewDailyReportRepo(txManager *postgres.TxManager) *DailyReportRepo {
	return &DailyReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cols:      postgres.ExtractDBColumns[report.DailyReport](),
	}
}

func (r *DailyReportRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *DailyReportRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(r.cols...).From(reportsTable)
}

// dayRange returns the UTC half-open interval covering the trading day.
func dayRange(date time.Time) (time.Time, time.Time) {
	from := report.Day(date)
	return from, from.Add(24 * time.Hour)
}

// Create inserts the report header.
func (r *DailyReportRepo) Create(ctx context.Context, rep *report.DailyReport) error {
	data := postgres.StructToMap(rep)

	filteredData := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder.Insert(reportsTable).SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		// Only the (unit_id, date) key means the day was already filed;
		// a number collision is a different defect and maps generically.
		if postgres.IsUniqueViolation(err, "doc_daily_reports_unit_date_key") {
			return apperror.NewDuplicateReport(rep.UnitID.String(), rep.Date).WithCause(err)
		}
		return fmt.Errorf("insert report: %w", postgres.MapError(err))
	}

	return nil
}

// SaveItems batch inserts report lines.
func (r *DailyReportRepo) SaveItems(ctx context.Context, reportID id.ID, items []report.Item) error {
	if len(items) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		columns := []string{"line_id", "report_id", "product_id", "opening", "received", "sold", "damages", "closing"}
		rows := make([][]any, 0, len(items))
		for _, item := range items {
			rows = append(rows, []any{
				item.LineID, reportID, item.ProductID,
				item.Opening, item.Received, item.Sold, item.Damages, item.Closing,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, reportItemsTable, columns, rows); err != nil {
			return fmt.Errorf("copy report items: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(reportItemsTable).
		Columns("line_id", "report_id", "product_id", "opening", "received", "sold", "damages", "closing")

	for _, item := range items {
		q = q.Values(
			item.LineID, reportID, item.ProductID,
			item.Opening, item.Received, item.Sold, item.Damages, item.Closing,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert report items: %w", err)
	}

	return nil
}

func (r *DailyReportRepo) getItems(ctx context.Context, reportID id.ID) ([]report.Item, error) {
	q := r.builder.
		Select("line_id", "product_id", "opening", "received", "sold", "damages", "closing").
		From(reportItemsTable).
		Where(squirrel.Eq{"report_id": reportID}).
		OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []report.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get report items: %w", err)
	}

	return items, nil
}

func (r *DailyReportRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*report.DailyReport, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rep report.DailyReport
	if err := pgxscan.Get(ctx, r.querier(ctx), &rep, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(reportsTable, key)
		}
		return nil, fmt.Errorf("get report: %w", err)
	}

	items, err := r.getItems(ctx, rep.ID)
	if err != nil {
		return nil, err
	}
	rep.Items = items

	return &rep, nil
}

// GetByID retrieves a report with its items.
func (r *DailyReportRepo) GetByID(ctx context.Context, reportID id.ID) (*report.DailyReport, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": reportID})
	return r.getOne(ctx, q, reportID.String())
}

// GetByUnitAndDate retrieves the report filed for the unit's trading day.
func (r *DailyReportRepo) GetByUnitAndDate(ctx context.Context, unitID id.ID, date time.Time) (*report.DailyReport, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"unit_id": unitID, "date": report.Day(date)})
	return r.getOne(ctx, q, fmt.Sprintf("%s@%s", unitID, report.Day(date).Format("2006-01-02")))
}

// GetLatestBefore returns the most recent report strictly before the
// date, nil when the unit has no earlier reports.
func (r *DailyReportRepo) GetLatestBefore(ctx context.Context, unitID id.ID, date time.Time) (*report.DailyReport, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"unit_id": unitID}).
		Where(squirrel.Lt{"date": report.Day(date)}).
		OrderBy("date DESC").
		Limit(1)

	rep, err := r.getOne(ctx, q, unitID.String())
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return rep, nil
}

// Exists reports whether the unit already filed for the trading day.
func (r *DailyReportRepo) Exists(ctx context.Context, unitID id.ID, date time.Time) (bool, error) {
	q := r.builder.Select("1").
		From(reportsTable).
		Where(squirrel.Eq{"unit_id": unitID, "date": report.Day(date)}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}

	return true, nil
}

// UpdateRemark is the only permitted mutation of a stored report.
func (r *DailyReportRepo) UpdateRemark(ctx context.Context, reportID id.ID, remark string) error {
	q := r.builder.Update(reportsTable).
		Set("remark", remark).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": reportID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update remark: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update remark: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(reportsTable, reportID.String())
	}

	return nil
}

// List retrieves report headers for a unit, newest first. Items are not
// loaded; use GetByID for a full document.
func (r *DailyReportRepo) List(ctx context.Context, unitID id.ID, limit, offset int) ([]*report.DailyReport, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"unit_id": unitID}).
		OrderBy("date DESC")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var reports []*report.DailyReport
	if err := pgxscan.Select(ctx, r.querier(ctx), &reports, sql, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	return reports, nil
}

// ListUnitIDs returns every unit that has at least one report.
func (r *DailyReportRepo) ListUnitIDs(ctx context.Context) ([]id.ID, error) {
	sql := "SELECT DISTINCT unit_id FROM " + reportsTable + " ORDER BY unit_id"

	rows, err := r.querier(ctx).Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("list report units: %w", err)
	}
	defer rows.Close()

	var ids []id.ID
	for rows.Next() {
		var unitID id.ID
		if err := rows.Scan(&unitID); err != nil {
			return nil, fmt.Errorf("scan unit id: %w", err)
		}
		ids = append(ids, unitID)
	}

	return ids, rows.Err()
}

// SoldTotals aggregates sale item quantities per product for the unit
// and trading day.
func (r *DailyReportRepo) SoldTotals(ctx context.Context, unitID id.ID, date time.Time) (map[id.ID]int64, error) {
	from, to := dayRange(date)

	sql := `
		SELECT i.product_id, COALESCE(SUM(i.quantity), 0)
		FROM doc_sale_items i
		JOIN doc_sales s ON s.id = i.sale_id
		WHERE s.unit_id = $1 AND s.date >= $2 AND s.date < $3
		GROUP BY i.product_id
	`

	return r.queryTotals(ctx, sql, unitID, from, to)
}

// ReceivedTotals aggregates approved stock request quantities (in
// items) per product for the unit and trading day.
func (r *DailyReportRepo) ReceivedTotals(ctx context.Context, unitID id.ID, date time.Time) (map[id.ID]int64, error) {
	from, to := dayRange(date)

	sql := `
		SELECT product_id, COALESCE(SUM(quantity_items), 0)
		FROM doc_stock_requests
		WHERE unit_id = $1 AND status = 'approved'
		  AND resolved_at >= $2 AND resolved_at < $3
		GROUP BY product_id
	`

	return r.queryTotals(ctx, sql, unitID, from, to)
}

// SalesAmount sums the monetary value of the unit's sales for the
// trading day.
func (r *DailyReportRepo) SalesAmount(ctx context.Context, unitID id.ID, date time.Time) (types.Money, error) {
	from, to := dayRange(date)

	sql := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM doc_sales
		WHERE unit_id = $1 AND date >= $2 AND date < $3
	`

	var amount types.Money
	if err := r.querier(ctx).QueryRow(ctx, sql, unitID, from, to).Scan(&amount); err != nil {
		return types.ZeroMoney(), fmt.Errorf("sales amount: %w", err)
	}

	return amount, nil
}

func (r *DailyReportRepo) queryTotals(ctx context.Context, sql string, args ...any) (map[id.ID]int64, error) {
	rows, err := r.querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[id.ID]int64)
	for rows.Next() {
		var productID id.ID
		var qty int64
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		totals[productID] = qty
	}

	return totals, rows.Err()
}
