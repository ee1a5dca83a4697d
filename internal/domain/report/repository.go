package report

import (
	"context"
	"time"

	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// Repository defines persistence and aggregation queries for daily
// reports. The (unit_id, date) pair carries a unique constraint; Create
// surfaces its violation as DUPLICATE_REPORT.
type Repository interface {
	Create(ctx context.Context, report *DailyReport) error
	SaveItems(ctx context.Context, reportID id.ID, items []Item) error

	GetByID(ctx context.Context, id id.ID) (*DailyReport, error)
	GetByUnitAndDate(ctx context.Context, unitID id.ID, date time.Time) (*DailyReport, error)

	// GetLatestBefore returns the most recent report (with items) for
	// the unit strictly before the date, nil when none exists.
	GetLatestBefore(ctx context.Context, unitID id.ID, date time.Time) (*DailyReport, error)

	Exists(ctx context.Context, unitID id.ID, date time.Time) (bool, error)

	// UpdateRemark is the only permitted mutation of a stored report.
	UpdateRemark(ctx context.Context, reportID id.ID, remark string) error

	List(ctx context.Context, unitID id.ID, limit, offset int) ([]*DailyReport, error)

	// ListUnitIDs returns every unit that has at least one report.
	ListUnitIDs(ctx context.Context) ([]id.ID, error)

	// SoldTotals aggregates sale item quantities per product for the
	// unit and trading day.
	SoldTotals(ctx context.Context, unitID id.ID, date time.Time) (map[id.ID]int64, error)

	// ReceivedTotals aggregates approved stock request quantities
	// (in items) per product for the unit and trading day.
	ReceivedTotals(ctx context.Context, unitID id.ID, date time.Time) (map[id.ID]int64, error)

	// SalesAmount sums the monetary value of the unit's sales for the
	// trading day.
	SalesAmount(ctx context.Context, unitID id.ID, date time.Time) (types.Money, error)
}
