// Package report provides the daily report: the immutable end-of-day
// reconstruction of opening, received, sold, damaged and closing
// quantities per product at an operating unit.
package report

import (
	"context"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// DailyReport is one unit's closing of one trading day. Date holds the
// report date (midnight UTC); at most one report exists per unit and
// date.
type DailyReport struct {
	entity.Document

	UnitID id.ID `db:"unit_id" json:"unitId"`

	// Rollup totals across items
	TotalOpening  int64 `db:"total_opening" json:"totalOpening"`
	TotalReceived int64 `db:"total_received" json:"totalReceived"`
	TotalSold     int64 `db:"total_sold" json:"totalSold"`
	TotalDamages  int64 `db:"total_damages" json:"totalDamages"`
	TotalClosing  int64 `db:"total_closing" json:"totalClosing"`

	// TotalSalesAmount is the monetary sum of the day's sales
	TotalSalesAmount types.Money `db:"total_sales_amount" json:"totalSalesAmount"`

	// Remark is the only field mutable after creation
	Remark string `db:"remark" json:"remark,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one product's reconstructed day. All quantities are items.
type Item struct {
	LineID    id.ID `db:"line_id" json:"lineId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Opening  int64 `db:"opening" json:"opening"`
	Received int64 `db:"received" json:"received"`
	Sold     int64 `db:"sold" json:"sold"`
	Damages  int64 `db:"damages" json:"damages"`
	Closing  int64 `db:"closing" json:"closing"`
}

// Balanced reports whether the item satisfies
// opening + received - sold - damages == closing.
func (i Item) Balanced() bool {
	return i.Opening+i.Received-i.Sold-i.Damages == i.Closing
}

// NewDailyReport creates a report header for a unit and date.
func NewDailyReport(unitID, actorID id.ID, date time.Time) *DailyReport {
	r := &DailyReport{
		Document:         entity.NewDocument(actorID),
		UnitID:           unitID,
		TotalSalesAmount: types.ZeroMoney(),
	}
	r.Date = Day(date)
	return r
}

// Validate implements entity.Validatable.
func (r *DailyReport) Validate(ctx context.Context) error {
	if id.IsNil(r.UnitID) {
		return apperror.NewValidation("unit is required").WithDetail("field", "unitId")
	}
	if r.Date.IsZero() {
		return apperror.NewValidation("report date is required").WithDetail("field", "date")
	}
	return nil
}

// AddItem appends an item and updates the rollup totals.
func (r *DailyReport) AddItem(item Item) {
	if id.IsNil(item.LineID) {
		item.LineID = id.New()
	}
	r.Items = append(r.Items, item)
	r.TotalOpening += item.Opening
	r.TotalReceived += item.Received
	r.TotalSold += item.Sold
	r.TotalDamages += item.Damages
	r.TotalClosing += item.Closing
}

// Day normalizes a timestamp to its UTC midnight.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
