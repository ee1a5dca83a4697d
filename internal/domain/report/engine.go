package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/tx"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/logger"
	"stockyard/pkg/numerator"
)

// BalanceSource reads ledger balances.
type BalanceSource interface {
	ListBalances(ctx context.Context, scope ledger.Scope) ([]ledger.Balance, error)
}

// GenerateParams describes a report generation request.
type GenerateParams struct {
	UnitID  id.ID
	Date    time.Time
	ActorID id.ID

	// Damages per product in items, zero when absent
	Damages map[id.ID]int64

	Remark string
}

// Discrepancy is one flagged report item.
type Discrepancy struct {
	UnitID    id.ID     `json:"unitId"`
	ReportID  id.ID     `json:"reportId"`
	Date      time.Time `json:"date"`
	ProductID id.ID     `json:"productId"`

	// Reason is "imbalance" or "negative_opening"
	Reason string `json:"reason"`

	// ExpectedClosing per the flow identity, ActualClosing as stored
	ExpectedClosing int64 `json:"expectedClosing"`
	ActualClosing   int64 `json:"actualClosing"`
}

// Engine reconstructs trading days into daily reports and diagnoses
// stored ones. It never corrects historical data.
type Engine struct {
	repo      Repository
	balances  BalanceSource
	numerator *numerator.Service
	txManager tx.IsolationManager
}

// NewEngine creates a reconciliation engine.
func NewEngine(repo Repository, balances BalanceSource, num *numerator.Service, txManager tx.IsolationManager) *Engine {
	return &Engine{
		repo:      repo,
		balances:  balances,
		numerator: num,
		txManager: txManager,
	}
}

// Generate closes one trading day for a unit. The whole reconstruction
// runs in a REPEATABLE READ transaction so sales, approved requests and
// balances come from one snapshot. A second report for the same unit
// and date fails with DUPLICATE_REPORT.
func (e *Engine) Generate(ctx context.Context, p GenerateParams) (*DailyReport, error) {
	date := Day(p.Date)

	// Pre-check; the unique constraint on (unit_id, date) backstops
	// the race.
	exists, err := e.repo.Exists(ctx, p.UnitID, date)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewDuplicateReport(p.UnitID.String(), date)
	}

	report := NewDailyReport(p.UnitID, p.ActorID, date)
	report.Remark = p.Remark

	number, err := e.numerator.GetNextNumber(ctx, numerator.DefaultConfig("DR"),
		&numerator.Options{Strategy: numerator.StrategyCached}, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate report number: %w", err)
	}
	report.Number = number

	if err := report.Validate(ctx); err != nil {
		return nil, err
	}

	err = e.txManager.RunInRepeatableRead(ctx, func(ctx context.Context) error {
		balances, err := e.balances.ListBalances(ctx, ledger.Inventory(p.UnitID))
		if err != nil {
			return fmt.Errorf("list balances: %w", err)
		}
		sold, err := e.repo.SoldTotals(ctx, p.UnitID, date)
		if err != nil {
			return fmt.Errorf("sold totals: %w", err)
		}
		received, err := e.repo.ReceivedTotals(ctx, p.UnitID, date)
		if err != nil {
			return fmt.Errorf("received totals: %w", err)
		}
		salesAmount, err := e.repo.SalesAmount(ctx, p.UnitID, date)
		if err != nil {
			return fmt.Errorf("sales amount: %w", err)
		}
		report.TotalSalesAmount = salesAmount
		prior, err := e.repo.GetLatestBefore(ctx, p.UnitID, date)
		if err != nil {
			return fmt.Errorf("latest report: %w", err)
		}

		priorClosing := make(map[id.ID]int64)
		if prior != nil {
			for _, item := range prior.Items {
				priorClosing[item.ProductID] = item.Closing
			}
		}

		closing := make(map[id.ID]int64, len(balances))
		for _, b := range balances {
			closing[b.ProductID] = b.Quantity
		}

		for _, productID := range productUnion(closing, sold, received) {
			item := Item{
				ProductID: productID,
				Received:  received[productID],
				Sold:      sold[productID],
				Damages:   p.Damages[productID],
				Closing:   closing[productID],
			}

			if open, ok := priorClosing[productID]; ok {
				// Chained day: yesterday's closing is today's opening.
				item.Opening = open
			} else {
				// First sighting: derive the opening backwards from the
				// closing snapshot and clamp at zero. When clamped, the
				// closing figure absorbs the remainder.
				derived := item.Closing + item.Sold - item.Received + item.Damages
				if derived < 0 {
					item.Opening = 0
					item.Closing = max64(0, item.Received-item.Sold-item.Damages)
				} else {
					item.Opening = derived
				}
			}

			report.AddItem(item)
		}

		if err := e.repo.Create(ctx, report); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		if err := e.repo.SaveItems(ctx, report.ID, report.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "daily report generated",
		"id", report.ID,
		"unit_id", p.UnitID,
		"date", date.Format("2006-01-02"),
		"items", len(report.Items),
	)
	return report, nil
}

// Diagnose flags stored report items that violate the flow identity
// (opening + received - sold - damages == closing) or carry a negative
// opening. Read-only: it never repairs.
func (e *Engine) Diagnose(ctx context.Context, unitID *id.ID) ([]Discrepancy, error) {
	var units []id.ID
	if unitID != nil {
		units = []id.ID{*unitID}
	} else {
		var err error
		units, err = e.repo.ListUnitIDs(ctx)
		if err != nil {
			return nil, err
		}
	}

	var out []Discrepancy
	for _, uid := range units {
		headers, err := e.repo.List(ctx, uid, 10000, 0)
		if err != nil {
			return nil, err
		}
		for _, header := range headers {
			full, err := e.repo.GetByID(ctx, header.ID)
			if err != nil {
				return nil, err
			}
			for _, item := range full.Items {
				expected := item.Opening + item.Received - item.Sold - item.Damages
				if item.Opening < 0 {
					out = append(out, Discrepancy{
						UnitID: uid, ReportID: full.ID, Date: full.Date,
						ProductID: item.ProductID, Reason: "negative_opening",
						ExpectedClosing: expected, ActualClosing: item.Closing,
					})
					continue
				}
				if !item.Balanced() {
					out = append(out, Discrepancy{
						UnitID: uid, ReportID: full.ID, Date: full.Date,
						ProductID: item.ProductID, Reason: "imbalance",
						ExpectedClosing: expected, ActualClosing: item.Closing,
					})
				}
			}
		}
	}
	return out, nil
}

// UpdateRemark changes the free-text remark, the only mutable field.
func (e *Engine) UpdateRemark(ctx context.Context, reportID id.ID, remark string) error {
	return e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := e.repo.GetByID(ctx, reportID); err != nil {
			return err
		}
		return e.repo.UpdateRemark(ctx, reportID, remark)
	})
}

// GetByID retrieves a report with items.
func (e *Engine) GetByID(ctx context.Context, reportID id.ID) (*DailyReport, error) {
	return e.repo.GetByID(ctx, reportID)
}

// GetByUnitAndDate retrieves a unit's report for a trading day.
func (e *Engine) GetByUnitAndDate(ctx context.Context, unitID id.ID, date time.Time) (*DailyReport, error) {
	return e.repo.GetByUnitAndDate(ctx, unitID, Day(date))
}

// List retrieves a unit's reports, newest first.
func (e *Engine) List(ctx context.Context, unitID id.ID, limit, offset int) ([]*DailyReport, error) {
	if limit <= 0 {
		limit = 50
	}
	return e.repo.List(ctx, unitID, limit, offset)
}

// productUnion returns the sorted union of product ids across sources.
func productUnion(maps ...map[id.ID]int64) []id.ID {
	set := make(map[id.ID]struct{})
	for _, m := range maps {
		for k := range m {
			set[k] = struct{}{}
		}
	}
	out := make([]id.ID, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
