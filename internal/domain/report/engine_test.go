package report

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/numerator"
)

type dayKey struct {
	unit id.ID
	date time.Time
}

type memoryRepo struct {
	reports  map[id.ID]*DailyReport
	items    map[id.ID][]Item
	byDay    map[dayKey]id.ID
	sold     map[dayKey]map[id.ID]int64
	received map[dayKey]map[id.ID]int64
	amounts  map[dayKey]types.Money
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		reports:  make(map[id.ID]*DailyReport),
		items:    make(map[id.ID][]Item),
		byDay:    make(map[dayKey]id.ID),
		sold:     make(map[dayKey]map[id.ID]int64),
		received: make(map[dayKey]map[id.ID]int64),
		amounts:  make(map[dayKey]types.Money),
	}
}

func (r *memoryRepo) Create(ctx context.Context, report *DailyReport) error {
	key := dayKey{report.UnitID, report.Date}
	if _, ok := r.byDay[key]; ok {
		return apperror.NewDuplicateReport(report.UnitID.String(), report.Date)
	}
	cp := *report
	r.reports[report.ID] = &cp
	r.byDay[key] = report.ID
	return nil
}

func (r *memoryRepo) SaveItems(ctx context.Context, reportID id.ID, items []Item) error {
	r.items[reportID] = append([]Item(nil), items...)
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, reportID id.ID) (*DailyReport, error) {
	rep, ok := r.reports[reportID]
	if !ok {
		return nil, apperror.NewNotFound("daily_report", reportID.String())
	}
	cp := *rep
	cp.Items = append([]Item(nil), r.items[reportID]...)
	return &cp, nil
}

func (r *memoryRepo) GetByUnitAndDate(ctx context.Context, unitID id.ID, date time.Time) (*DailyReport, error) {
	reportID, ok := r.byDay[dayKey{unitID, Day(date)}]
	if !ok {
		return nil, apperror.NewNotFound("daily_report", unitID.String())
	}
	return r.GetByID(ctx, reportID)
}

func (r *memoryRepo) GetLatestBefore(ctx context.Context, unitID id.ID, date time.Time) (*DailyReport, error) {
	var latest *DailyReport
	for _, rep := range r.reports {
		if rep.UnitID != unitID || !rep.Date.Before(date) {
			continue
		}
		if latest == nil || rep.Date.After(latest.Date) {
			latest = rep
		}
	}
	if latest == nil {
		return nil, nil
	}
	return r.GetByID(ctx, latest.ID)
}

func (r *memoryRepo) Exists(ctx context.Context, unitID id.ID, date time.Time) (bool, error) {
	_, ok := r.byDay[dayKey{unitID, Day(date)}]
	return ok, nil
}

func (r *memoryRepo) UpdateRemark(ctx context.Context, reportID id.ID, remark string) error {
	rep, ok := r.reports[reportID]
	if !ok {
		return apperror.NewNotFound("daily_report", reportID.String())
	}
	rep.Remark = remark
	return nil
}

func (r *memoryRepo) List(ctx context.Context, unitID id.ID, limit, offset int) ([]*DailyReport, error) {
	var out []*DailyReport
	for _, rep := range r.reports {
		if rep.UnitID == unitID {
			cp := *rep
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListUnitIDs(ctx context.Context) ([]id.ID, error) {
	seen := make(map[id.ID]bool)
	var out []id.ID
	for _, rep := range r.reports {
		if !seen[rep.UnitID] {
			seen[rep.UnitID] = true
			out = append(out, rep.UnitID)
		}
	}
	return out, nil
}

func (r *memoryRepo) SoldTotals(ctx context.Context, unitID id.ID, date time.Time) (map[id.ID]int64, error) {
	return copyTotals(r.sold[dayKey{unitID, Day(date)}]), nil
}

func (r *memoryRepo) ReceivedTotals(ctx context.Context, unitID id.ID, date time.Time) (map[id.ID]int64, error) {
	return copyTotals(r.received[dayKey{unitID, Day(date)}]), nil
}

func (r *memoryRepo) SalesAmount(ctx context.Context, unitID id.ID, date time.Time) (types.Money, error) {
	amount, ok := r.amounts[dayKey{unitID, Day(date)}]
	if !ok {
		return types.ZeroMoney(), nil
	}
	return amount, nil
}

func copyTotals(src map[id.ID]int64) map[id.ID]int64 {
	out := make(map[id.ID]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

type fakeBalances struct {
	byScope map[ledger.Scope][]ledger.Balance
}

func (f *fakeBalances) ListBalances(ctx context.Context, scope ledger.Scope) ([]ledger.Balance, error) {
	return f.byScope[scope], nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTx) RunInRepeatableRead(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	engine   *Engine
	repo     *memoryRepo
	balances *fakeBalances
	unitID   id.ID
	water    id.ID
	day      time.Time
}

type seqRow struct{ val int64 }

func (r seqRow) Scan(dest ...any) error {
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = r.val
	}
	return nil
}

type seqQuerier struct{ counters map[string]int64 }

func (q *seqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if q.counters == nil {
		q.counters = make(map[string]int64)
	}
	key, _ := args[0].(string)
	incr := int64(1)
	if len(args) == 2 {
		if v, ok := args[1].(int64); ok {
			incr = v
		}
	}
	q.counters[key] += incr
	return seqRow{val: q.counters[key]}
}

func newFixture() *fixture {
	repo := newMemoryRepo()
	balances := &fakeBalances{byScope: make(map[ledger.Scope][]ledger.Balance)}
	return &fixture{
		engine:   NewEngine(repo, balances, numerator.New(&seqQuerier{}), passthroughTx{}),
		repo:     repo,
		balances: balances,
		unitID:   id.New(),
		water:    id.New(),
		day:      time.Date(2026, 8, 30, 18, 45, 0, 0, time.UTC),
	}
}

func (f *fixture) setBalance(productID id.ID, qty int64) {
	scope := ledger.Inventory(f.unitID)
	f.balances.byScope[scope] = []ledger.Balance{
		{Scope: scope, ProductID: productID, Quantity: qty},
	}
}

func (f *fixture) setActivity(date time.Time, productID id.ID, sold, received int64) {
	key := dayKey{f.unitID, Day(date)}
	if sold > 0 {
		f.repo.sold[key] = map[id.ID]int64{productID: sold}
	}
	if received > 0 {
		f.repo.received[key] = map[id.ID]int64{productID: received}
	}
}

func TestGenerate_FirstReportDerivesOpening(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// closing 14, sold 10, received 24: opening = 14+10-24 = 0.
	f.setBalance(f.water, 14)
	f.setActivity(f.day, f.water, 10, 24)

	rep, err := f.engine.Generate(ctx, GenerateParams{UnitID: f.unitID, Date: f.day, ActorID: id.New()})
	require.NoError(t, err)
	require.Len(t, rep.Items, 1)

	item := rep.Items[0]
	assert.Equal(t, int64(0), item.Opening)
	assert.Equal(t, int64(24), item.Received)
	assert.Equal(t, int64(10), item.Sold)
	assert.Equal(t, int64(14), item.Closing)
	assert.True(t, item.Balanced())

	// Date is normalized to midnight UTC.
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), rep.Date)
}

func TestGenerate_BootstrapClamp(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// closing 0, sold 5, received 10: derived opening -5, clamped;
	// closing absorbs to max(0, 10-5) = 5.
	f.setBalance(f.water, 0)
	f.setActivity(f.day, f.water, 5, 10)

	rep, err := f.engine.Generate(ctx, GenerateParams{UnitID: f.unitID, Date: f.day, ActorID: id.New()})
	require.NoError(t, err)
	require.Len(t, rep.Items, 1)

	item := rep.Items[0]
	assert.Equal(t, int64(0), item.Opening)
	assert.Equal(t, int64(5), item.Closing)
	assert.True(t, item.Balanced())
}

func TestGenerate_ChainsPriorClosing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.setBalance(f.water, 14)
	f.setActivity(f.day, f.water, 10, 24)
	_, err := f.engine.Generate(ctx, GenerateParams{UnitID: f.unitID, Date: f.day, ActorID: id.New()})
	require.NoError(t, err)

	// Next day: sold 4, no receipts, closing snapshot 10.
	nextDay := f.day.AddDate(0, 0, 1)
	f.setBalance(f.water, 10)
	f.setActivity(nextDay, f.water, 4, 0)

	rep, err := f.engine.Generate(ctx, GenerateParams{UnitID: f.unitID, Date: nextDay, ActorID: id.New()})
	require.NoError(t, err)
	require.Len(t, rep.Items, 1)

	item := rep.Items[0]
	assert.Equal(t, int64(14), item.Opening)
	assert.Equal(t, int64(4), item.Sold)
	assert.Equal(t, int64(10), item.Closing)
	assert.True(t, item.Balanced())
}

func TestGenerate_Duplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.setBalance(f.water, 5)
	_, err := f.engine.Generate(ctx, GenerateParams{UnitID: f.unitID, Date: f.day, ActorID: id.New()})
	require.NoError(t, err)

	// Same trading day at a different wall-clock time still collides.
	_, err = f.engine.Generate(ctx, GenerateParams{UnitID: f.unitID, Date: f.day.Add(2 * time.Hour), ActorID: id.New()})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicateReport, appErr.Code)
}

func TestGenerate_RollupTotalsAndDamages(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	soda := id.New()
	scope := ledger.Inventory(f.unitID)
	f.balances.byScope[scope] = []ledger.Balance{
		{Scope: scope, ProductID: f.water, Quantity: 20},
		{Scope: scope, ProductID: soda, Quantity: 6},
	}
	key := dayKey{f.unitID, Day(f.day)}
	f.repo.sold[key] = map[id.ID]int64{f.water: 3, soda: 2}
	f.repo.received[key] = map[id.ID]int64{f.water: 12}

	rep, err := f.engine.Generate(ctx, GenerateParams{
		UnitID:  f.unitID,
		Date:    f.day,
		ActorID: id.New(),
		Damages: map[id.ID]int64{soda: 1},
		Remark:  "two broken bottles",
	})
	require.NoError(t, err)
	require.Len(t, rep.Items, 2)

	assert.Equal(t, int64(26), rep.TotalClosing)
	assert.Equal(t, int64(5), rep.TotalSold)
	assert.Equal(t, int64(12), rep.TotalReceived)
	assert.Equal(t, int64(1), rep.TotalDamages)
	assert.Equal(t, rep.TotalClosing+rep.TotalSold+rep.TotalDamages-rep.TotalReceived, rep.TotalOpening)
	assert.Equal(t, "two broken bottles", rep.Remark)
}

func TestGenerate_AssignsDistinctNumbers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.setBalance(f.water, 5)
	first, err := f.engine.Generate(ctx, GenerateParams{UnitID: f.unitID, Date: f.day, ActorID: id.New()})
	require.NoError(t, err)

	second, err := f.engine.Generate(ctx, GenerateParams{UnitID: f.unitID, Date: f.day.Add(24 * time.Hour), ActorID: id.New()})
	require.NoError(t, err)

	// Each report carries its own document number; an empty number
	// would collide on the second insert.
	assert.NotEmpty(t, first.Number)
	assert.NotEmpty(t, second.Number)
	assert.NotEqual(t, first.Number, second.Number)
}

func TestGenerate_SalesAmountRollup(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.setBalance(f.water, 20)
	f.setActivity(f.day, f.water, 4, 0)
	f.repo.amounts[dayKey{f.unitID, Day(f.day)}] = types.MustMoney("10.00")

	rep, err := f.engine.Generate(ctx, GenerateParams{UnitID: f.unitID, Date: f.day, ActorID: id.New()})
	require.NoError(t, err)

	assert.True(t, rep.TotalSalesAmount.Equal(types.MustMoney("10.00")))
	assert.Equal(t, int64(4), rep.TotalSold)
}

func TestDiagnose(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// A clean generated report produces no discrepancies.
	f.setBalance(f.water, 14)
	f.setActivity(f.day, f.water, 10, 24)
	rep, err := f.engine.Generate(ctx, GenerateParams{UnitID: f.unitID, Date: f.day, ActorID: id.New()})
	require.NoError(t, err)

	found, err := f.engine.Diagnose(ctx, &f.unitID)
	require.NoError(t, err)
	assert.Empty(t, found)

	// Corrupt the stored items: one imbalance, one negative opening.
	bad := id.New()
	f.repo.items[rep.ID] = append(f.repo.items[rep.ID],
		Item{LineID: id.New(), ProductID: bad, Opening: 5, Received: 0, Sold: 1, Closing: 9},
		Item{LineID: id.New(), ProductID: id.New(), Opening: -2, Received: 2, Sold: 0, Closing: 0},
	)

	found, err = f.engine.Diagnose(ctx, nil)
	require.NoError(t, err)
	require.Len(t, found, 2)

	reasons := map[string]bool{}
	for _, d := range found {
		reasons[d.Reason] = true
		assert.Equal(t, rep.ID, d.ReportID)
	}
	assert.True(t, reasons["imbalance"])
	assert.True(t, reasons["negative_opening"])
}

func TestUpdateRemark(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.setBalance(f.water, 5)
	rep, err := f.engine.Generate(ctx, GenerateParams{UnitID: f.unitID, Date: f.day, ActorID: id.New()})
	require.NoError(t, err)

	require.NoError(t, f.engine.UpdateRemark(ctx, rep.ID, "recount pending"))

	stored, err := f.engine.GetByID(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, "recount pending", stored.Remark)

	err = f.engine.UpdateRemark(ctx, id.New(), "nope")
	assert.Error(t, err)
}
