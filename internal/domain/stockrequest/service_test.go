package stockrequest

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/audit"
	"stockyard/internal/domain/catalog/product"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/numerator"
)

type memoryRepo struct {
	requests map[id.ID]*StockRequest
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{requests: make(map[id.ID]*StockRequest)}
}

func (r *memoryRepo) Create(ctx context.Context, req *StockRequest) error {
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, reqID id.ID) (*StockRequest, error) {
	req, ok := r.requests[reqID]
	if !ok {
		return nil, apperror.NewNotFound("stock_request", reqID.String())
	}
	cp := *req
	return &cp, nil
}

func (r *memoryRepo) GetForUpdate(ctx context.Context, reqID id.ID) (*StockRequest, error) {
	return r.GetByID(ctx, reqID)
}

func (r *memoryRepo) Resolve(ctx context.Context, req *StockRequest) (bool, error) {
	stored, ok := r.requests[req.ID]
	if !ok || stored.Status != StatusPending {
		return false, nil
	}
	cp := *req
	r.requests[req.ID] = &cp
	return true, nil
}

func (r *memoryRepo) List(ctx context.Context, f ListFilter) ([]*StockRequest, error) {
	var out []*StockRequest
	for _, req := range r.requests {
		if f.UnitID != nil && req.UnitID != *f.UnitID {
			continue
		}
		if f.Status != nil && req.Status != *f.Status {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	return out, nil
}

type fakeMover struct {
	transfers []ledger.TransferParams
	err       error
}

func (m *fakeMover) Transfer(ctx context.Context, p ledger.TransferParams) error {
	if m.err != nil {
		return m.err
	}
	m.transfers = append(m.transfers, p)
	return nil
}

type fakeProducts struct {
	byID map[id.ID]*product.Product
}

func (f *fakeProducts) GetByID(ctx context.Context, pid id.ID) (*product.Product, error) {
	p, ok := f.byID[pid]
	if !ok {
		return nil, apperror.NewNotFound("product", pid.String())
	}
	return p, nil
}

type recordingSink struct {
	entries []audit.Entry
}

func (s *recordingSink) Record(ctx context.Context, entry audit.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
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

type fixture struct {
	svc      *Service
	repo     *memoryRepo
	mover    *fakeMover
	sink     *recordingSink
	water    *product.Product
	juice    *product.Product
}

func newFixture() *fixture {
	water := product.New("Bottled Water", "BW-1", product.TypeSet, product.SourceCentralStock)
	water.ItemsPerSet = 12
	water.Uom, water.UomPlural = "bottle", "bottles"
	water.SetUom, water.SetUomPlural = "set", "sets"

	juice := product.New("Fresh Juice", "FJ-1", product.TypeIndividual, product.SourceUnitProduced)
	juice.Uom = "glass"

	repo := newMemoryRepo()
	mover := &fakeMover{}
	sink := &recordingSink{}
	products := &fakeProducts{byID: map[id.ID]*product.Product{water.ID: water, juice.ID: juice}}
	num := numerator.New(&seqQuerier{})

	return &fixture{
		svc:   NewService(repo, mover, products, sink, num, passthroughTx{}),
		repo:  repo,
		mover: mover,
		sink:  sink,
		water: water,
		juice: juice,
	}
}

func TestCreate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	unitID, requester := id.New(), id.New()

	req, err := f.svc.Create(ctx, unitID, f.water.ID, requester, 3, "weekend stock")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, int64(3), req.Quantity)
	assert.Equal(t, int64(0), req.QuantityItems)
	assert.NotEmpty(t, req.Number)
	assert.Equal(t, requester, req.CreatedBy)
}

func TestCreate_Invalid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	unitID, requester := id.New(), id.New()

	_, err := f.svc.Create(ctx, unitID, f.water.ID, requester, 0, "")
	assert.Error(t, err)

	// Unit-produced products have no central stock to request.
	_, err = f.svc.Create(ctx, unitID, f.juice.ID, requester, 1, "")
	assert.Error(t, err)
}

func TestApprove_ConvertsOnceAndTransfers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	unitID, requester, approver := id.New(), id.New(), id.New()

	req, err := f.svc.Create(ctx, unitID, f.water.ID, requester, 3, "")
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, req.ID, approver)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, int64(36), approved.QuantityItems)
	require.NotNil(t, approved.ResolvedBy)
	assert.Equal(t, approver, *approved.ResolvedBy)

	require.Len(t, f.mover.transfers, 1)
	tr := f.mover.transfers[0]
	assert.Equal(t, ledger.Central(), tr.From)
	assert.Equal(t, ledger.Inventory(unitID), tr.To)
	assert.Equal(t, int64(36), tr.Quantity)
	assert.Equal(t, "stock_request", tr.SubjectType)

	require.Len(t, f.sink.entries, 1)
	assert.Equal(t, audit.ActionApproval, f.sink.entries[0].Action)
}

func TestApprove_InsufficientStockLeavesPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	unitID := id.New()

	req, err := f.svc.Create(ctx, unitID, f.water.ID, id.New(), 3, "")
	require.NoError(t, err)

	f.mover.err = apperror.NewInsufficientStock(f.water.ID.String(), 36, 10)

	_, err = f.svc.Approve(ctx, req.ID, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	stored, err := f.svc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestApprove_NonPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.svc.Create(ctx, id.New(), f.water.ID, id.New(), 1, "")
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, req.ID, id.New(), "not needed")
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, req.ID, id.New())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStateTransition, appErr.Code)
	assert.Empty(t, f.mover.transfers)
}

func TestReject(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	actor := id.New()

	req, err := f.svc.Create(ctx, id.New(), f.water.ID, id.New(), 2, "")
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, req.ID, actor, "duplicate of earlier request")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "duplicate of earlier request", rejected.Notes)

	// Terminal: cannot reject twice.
	_, err = f.svc.Reject(ctx, req.ID, actor, "")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	unitA, unitB := id.New(), id.New()

	_, err := f.svc.Create(ctx, unitA, f.water.ID, id.New(), 1, "")
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, unitB, f.water.ID, id.New(), 2, "")
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	forA, err := f.svc.List(ctx, ListFilter{UnitID: &unitA})
	require.NoError(t, err)
	require.Len(t, forA, 1)
	assert.Equal(t, unitA, forA[0].UnitID)

	pending := StatusPending
	byStatus, err := f.svc.List(ctx, ListFilter{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)
}
