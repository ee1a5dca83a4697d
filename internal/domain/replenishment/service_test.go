package replenishment

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/catalog/product"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/numerator"
)

type memoryRepo struct {
	batches map[id.ID]*Batch
}

func (r *memoryRepo) Create(ctx context.Context, batch *Batch) error {
	cp := *batch
	r.batches[batch.ID] = &cp
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, batchID id.ID) (*Batch, error) {
	b, ok := r.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("replenishment_batch", batchID.String())
	}
	cp := *b
	return &cp, nil
}

func (r *memoryRepo) ListByProduct(ctx context.Context, productID id.ID, limit, offset int) ([]*Batch, error) {
	var out []*Batch
	for _, b := range r.batches {
		if b.ProductID == productID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeAdjuster struct {
	movements []ledger.Movement
}

func (a *fakeAdjuster) Adjust(ctx context.Context, m ledger.Movement) (ledger.Adjustment, error) {
	a.movements = append(a.movements, m)
	return ledger.Adjustment{NewQuantity: m.Delta}, nil
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
	q.counters[key]++
	return seqRow{val: q.counters[key]}
}

func newFixture() (*Service, *memoryRepo, *fakeAdjuster, *product.Product, *product.Product) {
	water := product.New("Bottled Water", "BW-1", product.TypeSet, product.SourceCentralStock)
	water.ItemsPerSet = 12
	water.Uom, water.UomPlural = "bottle", "bottles"
	water.SetUom = "set"

	juice := product.New("Fresh Juice", "FJ-1", product.TypeIndividual, product.SourceUnitProduced)
	juice.Uom = "glass"

	repo := &memoryRepo{batches: make(map[id.ID]*Batch)}
	adjuster := &fakeAdjuster{}
	svc := NewService(
		repo,
		adjuster,
		&fakeProducts{byID: map[id.ID]*product.Product{water.ID: water, juice.ID: juice}},
		numerator.New(&seqQuerier{}),
		passthroughTx{},
	)
	return svc, repo, adjuster, water, juice
}

func TestReplenish(t *testing.T) {
	svc, repo, adjuster, water, _ := newFixture()
	ctx := context.Background()

	batch, err := svc.Replenish(ctx, water.ID, id.New(), 120, "", "supplier delivery")
	require.NoError(t, err)
	assert.Regexp(t, `^BATCH-\d{8}-0001$`, batch.Number)
	assert.Equal(t, int64(120), batch.QuantityItems)

	require.Len(t, adjuster.movements, 1)
	m := adjuster.movements[0]
	assert.Equal(t, ledger.Central(), m.Scope)
	assert.Equal(t, int64(120), m.Delta)
	assert.Equal(t, "replenishment_batch", m.SubjectType)
	assert.Equal(t, batch.ID, m.SubjectID)

	stored, err := repo.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.Number, stored.Number)
}

func TestReplenish_ExplicitBatchNumber(t *testing.T) {
	svc, _, _, water, _ := newFixture()

	batch, err := svc.Replenish(context.Background(), water.ID, id.New(), 12, "BATCH-20260830-0099", "")
	require.NoError(t, err)
	assert.Equal(t, "BATCH-20260830-0099", batch.Number)
}

func TestReplenish_Invalid(t *testing.T) {
	svc, _, adjuster, water, juice := newFixture()
	ctx := context.Background()

	_, err := svc.Replenish(ctx, water.ID, id.New(), 0, "", "")
	assert.Error(t, err)

	_, err = svc.Replenish(ctx, juice.ID, id.New(), 10, "", "")
	assert.Error(t, err)

	assert.Empty(t, adjuster.movements)
}
