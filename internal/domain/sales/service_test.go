package sales

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/audit"
	"stockyard/internal/domain/catalog/product"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/numerator"
)

type balKey struct {
	scope   ledger.Scope
	product id.ID
}

// memStore backs both the ledger and the sales repositories so a
// snapshotting transaction manager can roll everything back together.
type memStore struct {
	balances map[balKey]int64
	sales    map[id.ID]*Sale
	items    map[id.ID][]SaleItem
}

func newMemStore() *memStore {
	return &memStore{
		balances: make(map[balKey]int64),
		sales:    make(map[id.ID]*Sale),
		items:    make(map[id.ID][]SaleItem),
	}
}

func (m *memStore) snapshot() *memStore {
	cp := newMemStore()
	for k, v := range m.balances {
		cp.balances[k] = v
	}
	for k, v := range m.sales {
		s := *v
		cp.sales[k] = &s
	}
	for k, v := range m.items {
		cp.items[k] = append([]SaleItem(nil), v...)
	}
	return cp
}

func (m *memStore) restore(snap *memStore) {
	m.balances = snap.balances
	m.sales = snap.sales
	m.items = snap.items
}

// ledger.Repository

func (m *memStore) GetForUpdate(ctx context.Context, scope ledger.Scope, productID id.ID) (int64, bool, error) {
	qty, ok := m.balances[balKey{scope, productID}]
	return qty, ok, nil
}

func (m *memStore) EnsureRow(ctx context.Context, scope ledger.Scope, productID id.ID) error {
	key := balKey{scope, productID}
	if _, ok := m.balances[key]; !ok {
		m.balances[key] = 0
	}
	return nil
}

func (m *memStore) Get(ctx context.Context, scope ledger.Scope, productID id.ID) (int64, error) {
	return m.balances[balKey{scope, productID}], nil
}

func (m *memStore) Upsert(ctx context.Context, scope ledger.Scope, productID id.ID, qty int64) error {
	m.balances[balKey{scope, productID}] = qty
	return nil
}

func (m *memStore) ListByScope(ctx context.Context, scope ledger.Scope) ([]ledger.Balance, error) {
	var out []ledger.Balance
	for k, v := range m.balances {
		if k.scope == scope {
			out = append(out, ledger.Balance{Scope: scope, ProductID: k.product, Quantity: v})
		}
	}
	return out, nil
}

func (m *memStore) SetLowStockThreshold(ctx context.Context, scope ledger.Scope, productID id.ID, threshold int64) error {
	return nil
}

// sales.Repository

func (m *memStore) Create(ctx context.Context, sale *Sale) error {
	cp := *sale
	m.sales[sale.ID] = &cp
	return nil
}

func (m *memStore) SaveItems(ctx context.Context, saleID id.ID, items []SaleItem) error {
	m.items[saleID] = append(m.items[saleID], items...)
	return nil
}

func (m *memStore) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, ok := m.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	cp := *sale
	cp.Items = append([]SaleItem(nil), m.items[saleID]...)
	return &cp, nil
}

func (m *memStore) GetForUpdateSale(ctx context.Context, saleID id.ID) (*Sale, error) {
	return m.GetByID(ctx, saleID)
}

func (m *memStore) UpdateTotals(ctx context.Context, sale *Sale) error {
	stored, ok := m.sales[sale.ID]
	if !ok {
		return apperror.NewNotFound("sale", sale.ID.String())
	}
	stored.TotalAmount = sale.TotalAmount
	stored.Version = sale.Version
	return nil
}

func (m *memStore) ConfirmPayment(ctx context.Context, sale *Sale) (bool, error) {
	stored, ok := m.sales[sale.ID]
	if !ok || stored.PaymentStatus != PaymentPending {
		return false, nil
	}
	cp := *sale
	m.sales[sale.ID] = &cp
	return true, nil
}

func (m *memStore) List(ctx context.Context, f ListFilter) ([]*Sale, error) {
	var out []*Sale
	for _, sale := range m.sales {
		if f.UnitID != nil && sale.UnitID != *f.UnitID {
			continue
		}
		if f.Status != nil && sale.PaymentStatus != *f.Status {
			continue
		}
		cp := *sale
		cp.Items = append([]SaleItem(nil), m.items[sale.ID]...)
		out = append(out, &cp)
	}
	return out, nil
}

// salesRepo adapts memStore to the sales Repository signature (the
// store exposes two different GetForUpdate shapes).
type salesRepo struct{ *memStore }

func (r salesRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error) {
	return r.memStore.GetForUpdateSale(ctx, saleID)
}

// snapshotTx restores the store when the function fails, mimicking a
// database rollback.
type snapshotTx struct{ store *memStore }

func (t snapshotTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
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

type fixture struct {
	svc    *Service
	store  *memStore
	sink   *recordingSink
	water  *product.Product
	juice  *product.Product
	unitID id.ID
}

func newFixture(instantMethods ...string) *fixture {
	water := product.New("Bottled Water", "BW-1", product.TypeSet, product.SourceCentralStock)
	water.ItemsPerSet = 12
	water.Uom, water.UomPlural = "bottle", "bottles"
	water.SetUom = "set"
	water.SellingPrice = types.MustMoney("2.50")

	juice := product.New("Fresh Juice", "FJ-1", product.TypeIndividual, product.SourceUnitProduced)
	juice.Uom = "glass"
	juice.SellingPrice = types.MustMoney("4.00")

	store := newMemStore()
	sink := &recordingSink{}
	txm := snapshotTx{store: store}

	ledgerSvc := ledger.NewService(store, txm, sink)
	svc := NewService(
		salesRepo{store},
		ledgerSvc,
		&fakeProducts{byID: map[id.ID]*product.Product{water.ID: water, juice.ID: juice}},
		NewPaymentPolicy(instantMethods),
		sink,
		numerator.New(&seqQuerier{}),
		txm,
	)

	f := &fixture{svc: svc, store: store, sink: sink, water: water, juice: juice, unitID: id.New()}
	store.balances[balKey{ledger.Inventory(f.unitID), water.ID}] = 24
	return f
}

func TestCheckout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sale, err := f.svc.Checkout(ctx, CheckoutParams{
		UnitID:        f.unitID,
		SellerID:      id.New(),
		PaymentMethod: "cash",
		Lines: []CheckoutLine{
			{ProductID: f.water.ID, Quantity: 10},
			{ProductID: f.juice.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^INV-\d{4}-00001$`, sale.Number)
	assert.True(t, sale.TotalAmount.Equal(types.MustMoney("33.00")))
	assert.Len(t, sale.Items, 2)

	// Cash settles instantly under the default policy.
	assert.Equal(t, PaymentConfirmed, sale.PaymentStatus)
	require.NotNil(t, sale.ConfirmedAt)

	// Stock moved only for the trackable product.
	qty, _ := f.store.Get(ctx, ledger.Inventory(f.unitID), f.water.ID)
	assert.Equal(t, int64(14), qty)
}

func TestCheckout_LineUnitPriceOverride(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	discounted := types.MustMoney("1.75")
	sale, err := f.svc.Checkout(ctx, CheckoutParams{
		UnitID:        f.unitID,
		SellerID:      id.New(),
		PaymentMethod: "cash",
		Lines: []CheckoutLine{
			{ProductID: f.water.ID, Quantity: 4, UnitPrice: &discounted},
			{ProductID: f.juice.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	// 4 * 1.75 at the override price + 1 * 4.00 from the catalog.
	assert.True(t, sale.TotalAmount.Equal(types.MustMoney("11.00")))
	require.Len(t, sale.Items, 2)
	assert.True(t, sale.Items[0].UnitPrice.Equal(discounted))
	assert.True(t, sale.Items[1].UnitPrice.Equal(f.juice.SellingPrice))
}

func TestCheckout_PendingForNonInstantMethod(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sale, err := f.svc.Checkout(ctx, CheckoutParams{
		UnitID:        f.unitID,
		SellerID:      id.New(),
		PaymentMethod: "bank_transfer",
		Lines:         []CheckoutLine{{ProductID: f.water.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, PaymentPending, sale.PaymentStatus)
	assert.Nil(t, sale.ConfirmedAt)
}

func TestCheckout_InsufficientStockAbortsWholeSale(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// First line fits, second does not: nothing may change.
	_, err := f.svc.Checkout(ctx, CheckoutParams{
		UnitID:        f.unitID,
		SellerID:      id.New(),
		PaymentMethod: "cash",
		Lines: []CheckoutLine{
			{ProductID: f.water.ID, Quantity: 20},
			{ProductID: f.water.ID, Quantity: 20},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	qty, _ := f.store.Get(ctx, ledger.Inventory(f.unitID), f.water.ID)
	assert.Equal(t, int64(24), qty)
	assert.Empty(t, f.store.sales)
	assert.Empty(t, f.store.items)
}

func TestAppendItems(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sale, err := f.svc.Checkout(ctx, CheckoutParams{
		UnitID:        f.unitID,
		SellerID:      id.New(),
		PaymentMethod: "bank_transfer",
		Lines:         []CheckoutLine{{ProductID: f.water.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	updated, err := f.svc.AppendItems(ctx, sale.ID, []CheckoutLine{{ProductID: f.water.ID, Quantity: 3}})
	require.NoError(t, err)
	assert.Len(t, updated.Items, 2)
	assert.True(t, updated.TotalAmount.Equal(types.MustMoney("12.50")))

	qty, _ := f.store.Get(ctx, ledger.Inventory(f.unitID), f.water.ID)
	assert.Equal(t, int64(19), qty)
}

func TestAppendItems_PaidSaleIsFrozen(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sale, err := f.svc.Checkout(ctx, CheckoutParams{
		UnitID:        f.unitID,
		SellerID:      id.New(),
		PaymentMethod: "cash",
		Lines:         []CheckoutLine{{ProductID: f.water.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.svc.AppendItems(ctx, sale.ID, []CheckoutLine{{ProductID: f.water.ID, Quantity: 1}})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStateTransition, appErr.Code)

	// The frozen sale kept its single item and stock is untouched.
	qty, _ := f.store.Get(ctx, ledger.Inventory(f.unitID), f.water.ID)
	assert.Equal(t, int64(23), qty)
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sale, err := f.svc.Checkout(ctx, CheckoutParams{
		UnitID:        f.unitID,
		SellerID:      id.New(),
		PaymentMethod: "bank_transfer",
		Lines:         []CheckoutLine{{ProductID: f.water.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmPayment(ctx, sale.ID, id.New(), "TXN-778")
	require.NoError(t, err)
	assert.Equal(t, PaymentConfirmed, confirmed.PaymentStatus)
	assert.Equal(t, "TXN-778", confirmed.PaymentRef)
	require.NotNil(t, confirmed.ConfirmedAt)

	// Confirming twice fails.
	_, err = f.svc.ConfirmPayment(ctx, sale.ID, id.New(), "TXN-779")
	require.Error(t, err)
}

func TestList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, CheckoutParams{
		UnitID:        f.unitID,
		SellerID:      id.New(),
		PaymentMethod: "cash",
		Lines:         []CheckoutLine{{ProductID: f.water.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	otherUnit := id.New()
	sales, err := f.svc.List(ctx, ListFilter{UnitID: &f.unitID})
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	sales, err = f.svc.List(ctx, ListFilter{UnitID: &otherUnit})
	require.NoError(t, err)
	assert.Empty(t, sales)
}
