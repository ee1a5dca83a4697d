package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain"
	"stockyard/internal/domain/catalog/product"
	"stockyard/internal/domain/ledger"
)

type fakeBalances struct {
	byScope map[ledger.Scope][]ledger.Balance
}

func (f *fakeBalances) ListBalances(ctx context.Context, scope ledger.Scope) ([]ledger.Balance, error) {
	return f.byScope[scope], nil
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

func (f *fakeProducts) List(ctx context.Context, lf domain.ListFilter) (domain.ListResult[*product.Product], error) {
	var items []*product.Product
	for _, p := range f.byID {
		if len(lf.AdvancedFilters) > 0 {
			if lf.AdvancedFilters[0].Value == string(product.SourceUnitProduced) && !p.IsUnitProduced() {
				continue
			}
		}
		items = append(items, p)
	}
	return domain.ListResult[*product.Product]{Items: items, TotalCount: int64(len(items))}, nil
}

func bottledWater() *product.Product {
	p := product.New("Bottled Water", "BW-1", product.TypeSet, product.SourceCentralStock)
	p.ItemsPerSet = 12
	p.Uom, p.UomPlural = "bottle", "bottles"
	p.SetUom, p.SetUomPlural = "set", "sets"
	return p
}

func freshJuice() *product.Product {
	p := product.New("Fresh Juice", "FJ-1", product.TypeIndividual, product.SourceUnitProduced)
	p.Uom, p.UomPlural = "glass", "glasses"
	return p
}

func TestUnitInventory_VirtualRows(t *testing.T) {
	water := bottledWater()
	juice := freshJuice()
	unitID := id.New()

	balances := &fakeBalances{byScope: map[ledger.Scope][]ledger.Balance{
		ledger.Inventory(unitID): {
			{Scope: ledger.Inventory(unitID), ProductID: water.ID, Quantity: 14, LowStockThreshold: 20},
		},
	}}
	products := &fakeProducts{byID: map[id.ID]*product.Product{
		water.ID: water,
		juice.ID: juice,
	}}

	svc := NewService(balances, products)
	rows, err := svc.UnitInventory(context.Background(), unitID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Sorted by name: Bottled Water, Fresh Juice.
	assert.Equal(t, water.ID, rows[0].Product.ID)
	assert.Equal(t, int64(14), rows[0].Quantity)
	assert.Equal(t, "1 set, 2 bottles", rows[0].Formatted)
	assert.True(t, rows[0].Low)
	assert.False(t, rows[0].Virtual)

	assert.Equal(t, juice.ID, rows[1].Product.ID)
	assert.True(t, rows[1].Virtual)
	assert.Equal(t, int64(0), rows[1].Quantity)
	assert.Equal(t, "0 glasses", rows[1].Formatted)
}

func TestCentralStock(t *testing.T) {
	water := bottledWater()

	balances := &fakeBalances{byScope: map[ledger.Scope][]ledger.Balance{
		ledger.Central(): {
			{Scope: ledger.Central(), ProductID: water.ID, Quantity: 120},
		},
	}}
	products := &fakeProducts{byID: map[id.ID]*product.Product{water.ID: water}}

	svc := NewService(balances, products)
	rows, err := svc.CentralStock(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "10 sets", rows[0].Formatted)
	assert.False(t, rows[0].Low)
}
