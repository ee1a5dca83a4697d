// Package inventory assembles display views of ledger balances joined
// with the product catalog, including virtual rows for unit-produced
// products that never touch the ledger.
package inventory

import (
	"context"
	"sort"

	"stockyard/internal/core/id"
	"stockyard/internal/domain"
	"stockyard/internal/domain/catalog/product"
	"stockyard/internal/domain/filter"
	"stockyard/internal/domain/ledger"
)

// Row is one line of an inventory listing.
type Row struct {
	Product           *product.Product `json:"product"`
	Quantity          int64            `json:"quantity"`
	Formatted         string           `json:"formatted"`
	LowStockThreshold int64            `json:"lowStockThreshold"`
	Low               bool             `json:"low"`

	// Virtual rows represent unit-produced products with unlimited
	// on-site stock
	Virtual bool `json:"virtual"`
}

// BalanceSource reads ledger balances.
type BalanceSource interface {
	ListBalances(ctx context.Context, scope ledger.Scope) ([]ledger.Balance, error)
}

// ProductLookup reads the product catalog.
type ProductLookup interface {
	GetByID(ctx context.Context, id id.ID) (*product.Product, error)
	List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*product.Product], error)
}

// Service builds inventory views.
type Service struct {
	balances BalanceSource
	products ProductLookup
}

// NewService creates a new inventory view service.
func NewService(balances BalanceSource, products ProductLookup) *Service {
	return &Service{balances: balances, products: products}
}

// UnitInventory lists a unit's stock: one row per ledger balance plus
// a virtual zero-quantity row per unit-produced product.
func (s *Service) UnitInventory(ctx context.Context, unitID id.ID) ([]Row, error) {
	balances, err := s.balances.ListBalances(ctx, ledger.Inventory(unitID))
	if err != nil {
		return nil, err
	}

	rows, seen, err := s.join(ctx, balances)
	if err != nil {
		return nil, err
	}

	produced, err := s.products.List(ctx, domain.ListFilter{
		AdvancedFilters: []filter.Item{{
			Field:    "source_type",
			Operator: filter.Equal,
			Value:    string(product.SourceUnitProduced),
		}},
		OrderBy: "name",
		Limit:   500,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range produced.Items {
		if seen[p.ID] {
			continue
		}
		rows = append(rows, Row{
			Product:   p,
			Quantity:  0,
			Formatted: p.FormatQuantity(0),
			Virtual:   true,
		})
	}

	sortRows(rows)
	return rows, nil
}

// CentralStock lists central warehouse balances.
func (s *Service) CentralStock(ctx context.Context) ([]Row, error) {
	balances, err := s.balances.ListBalances(ctx, ledger.Central())
	if err != nil {
		return nil, err
	}
	rows, _, err := s.join(ctx, balances)
	if err != nil {
		return nil, err
	}
	sortRows(rows)
	return rows, nil
}

func (s *Service) join(ctx context.Context, balances []ledger.Balance) ([]Row, map[id.ID]bool, error) {
	rows := make([]Row, 0, len(balances))
	seen := make(map[id.ID]bool, len(balances))

	for _, b := range balances {
		p, err := s.products.GetByID(ctx, b.ProductID)
		if err != nil {
			return nil, nil, err
		}
		seen[b.ProductID] = true
		rows = append(rows, Row{
			Product:           p,
			Quantity:          b.Quantity,
			Formatted:         p.FormatQuantity(b.Quantity),
			LowStockThreshold: b.LowStockThreshold,
			Low:               b.IsLow(),
		})
	}
	return rows, seen, nil
}

func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Product.Name < rows[j].Product.Name
	})
}
