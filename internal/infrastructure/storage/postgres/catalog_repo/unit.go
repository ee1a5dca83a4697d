package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/domain/catalog/unit"
	"stockyard/internal/infrastructure/storage/postgres"
)

const unitTable = "cat_units"

// UnitRepo implements unit.Repository.
type UnitRepo struct {
	*BaseCatalogRepo[*unit.Unit]
}

var _ unit.Repository = (*UnitRepo)(nil)

// NewUnitRepo creates a new unit repository.
func NewUnitRepo(txManager *postgres.TxManager) *UnitRepo {
	return &UnitRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			unitTable,
			postgres.ExtractDBColumns[unit.Unit](),
			func() *unit.Unit { return &unit.Unit{} },
		),
	}
}

// ListActive retrieves all active units.
func (r *UnitRepo) ListActive(ctx context.Context) ([]*unit.Unit, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var units []*unit.Unit
	if err := pgxscan.Select(ctx, r.Querier(ctx), &units, sql, args...); err != nil {
		return nil, fmt.Errorf("list active units: %w", err)
	}

	return units, nil
}
