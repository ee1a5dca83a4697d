package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/replenishment"
	"stockyard/internal/infrastructure/storage/postgres"
)

const replenishmentBatchesTable = "doc_replenishment_batches"

// ReplenishmentRepo implements replenishment.Repository.
type ReplenishmentRepo struct {
	*BaseDocumentRepo[*replenishment.Batch]
}

var _ replenishment.Repository = (*ReplenishmentRepo)(nil)

// NewReplenishmentRepo creates a new replenishment batch repository.
func NewReplenishmentRepo(txManager *postgres.TxManager) *ReplenishmentRepo {
	return &ReplenishmentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			replenishmentBatchesTable,
			postgres.ExtractDBColumns[replenishment.Batch](),
			func() *replenishment.Batch { return &replenishment.Batch{} },
		),
	}
}

// ListByProduct retrieves batches for a product, newest first.
func (r *ReplenishmentRepo) ListByProduct(ctx context.Context, productID id.ID, limit, offset int) ([]*replenishment.Batch, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("date DESC")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*replenishment.Batch
	if err := pgxscan.Select(ctx, r.Querier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	return batches, nil
}
