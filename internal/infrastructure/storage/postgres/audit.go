package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "stockyard/internal/core/context"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// auditChanges is the persisted shape of an entry's before/after state.
type auditChanges struct {
	Old map[string]any `json:"old,omitempty"`
	New map[string]any `json:"new,omitempty"`
}

// AuditRecord is a stored audit entry as read back from sys_audit.
type AuditRecord struct {
	ID          id.ID           `db:"id"`
	Action      audit.Action    `db:"action"`
	ProductID   *id.ID          `db:"product_id"`
	SubjectType string          `db:"subject_type"`
	SubjectID   id.ID           `db:"subject_id"`
	ActorID     id.ID           `db:"actor_id"`
	Changes     json.RawMessage `db:"changes"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
}

// AuditSink persists audit entries to sys_audit. It writes through the
// TxManager querier, so entries recorded inside a transaction commit or
// roll back together with the stock movement they describe.
//
// Large change payloads are compressed with zstd past a 10KB threshold.
type AuditSink struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Sink = (*AuditSink)(nil)

// NewAuditSink creates a new audit sink.
func NewAuditSink(txManager *TxManager) (*AuditSink, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditSink{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record persists a single audit entry.
func (s *AuditSink) Record(ctx context.Context, entry audit.Entry) error {
	if id.IsNil(entry.ActorID) {
		entry.ActorID = appctx.GetActorID(ctx)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	changes, err := json.Marshal(auditChanges{Old: entry.OldValues, New: entry.NewValues})
	if err != nil {
		return fmt.Errorf("marshal audit changes: %w", err)
	}

	var compressed []byte
	algo := CompressionNone
	if len(changes) > s.compressThreshold {
		compressed = s.encoder.EncodeAll(changes, nil)
		changes = nil
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO sys_audit (
			id, action, product_id, subject_type, subject_id, actor_id,
			changes, changes_compressed, compression_algo, description,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err = querier.Exec(ctx, sql,
		id.New(), entry.Action, entry.ProductID,
		entry.SubjectType, entry.SubjectID, entry.ActorID,
		changes, compressed, algo, entry.Description,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// SubjectHistory retrieves audit entries for a document, newest first.
func (s *AuditSink) SubjectHistory(ctx context.Context, subjectType string, subjectID id.ID, limit int) ([]AuditRecord, error) {
	sql := `
		SELECT id, action, product_id, subject_type, subject_id, actor_id,
		       changes, changes_compressed, compression_algo, description,
		       created_at
		FROM sys_audit
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	return s.queryHistory(ctx, sql, subjectType, subjectID, limit)
}

// ProductHistory retrieves stock movement entries for a product, newest first.
func (s *AuditSink) ProductHistory(ctx context.Context, productID id.ID, limit int) ([]AuditRecord, error) {
	sql := `
		SELECT id, action, product_id, subject_type, subject_id, actor_id,
		       changes, changes_compressed, compression_algo, description,
		       created_at
		FROM sys_audit
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return s.queryHistory(ctx, sql, productID, limit)
}

func (s *AuditSink) queryHistory(ctx context.Context, sql string, args ...any) ([]AuditRecord, error) {
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var r AuditRecord
		var compressed []byte
		var algo CompressionAlgo
		err := rows.Scan(
			&r.ID, &r.Action, &r.ProductID, &r.SubjectType, &r.SubjectID, &r.ActorID,
			&r.Changes, &compressed, &algo, &r.Description,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if algo == CompressionZstd && len(compressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit changes: %w", err)
			}
			r.Changes = decompressed
		}

		records = append(records, r)
	}

	return records, rows.Err()
}
