package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"shopledger/internal/core/apperror"
	"shopledger/internal/domain/audit"
)

const auditTable = "audit_events"

// Compression algorithms for stored payloads.
const (
	compressionNone = "none"
	compressionZstd = "zstd"
)

// AuditRepo implements audit.Repository with zstd compression for large
// payloads.
type AuditRepo struct {
	txm               *TxManager
	builder           squirrel.StatementBuilderType
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(txm *TxManager) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditRepo{
		txm:               txm,
		builder:           squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// Insert appends one event.
func (r *AuditRepo) Insert(ctx context.Context, event audit.Event) error {
	info := event.AdditionalInfo
	var compressed []byte
	algo := compressionNone

	if len(info) > r.compressThreshold {
		compressed = r.encoder.EncodeAll(info, nil)
		info = nil
		algo = compressionZstd
	}

	q := r.builder.Insert(auditTable).
		Columns("id", "user_name", "detail", "event_category", "route",
			"additional_info", "info_compressed", "compression_algo", "timestamp").
		Values(event.ID, event.User, event.Detail, event.EventCategory,
			event.Route, info, compressed, algo, event.Timestamp)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewDatabase(fmt.Errorf("insert audit event: %w", err))
	}

	return nil
}

// List returns events matching the filter, newest first.
func (r *AuditRepo) List(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	q := r.builder.Select("id", "user_name", "detail", "event_category",
		"route", "additional_info", "info_compressed", "compression_algo", "timestamp").
		From(auditTable).
		OrderBy("timestamp DESC")

	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"event_category": filter.Category})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("select audit events: %w", err))
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e          audit.Event
			compressed []byte
			algo       string
		)
		if err := rows.Scan(&e.ID, &e.User, &e.Detail, &e.EventCategory,
			&e.Route, &e.AdditionalInfo, &compressed, &algo, &e.Timestamp); err != nil {
			return nil, apperror.NewDatabase(fmt.Errorf("scan audit event: %w", err))
		}

		if algo == compressionZstd && len(compressed) > 0 {
			decompressed, err := r.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit payload: %w", err)
			}
			e.AdditionalInfo = decompressed
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// Ensure interface compliance.
var _ audit.Repository = (*AuditRepo)(nil)
