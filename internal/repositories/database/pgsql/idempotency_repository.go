package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	"github.com/quillbooks/quillbooks/internal/models"
	"github.com/quillbooks/quillbooks/internal/utils/mapping"
)

type PgxIdempotencyRepository struct {
	BaseRepository
}

// newPgxIdempotencyRepository creates a new repository for idempotency records.
// The unique index on (company_id, operation_kind, key) is what makes the
// check-and-set atomic; this repository never reads before writing.
func newPgxIdempotencyRepository(pool *pgxpool.Pool) portsrepo.IdempotencyRepository {
	return &PgxIdempotencyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.IdempotencyRepository = (*PgxIdempotencyRepository)(nil)

// FindRecord retrieves a live (unexpired) record.
func (r *PgxIdempotencyRepository) FindRecord(ctx context.Context, companyID string, kind domain.OperationKind, key string) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT company_id, operation_kind, key, result_id, created_at, expires_at
		FROM idempotency_keys
		WHERE company_id = $1 AND operation_kind = $2 AND key = $3 AND expires_at > NOW();
	`
	var m models.IdempotencyKey
	err := r.Pool.QueryRow(ctx, query, companyID, string(kind), key).Scan(
		&m.CompanyID,
		&m.OperationKind,
		&m.Key,
		&m.ResultID,
		&m.CreatedAt,
		&m.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find idempotency record: %w", err)
	}

	record := mapping.ToDomainIdempotencyRecord(m)
	return &record, nil
}

// InsertRecord stores a completed operation result. A live key collision
// returns apperrors.ErrDuplicate; expired rows are re-claimed in place.
func (r *PgxIdempotencyRepository) InsertRecord(ctx context.Context, record domain.IdempotencyRecord) error {
	m := mapping.ToModelIdempotencyKey(record)

	query := `
		INSERT INTO idempotency_keys (company_id, operation_kind, key, result_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, operation_kind, key) DO UPDATE
		SET result_id = EXCLUDED.result_id, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
		WHERE idempotency_keys.expires_at <= EXCLUDED.created_at;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.CompanyID,
		m.OperationKind,
		m.Key,
		m.ResultID,
		m.CreatedAt,
		m.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert idempotency record: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: idempotency key already recorded", apperrors.ErrDuplicate)
	}
	return nil
}

// DeleteExpired removes records past their expiry. Called opportunistically;
// there is no background scheduler.
func (r *PgxIdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= NOW();`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired idempotency records: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
