package repositories

import (
	"context"

	"github.com/quillbooks/quillbooks/internal/core/domain"
)

// IdempotencyRepository is the durable check-and-set store behind retried
// mutating requests. The unique index on (company, operation kind, key) is the
// single point of serialization for duplicate requests.
type IdempotencyRepository interface {
	// FindRecord retrieves a live (unexpired) record, or apperrors.ErrNotFound.
	FindRecord(ctx context.Context, companyID string, kind domain.OperationKind, key string) (*domain.IdempotencyRecord, error)

	// InsertRecord stores a completed operation result. A key collision
	// returns apperrors.ErrDuplicate.
	InsertRecord(ctx context.Context, record domain.IdempotencyRecord) error

	// DeleteExpired removes records past their expiry. Called opportunistically;
	// there is no background scheduler.
	DeleteExpired(ctx context.Context) (int64, error)
}
