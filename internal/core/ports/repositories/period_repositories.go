package repositories

import (
	"context"
	"time"

	"github.com/quillbooks/quillbooks/internal/core/domain"
)

// PeriodReader defines read operations for accounting periods.
type PeriodReader interface {
	// FindPeriodByID retrieves a specific accounting period.
	FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)

	// ListPeriodsByCompany retrieves all periods of a company ordered by start date.
	ListPeriodsByCompany(ctx context.Context, companyID string) ([]domain.AccountingPeriod, error)

	// FindOverlappingPeriod returns any existing period of the company sharing
	// at least one day with [start, end], or nil.
	FindOverlappingPeriod(ctx context.Context, companyID string, start, end time.Time) (*domain.AccountingPeriod, error)

	// IsDateLocked reports whether the date falls inside a locked period of the company.
	IsDateLocked(ctx context.Context, companyID string, date time.Time) (bool, error)
}

// PeriodWriter defines write operations for accounting periods.
type PeriodWriter interface {
	// SavePeriod persists a new accounting period.
	SavePeriod(ctx context.Context, period domain.AccountingPeriod) error

	// SetPeriodLockState toggles the lock. The conditional expectedLocked guard
	// rejects double lock/unlock with apperrors.ErrConflict.
	SetPeriodLockState(ctx context.Context, periodID string, expectedLocked, locked bool, reason, userID string, now time.Time) error
}

// PeriodRepositoryFacade combines period read and write interfaces.
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
}
