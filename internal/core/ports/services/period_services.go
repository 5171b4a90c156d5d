package services

import (
	"context"
	"time"

	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/dto"
)

// PeriodSvcFacade manages accounting period locks. It performs no ledger
// mutation itself; the ledger engine consults IsDateLocked at post time.
type PeriodSvcFacade interface {
	CreatePeriod(ctx context.Context, companyID string, req dto.CreatePeriodRequest, userID string) (*domain.AccountingPeriod, error)
	ListPeriods(ctx context.Context, companyID string) ([]domain.AccountingPeriod, error)

	// LockPeriod closes a period. The reason is mandatory.
	LockPeriod(ctx context.Context, companyID string, periodID string, reason string, userID string) (*domain.AccountingPeriod, error)

	// UnlockPeriod reopens a period. The reason is mandatory.
	UnlockPeriod(ctx context.Context, companyID string, periodID string, reason string, userID string) (*domain.AccountingPeriod, error)

	// IsDateLocked reports whether a posting dated d would be rejected.
	IsDateLocked(ctx context.Context, companyID string, d time.Time) (bool, error)
}
