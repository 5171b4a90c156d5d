package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/dto"
	"github.com/quillbooks/quillbooks/internal/middleware"
)

var (
	ErrPeriodOverlap = errors.New("period overlaps an existing period")
	ErrEmptyReason   = errors.New("a reason is required to change a period lock")
)

type periodService struct {
	periodRepo portsrepo.PeriodRepositoryFacade
}

// NewPeriodService creates a new period service.
func NewPeriodService(periodRepo portsrepo.PeriodRepositoryFacade) portssvc.PeriodSvcFacade {
	return &periodService{periodRepo: periodRepo}
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

// CreatePeriod registers a new accounting period. Periods of one company may
// not overlap, counted in whole calendar days.
func (s *periodService) CreatePeriod(ctx context.Context, companyID string, req dto.CreatePeriodRequest, userID string) (*domain.AccountingPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// Bounds are calendar days; any time-of-day on the request is dropped so
	// lock checks and overlap checks see whole days.
	start := domain.DayStart(req.StartDate)
	end := domain.DayStart(req.EndDate)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date before start date", apperrors.ErrValidation)
	}

	existing, err := s.periodRepo.FindOverlappingPeriod(ctx, companyID, start, end)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check period overlap: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrPeriodOverlap, existing.Name)
	}

	now := time.Now().UTC()
	period := domain.AccountingPeriod{
		PeriodID:  uuid.NewString(),
		CompanyID: companyID,
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.periodRepo.SavePeriod(ctx, period); err != nil {
		logger.Error("Failed to save period", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save period: %w", err)
	}

	logger.Info("Accounting period created", slog.String("period_id", period.PeriodID), slog.String("name", period.Name))
	return &period, nil
}

// ListPeriods retrieves all periods of a company ordered by start date.
func (s *periodService) ListPeriods(ctx context.Context, companyID string) ([]domain.AccountingPeriod, error) {
	return s.periodRepo.ListPeriodsByCompany(ctx, companyID)
}

// LockPeriod closes a period against further postings.
func (s *periodService) LockPeriod(ctx context.Context, companyID string, periodID string, reason string, userID string) (*domain.AccountingPeriod, error) {
	return s.setLockState(ctx, companyID, periodID, reason, userID, true)
}

// UnlockPeriod reopens a locked period.
func (s *periodService) UnlockPeriod(ctx context.Context, companyID string, periodID string, reason string, userID string) (*domain.AccountingPeriod, error) {
	return s.setLockState(ctx, companyID, periodID, reason, userID, false)
}

func (s *periodService) setLockState(ctx context.Context, companyID, periodID, reason, userID string, locked bool) (*domain.AccountingPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(reason) == "" {
		return nil, ErrEmptyReason
	}

	period, err := s.getCompanyPeriod(ctx, companyID, periodID)
	if err != nil {
		return nil, err
	}
	if period.IsLocked == locked {
		return nil, fmt.Errorf("%w: period is already in the requested state", apperrors.ErrConflict)
	}

	now := time.Now().UTC()
	if err := s.periodRepo.SetPeriodLockState(ctx, periodID, period.IsLocked, locked, reason, userID, now); err != nil {
		logger.Warn("Failed to change period lock state", slog.String("period_id", periodID), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Period lock state changed",
		slog.String("period_id", periodID),
		slog.Bool("locked", locked),
		slog.String("reason", reason))
	return s.getCompanyPeriod(ctx, companyID, periodID)
}

// IsDateLocked reports whether a posting dated d falls inside a locked period.
func (s *periodService) IsDateLocked(ctx context.Context, companyID string, d time.Time) (bool, error) {
	return s.periodRepo.IsDateLocked(ctx, companyID, domain.DayStart(d))
}

func (s *periodService) getCompanyPeriod(ctx context.Context, companyID, periodID string) (*domain.AccountingPeriod, error) {
	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	return period, nil
}
