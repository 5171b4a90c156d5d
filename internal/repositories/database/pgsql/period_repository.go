package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	"github.com/quillbooks/quillbooks/internal/models"
	"github.com/quillbooks/quillbooks/internal/utils/mapping"
)

const periodColumns = `period_id, company_id, name, start_date, end_date, is_locked, lock_reason, locked_by, locked_at, unlocked_by, unlocked_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxPeriodRepository struct {
	BaseRepository
}

// newPgxPeriodRepository creates a new repository for accounting periods.
func newPgxPeriodRepository(pool *pgxpool.Pool) portsrepo.PeriodRepositoryFacade {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

func scanPeriod(row pgx.Row) (*models.AccountingPeriod, error) {
	var m models.AccountingPeriod
	err := row.Scan(
		&m.PeriodID,
		&m.CompanyID,
		&m.Name,
		&m.StartDate,
		&m.EndDate,
		&m.IsLocked,
		&m.LockReason,
		&m.LockedBy,
		&m.LockedAt,
		&m.UnlockedBy,
		&m.UnlockedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SavePeriod persists a new accounting period.
func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.AccountingPeriod) error {
	m := mapping.ToModelPeriod(period)

	query := `
		INSERT INTO accounting_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.PeriodID,
		m.CompanyID,
		m.Name,
		m.StartDate,
		m.EndDate,
		m.IsLocked,
		m.LockReason,
		m.LockedBy,
		m.LockedAt,
		m.UnlockedBy,
		m.UnlockedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: period %s already exists", apperrors.ErrDuplicate, m.PeriodID)
		}
		return fmt.Errorf("failed to save period %s: %w", m.PeriodID, err)
	}
	return nil
}

// FindPeriodByID retrieves a specific accounting period.
func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE period_id = $1;`

	m, err := scanPeriod(r.Pool.QueryRow(ctx, query, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find period by ID %s: %w", periodID, err)
	}

	period := mapping.ToDomainPeriod(*m)
	return &period, nil
}

// ListPeriodsByCompany retrieves all periods of a company ordered by start date.
func (r *PgxPeriodRepository) ListPeriodsByCompany(ctx context.Context, companyID string) ([]domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE company_id = $1 ORDER BY start_date;`

	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods for company %s: %w", companyID, err)
	}
	defer rows.Close()

	periods := []models.AccountingPeriod{}
	for rows.Next() {
		m, scanErr := scanPeriod(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan period row for company %s: %w", companyID, scanErr)
		}
		periods = append(periods, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating period rows for company %s: %w", companyID, err)
	}

	return mapping.ToDomainPeriodSlice(periods), nil
}

// FindOverlappingPeriod returns any existing period of the company sharing at
// least one calendar day with [start, end], or apperrors.ErrNotFound. Bounds
// compare as dates so contiguous periods leave no uncovered instants.
func (r *PgxPeriodRepository) FindOverlappingPeriod(ctx context.Context, companyID string, start, end time.Time) (*domain.AccountingPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM accounting_periods
		WHERE company_id = $1
		AND (start_date AT TIME ZONE 'UTC')::date <= ($3 AT TIME ZONE 'UTC')::date
		AND (end_date AT TIME ZONE 'UTC')::date >= ($2 AT TIME ZONE 'UTC')::date
		LIMIT 1;
	`
	m, err := scanPeriod(r.Pool.QueryRow(ctx, query, companyID, start, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find overlapping period for company %s: %w", companyID, err)
	}

	period := mapping.ToDomainPeriod(*m)
	return &period, nil
}

// IsDateLocked reports whether the date falls inside a locked period of the
// company. Membership is by calendar day: a posting timestamped late on a
// period's end date is still inside the period.
func (r *PgxPeriodRepository) IsDateLocked(ctx context.Context, companyID string, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM accounting_periods
			WHERE company_id = $1 AND is_locked = TRUE
			AND ($2 AT TIME ZONE 'UTC')::date
			    BETWEEN (start_date AT TIME ZONE 'UTC')::date
			    AND (end_date AT TIME ZONE 'UTC')::date
		);
	`
	var locked bool
	if err := r.Pool.QueryRow(ctx, query, companyID, date).Scan(&locked); err != nil {
		return false, fmt.Errorf("failed to check period lock for company %s: %w", companyID, err)
	}
	return locked, nil
}

// SetPeriodLockState toggles the lock flag. The conditional expectedLocked
// guard rejects a double lock or double unlock with apperrors.ErrConflict.
func (r *PgxPeriodRepository) SetPeriodLockState(ctx context.Context, periodID string, expectedLocked, locked bool, reason, userID string, now time.Time) error {
	var query string
	if locked {
		query = `
			UPDATE accounting_periods
			SET is_locked = TRUE, lock_reason = $2, locked_by = $3, locked_at = $4, last_updated_at = $4, last_updated_by = $3
			WHERE period_id = $1 AND is_locked = $5;
		`
	} else {
		query = `
			UPDATE accounting_periods
			SET is_locked = FALSE, lock_reason = $2, unlocked_by = $3, unlocked_at = $4, last_updated_at = $4, last_updated_by = $3
			WHERE period_id = $1 AND is_locked = $5;
		`
	}

	cmdTag, err := r.Pool.Exec(ctx, query, periodID, reason, userID, now, expectedLocked)
	if err != nil {
		return fmt.Errorf("failed to set lock state of period %s: %w", periodID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindPeriodByID(ctx, periodID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: period %s lock state changed concurrently", apperrors.ErrConflict, periodID)
	}
	return nil
}
