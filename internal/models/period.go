package models

import "time"

// AccountingPeriod represents a date range that can be locked against postings.
type AccountingPeriod struct {
	PeriodID   string     `db:"period_id"`
	CompanyID  string     `db:"company_id"`
	Name       string     `db:"name"`
	StartDate  time.Time  `db:"start_date"`
	EndDate    time.Time  `db:"end_date"`
	IsLocked   bool       `db:"is_locked"`
	LockReason string     `db:"lock_reason"`
	LockedBy   string     `db:"locked_by"`
	LockedAt   *time.Time `db:"locked_at"`   // Nullable
	UnlockedBy string     `db:"unlocked_by"`
	UnlockedAt *time.Time `db:"unlocked_at"` // Nullable
	AuditFields
}
