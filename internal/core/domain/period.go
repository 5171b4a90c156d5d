package domain

import "time"

// AccountingPeriod is an administrative date range. Periods of one company are
// non-overlapping; a locked period rejects any posting dated inside it.
type AccountingPeriod struct {
	PeriodID   string     `json:"periodID"`
	CompanyID  string     `json:"companyID"`
	Name       string     `json:"name"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	IsLocked   bool       `json:"isLocked"`
	LockReason string     `json:"lockReason"`
	LockedBy   string     `json:"lockedBy"`
	LockedAt   *time.Time `json:"lockedAt,omitempty"`
	UnlockedBy string     `json:"unlockedBy"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
	AuditFields
}

// DayStart truncates t to midnight UTC. Period bounds and period membership
// checks work at calendar-day granularity, never at instants: a period ending
// on the 31st covers postings at any time of that day.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Contains reports whether d falls inside the period, bounds inclusive.
// Comparison is by calendar date, not instant.
func (p AccountingPeriod) Contains(d time.Time) bool {
	day := DayStart(d)
	return !day.Before(DayStart(p.StartDate)) && !day.After(DayStart(p.EndDate))
}

// Overlaps reports whether two periods share at least one day.
func (p AccountingPeriod) Overlaps(other AccountingPeriod) bool {
	return !p.StartDate.After(other.EndDate) && !other.StartDate.After(p.EndDate)
}
