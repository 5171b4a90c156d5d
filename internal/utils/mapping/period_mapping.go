package mapping

import (
	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/models"
)

// ToModelPeriod converts a domain AccountingPeriod to a model AccountingPeriod
func ToModelPeriod(d domain.AccountingPeriod) models.AccountingPeriod {
	return models.AccountingPeriod{
		PeriodID:    d.PeriodID,
		CompanyID:   d.CompanyID,
		Name:        d.Name,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		IsLocked:    d.IsLocked,
		LockReason:  d.LockReason,
		LockedBy:    d.LockedBy,
		LockedAt:    d.LockedAt,
		UnlockedBy:  d.UnlockedBy,
		UnlockedAt:  d.UnlockedAt,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPeriod converts a model AccountingPeriod to a domain AccountingPeriod
func ToDomainPeriod(m models.AccountingPeriod) domain.AccountingPeriod {
	return domain.AccountingPeriod{
		PeriodID:    m.PeriodID,
		CompanyID:   m.CompanyID,
		Name:        m.Name,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		IsLocked:    m.IsLocked,
		LockReason:  m.LockReason,
		LockedBy:    m.LockedBy,
		LockedAt:    m.LockedAt,
		UnlockedBy:  m.UnlockedBy,
		UnlockedAt:  m.UnlockedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPeriodSlice converts a slice of model AccountingPeriods to a slice of domain AccountingPeriods
func ToDomainPeriodSlice(ms []models.AccountingPeriod) []domain.AccountingPeriod {
	ds := make([]domain.AccountingPeriod, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPeriod(m)
	}
	return ds
}
