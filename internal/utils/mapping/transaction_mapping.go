package mapping

import (
	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction.
// Lines are mapped separately; they live in their own table.
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:          d.TransactionID,
		TransactionNumber:      d.TransactionNumber,
		CompanyID:              d.CompanyID,
		Date:                   d.Date,
		TransactionType:        models.TransactionType(d.Type),
		Description:            d.Description,
		Reference:              d.Reference,
		TotalAmount:            d.TotalAmount,
		IsVoid:                 d.IsVoid,
		ReversedByTransaction:  d.ReversedByTransactionID,
		ReversesTransaction:    d.ReversesTransactionID,
		IsReconciled:           d.IsReconciled,
		MatchedBankTransaction: d.MatchedBankTransaction,
		AuditFields:            ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:           m.TransactionID,
		TransactionNumber:       m.TransactionNumber,
		CompanyID:               m.CompanyID,
		Date:                    m.Date,
		Type:                    domain.TransactionType(m.TransactionType),
		Description:             m.Description,
		Reference:               m.Reference,
		TotalAmount:             m.TotalAmount,
		IsVoid:                  m.IsVoid,
		ReversedByTransactionID: m.ReversedByTransaction,
		ReversesTransactionID:   m.ReversesTransaction,
		IsReconciled:            m.IsReconciled,
		MatchedBankTransaction:  m.MatchedBankTransaction,
		AuditFields:             ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLine converts a domain Line to a model Line
func ToModelLine(d domain.Line) models.Line {
	return models.Line{
		LineID:         d.LineID,
		TransactionID:  d.TransactionID,
		AccountID:      d.AccountID,
		Amount:         d.Amount,
		Side:           models.LineSide(d.Side),
		Notes:          d.Notes,
		RunningBalance: d.RunningBalance,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLine converts a model Line to a domain Line
func ToDomainLine(m models.Line) domain.Line {
	return domain.Line{
		LineID:         m.LineID,
		TransactionID:  m.TransactionID,
		AccountID:      m.AccountID,
		Amount:         m.Amount,
		Side:           domain.LineSide(m.Side),
		Notes:          m.Notes,
		RunningBalance: m.RunningBalance,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLineSlice converts a slice of model Lines to a slice of domain Lines
func ToDomainLineSlice(ms []models.Line) []domain.Line {
	ds := make([]domain.Line, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLine(m)
	}
	return ds
}
