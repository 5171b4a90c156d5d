package mapping

import (
	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/models"
)

// ToModelBankTransaction converts a domain BankTransaction to a model BankTransaction
func ToModelBankTransaction(d domain.BankTransaction) models.BankTransaction {
	return models.BankTransaction{
		BankTransactionID: d.BankTransactionID,
		CompanyID:         d.CompanyID,
		AccountID:         d.AccountID,
		Date:              d.Date,
		Description:       d.Description,
		Amount:            d.Amount,
		Reference:         d.Reference,
		IsReconciled:      d.IsReconciled,
		MatchedTxnID:      d.MatchedTxnID,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBankTransaction converts a model BankTransaction to a domain BankTransaction
func ToDomainBankTransaction(m models.BankTransaction) domain.BankTransaction {
	return domain.BankTransaction{
		BankTransactionID: m.BankTransactionID,
		CompanyID:         m.CompanyID,
		AccountID:         m.AccountID,
		Date:              m.Date,
		Description:       m.Description,
		Amount:            m.Amount,
		Reference:         m.Reference,
		IsReconciled:      m.IsReconciled,
		MatchedTxnID:      m.MatchedTxnID,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBankTransactionSlice converts a slice of model BankTransactions to a slice of domain BankTransactions
func ToDomainBankTransactionSlice(ms []models.BankTransaction) []domain.BankTransaction {
	ds := make([]domain.BankTransaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBankTransaction(m)
	}
	return ds
}
