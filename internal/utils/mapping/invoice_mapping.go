package mapping

import (
	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/models"
)

// ToModelInvoice converts a domain Invoice to a model Invoice.
// Lines are mapped separately; they live in their own table.
func ToModelInvoice(d domain.Invoice) models.Invoice {
	return models.Invoice{
		InvoiceID:     d.InvoiceID,
		CompanyID:     d.CompanyID,
		Number:        d.Number,
		CustomerID:    d.CustomerID,
		Subtotal:      d.Subtotal,
		Tax:           d.Tax,
		Total:         d.Total,
		DueDate:       d.DueDate,
		Status:        models.InvoiceStatus(d.Status),
		TransactionID: d.TransactionID,
		PaymentTxnID:  d.PaymentTxnID,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainInvoice converts a model Invoice to a domain Invoice
func ToDomainInvoice(m models.Invoice) domain.Invoice {
	return domain.Invoice{
		InvoiceID:     m.InvoiceID,
		CompanyID:     m.CompanyID,
		Number:        m.Number,
		CustomerID:    m.CustomerID,
		Subtotal:      m.Subtotal,
		Tax:           m.Tax,
		Total:         m.Total,
		DueDate:       m.DueDate,
		Status:        domain.InvoiceStatus(m.Status),
		TransactionID: m.TransactionID,
		PaymentTxnID:  m.PaymentTxnID,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelInvoiceLine converts a domain InvoiceLine to a model InvoiceLine
func ToModelInvoiceLine(d domain.InvoiceLine) models.InvoiceLine {
	return models.InvoiceLine{
		LineID:      d.LineID,
		InvoiceID:   d.InvoiceID,
		Description: d.Description,
		Quantity:    d.Quantity,
		UnitPrice:   d.UnitPrice,
		Amount:      d.Amount,
	}
}

// ToDomainInvoiceLine converts a model InvoiceLine to a domain InvoiceLine
func ToDomainInvoiceLine(m models.InvoiceLine) domain.InvoiceLine {
	return domain.InvoiceLine{
		LineID:      m.LineID,
		InvoiceID:   m.InvoiceID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Amount:      m.Amount,
	}
}

// ToDomainInvoiceLineSlice converts a slice of model InvoiceLines to a slice of domain InvoiceLines
func ToDomainInvoiceLineSlice(ms []models.InvoiceLine) []domain.InvoiceLine {
	ds := make([]domain.InvoiceLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainInvoiceLine(m)
	}
	return ds
}

// ToModelPostingAccounts converts domain PostingAccounts to model PostingAccounts
func ToModelPostingAccounts(d domain.PostingAccounts) models.PostingAccounts {
	return models.PostingAccounts{
		CompanyID:           d.CompanyID,
		ReceivableAccountID: d.ReceivableAccountID,
		RevenueAccountID:    d.RevenueAccountID,
		TaxPayableAccountID: d.TaxPayableAccountID,
		CashAccountID:       d.CashAccountID,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPostingAccounts converts model PostingAccounts to domain PostingAccounts
func ToDomainPostingAccounts(m models.PostingAccounts) domain.PostingAccounts {
	return domain.PostingAccounts{
		CompanyID:           m.CompanyID,
		ReceivableAccountID: m.ReceivableAccountID,
		RevenueAccountID:    m.RevenueAccountID,
		TaxPayableAccountID: m.TaxPayableAccountID,
		CashAccountID:       m.CashAccountID,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}
