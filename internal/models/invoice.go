package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceSent      InvoiceStatus = "SENT"
	InvoiceViewed    InvoiceStatus = "VIEWED"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// Invoice represents a customer invoice and its ledger linkage.
type Invoice struct {
	InvoiceID     string          `db:"invoice_id"`
	CompanyID     string          `db:"company_id"`
	Number        string          `db:"number"`
	CustomerID    string          `db:"customer_id"`
	Subtotal      decimal.Decimal `db:"subtotal"`
	Tax           decimal.Decimal `db:"tax"`
	Total         decimal.Decimal `db:"total"`
	DueDate       time.Time       `db:"due_date"`
	Status        InvoiceStatus   `db:"status"`
	TransactionID *string         `db:"transaction_id"`     // Finalize posting, nullable
	PaymentTxnID  *string         `db:"payment_txn_id"`     // Cash receipt posting, nullable
	AuditFields
}

// InvoiceLine represents one billed item of an invoice.
type InvoiceLine struct {
	LineID      string          `db:"line_id"`
	InvoiceID   string          `db:"invoice_id"`
	Description string          `db:"description"`
	Quantity    decimal.Decimal `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Amount      decimal.Decimal `db:"amount"`
}

// PostingAccounts holds the per-company accounts invoice postings are built from.
type PostingAccounts struct {
	CompanyID           string `db:"company_id"`
	ReceivableAccountID string `db:"receivable_account_id"`
	RevenueAccountID    string `db:"revenue_account_id"`
	TaxPayableAccountID string `db:"tax_payable_account_id"`
	CashAccountID       string `db:"cash_account_id"`
	AuditFields
}
