package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType categorizes the origin of a posted transaction.
type TransactionType string

const (
	JournalEntry TransactionType = "JOURNAL_ENTRY"
	InvoiceEntry TransactionType = "INVOICE"
	PaymentEntry TransactionType = "PAYMENT"
	BankEntry    TransactionType = "BANK"
)

// LineSide is the debit or credit marker of a posting line.
type LineSide string

const (
	Debit  LineSide = "DEBIT"
	Credit LineSide = "CREDIT"
)

// Transaction represents one balanced, immutable double-entry posting.
type Transaction struct {
	TransactionID          string          `db:"transaction_id"`
	TransactionNumber      string          `db:"transaction_number"`
	CompanyID              string          `db:"company_id"`
	Date                   time.Time       `db:"date"`
	TransactionType        TransactionType `db:"transaction_type"`
	Description            string          `db:"description"`
	Reference              string          `db:"reference"`
	TotalAmount            decimal.Decimal `db:"total_amount"`
	IsVoid                 bool            `db:"is_void"`
	ReversedByTransaction  *string         `db:"reversed_by_transaction_id"` // Nullable
	ReversesTransaction    *string         `db:"reverses_transaction_id"`    // Nullable
	IsReconciled           bool            `db:"is_reconciled"`
	MatchedBankTransaction *string         `db:"matched_bank_transaction_id"` // Nullable
	AuditFields
}

// Line represents one debit or credit leg of a transaction.
type Line struct {
	LineID         string          `db:"line_id"`
	TransactionID  string          `db:"transaction_id"`
	AccountID      string          `db:"account_id"`
	Amount         decimal.Decimal `db:"amount"`
	Side           LineSide        `db:"side"`
	Notes          string          `db:"notes"`
	RunningBalance decimal.Decimal `db:"running_balance"` // Account balance after this line
	AuditFields
}
