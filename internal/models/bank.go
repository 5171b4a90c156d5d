package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction represents one imported statement line of a bank account.
type BankTransaction struct {
	BankTransactionID string          `db:"bank_transaction_id"`
	CompanyID         string          `db:"company_id"`
	AccountID         string          `db:"account_id"`
	Date              time.Time       `db:"date"`
	Description       string          `db:"description"`
	Amount            decimal.Decimal `db:"amount"` // Signed: deposits positive
	Reference         string          `db:"reference"`
	IsReconciled      bool            `db:"is_reconciled"`
	MatchedTxnID      *string         `db:"matched_transaction_id"` // Nullable
	AuditFields
}
