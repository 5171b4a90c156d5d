package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType categorises the source of a ledger posting.
type TransactionType string

const (
	JournalEntry TransactionType = "JOURNAL_ENTRY"
	InvoiceEntry TransactionType = "INVOICE"
	PaymentEntry TransactionType = "PAYMENT"
	BankEntry    TransactionType = "BANK"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case JournalEntry, InvoiceEntry, PaymentEntry, BankEntry:
		return true
	}
	return false
}

// LineSide indicates whether a transaction line is a debit or a credit.
type LineSide string

const (
	Debit  LineSide = "DEBIT"
	Credit LineSide = "CREDIT"
)

// Line is a single debit or credit within a Transaction, affecting one account.
type Line struct {
	LineID         string          `json:"lineID"`        // Primary key (UUID)
	TransactionID  string          `json:"transactionID"` // FK -> Transaction (Not Null)
	AccountID      string          `json:"accountID"`     // FK -> Account (Not Null)
	Amount         decimal.Decimal `json:"amount"`        // Always positive; side carries direction
	Side           LineSide        `json:"side"`
	Notes          string          `json:"notes"`
	RunningBalance decimal.Decimal `json:"runningBalance"` // Account balance after this line, set at append time
	AuditFields
}

// Transaction is an immutable, balanced journal entry. It is only ever
// "removed" by a reversing transaction that marks it void.
type Transaction struct {
	TransactionID     string          `json:"transactionID"`     // Primary key (UUID)
	TransactionNumber string          `json:"transactionNumber"` // Human-readable, unique per company
	CompanyID         string          `json:"companyID"`
	Date              time.Time       `json:"date"`
	Type              TransactionType `json:"type"`
	Description       string          `json:"description"`
	Reference         string          `json:"reference"`
	TotalAmount       decimal.Decimal `json:"totalAmount"` // Sum of debit lines (== sum of credit lines)
	IsVoid            bool            `json:"isVoid"`
	// Reversal linkage: set on the original when voided, and on the reversal.
	ReversedByTransactionID *string `json:"reversedByTransactionID,omitempty"`
	ReversesTransactionID   *string `json:"reversesTransactionID,omitempty"`
	// Reconciliation state for bank matching.
	IsReconciled           bool    `json:"isReconciled"`
	MatchedBankTransaction *string `json:"matchedBankTransactionID,omitempty"`
	Lines                  []Line  `json:"lines,omitempty"`
	AuditFields
}

// SignedEffectOn returns the net signed amount this transaction's lines apply to
// the given account, debit-positive. A deposit into a bank account therefore
// yields a positive value, matching the sign convention of imported statements.
func (t Transaction) SignedEffectOn(accountID string) decimal.Decimal {
	effect := decimal.Zero
	for _, line := range t.Lines {
		if line.AccountID != accountID {
			continue
		}
		if line.Side == Debit {
			effect = effect.Add(line.Amount)
		} else {
			effect = effect.Sub(line.Amount)
		}
	}
	return effect
}
