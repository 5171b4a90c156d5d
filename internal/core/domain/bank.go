package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is one imported bank statement line. It is created by
// statement import and only ever mutated by match/unmatch.
type BankTransaction struct {
	BankTransactionID string          `json:"bankTransactionID"`
	CompanyID         string          `json:"companyID"`
	AccountID         string          `json:"accountID"` // The bank/cash ledger account it affects
	Date              time.Time       `json:"date"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"` // Signed: deposits positive, withdrawals negative
	Reference         string          `json:"reference"`
	IsReconciled      bool            `json:"isReconciled"`
	MatchedTxnID      *string         `json:"matchedTransactionID,omitempty"`
	AuditFields
}

// MatchStatus is the outcome category of an automatic match attempt.
type MatchStatus string

const (
	MatchMatched   MatchStatus = "MATCHED"
	MatchUnmatched MatchStatus = "UNMATCHED" // No eligible candidate in the window
	MatchAmbiguous MatchStatus = "AMBIGUOUS" // Multiple candidates, manual resolution required
)

// MatchCandidate is a ledger transaction eligible for reconciliation against a
// bank line: non-void, unreconciled, and touching the bank account. Effect is
// the transaction's net debit-positive amount on that account.
type MatchCandidate struct {
	TransactionID string          `json:"transactionID"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"createdAt"`
	Effect        decimal.Decimal `json:"effect"`
}

// MatchResult reports what an automatic match attempt did for one bank line.
type MatchResult struct {
	BankTransactionID string      `json:"bankTransactionID"`
	Status            MatchStatus `json:"status"`
	// MatchedTransactionID is set only when Status is MATCHED.
	MatchedTransactionID *string `json:"matchedTransactionID,omitempty"`
	// CandidateCount is the number of eligible ledger transactions considered.
	CandidateCount int `json:"candidateCount"`
	// Candidates lists the eligible transactions when Status is AMBIGUOUS,
	// closest date first, so an operator can resolve the tie manually.
	Candidates []MatchCandidate `json:"candidates,omitempty"`
}
