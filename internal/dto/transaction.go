package dto

import (
	"time"

	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLineRequest is one debit or credit row of a transaction draft.
// Exactly one side per line; the amount is always positive.
type CreateLineRequest struct {
	AccountID string          `json:"accountID" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Side      domain.LineSide `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	Notes     string          `json:"notes"`
}

// CreateTransactionRequest defines a transaction draft to post to the ledger.
type CreateTransactionRequest struct {
	Date           time.Time              `json:"date" binding:"required"`
	Type           domain.TransactionType `json:"type" binding:"required,oneof=JOURNAL_ENTRY INVOICE PAYMENT BANK"`
	Description    string                 `json:"description" binding:"required"`
	Reference      string                 `json:"reference"`
	Lines          []CreateLineRequest    `json:"lines" binding:"required,min=2,dive"`
	IdempotencyKey string                 `json:"idempotencyKey" binding:"required"`
}

// VoidTransactionRequest defines an explicit reversal of a posted transaction.
type VoidTransactionRequest struct {
	Reason string `json:"reason" binding:"required"`
	// Date of the reversal posting; defaults to today. Subject to period-lock
	// validation on its own date.
	Date           *time.Time `json:"date"`
	IdempotencyKey string     `json:"idempotencyKey" binding:"required"`
}

// ListTransactionsParams holds query parameters for listing transactions.
type ListTransactionsParams struct {
	Limit         int     `form:"limit"`
	NextToken     *string `form:"nextToken"`
	IncludeVoided bool    `form:"includeVoided"`
}

// ListTransactionsResponse is a page of transactions plus the cursor for the next page.
type ListTransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	NextToken    *string              `json:"nextToken,omitempty"`
}

// ListLinesParams holds query parameters for listing an account's posting lines.
type ListLinesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListLinesResponse is a page of posting lines plus the cursor for the next page.
type ListLinesResponse struct {
	Lines     []domain.Line `json:"lines"`
	NextToken *string       `json:"nextToken,omitempty"`
}
