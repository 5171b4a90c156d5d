package dto

import (
	"time"

	"github.com/quillbooks/quillbooks/internal/core/domain"
)

// ImportStatementResponse reports the outcome of a bank statement upload.
type ImportStatementResponse struct {
	Imported         int                      `json:"imported"`
	BankTransactions []domain.BankTransaction `json:"bankTransactions"`
}

// AutoMatchRequest bounds an automatic reconciliation run. When From/To are
// omitted the configured default window around each bank line's date is used.
type AutoMatchRequest struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// ListBankTransactionsParams holds query parameters for listing imported bank lines.
type ListBankTransactionsParams struct {
	AccountID        *string `form:"accountID"`
	UnreconciledOnly bool    `form:"unreconciledOnly"`
}
