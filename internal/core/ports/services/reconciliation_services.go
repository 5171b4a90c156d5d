package services

import (
	"context"
	"io"

	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/dto"
)

// ReconciliationSvcFacade imports bank statements and pairs their lines with
// posted ledger transactions.
type ReconciliationSvcFacade interface {
	// ImportStatement parses a CSV bank statement and stores its rows as
	// unreconciled bank transactions for the given bank account.
	ImportStatement(ctx context.Context, companyID string, accountID string, r io.Reader, userID string) (*dto.ImportStatementResponse, error)

	// Match attempts to automatically reconcile one bank line. Exactly one
	// amount-equal candidate in the window is required; otherwise the result
	// is UNMATCHED or AMBIGUOUS and manual resolution is needed.
	Match(ctx context.Context, companyID string, bankTransactionID string) (*domain.MatchResult, error)

	// AutoMatch runs Match over every unreconciled line of the account within
	// the optional window.
	AutoMatch(ctx context.Context, companyID string, accountID string, req dto.AutoMatchRequest) ([]domain.MatchResult, error)

	// ManualMatch pairs a bank line with a chosen transaction, bypassing the
	// amount-equality rule but still requiring both sides to touch the same
	// bank account.
	ManualMatch(ctx context.Context, companyID string, bankTransactionID string, transactionID string) error

	// Unmatch clears the reconciliation linkage on both sides without altering
	// the ledger transaction.
	Unmatch(ctx context.Context, companyID string, bankTransactionID string) error

	ListBankTransactions(ctx context.Context, companyID string, params dto.ListBankTransactionsParams) ([]domain.BankTransaction, error)
}
