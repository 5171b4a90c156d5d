package repositories

import (
	"context"

	"github.com/quillbooks/quillbooks/internal/core/domain"
)

// BankTransactionReader defines read operations for imported bank lines.
type BankTransactionReader interface {
	// FindBankTransactionByID retrieves a single imported bank line.
	FindBankTransactionByID(ctx context.Context, bankTransactionID string) (*domain.BankTransaction, error)

	// ListBankTransactions retrieves bank lines of a company, optionally
	// filtered to one account and to unreconciled lines only, oldest first.
	ListBankTransactions(ctx context.Context, companyID string, accountID *string, unreconciledOnly bool) ([]domain.BankTransaction, error)
}

// BankTransactionWriter defines write operations for imported bank lines.
type BankTransactionWriter interface {
	// SaveBankTransactions persists a batch of imported statement lines in one
	// database transaction.
	SaveBankTransactions(ctx context.Context, lines []domain.BankTransaction) error

	// SetBankTransactionMatched flags a bank line as reconciled against a
	// ledger transaction. It fails with apperrors.ErrConflict if the line is
	// already reconciled (conditional update, second writer loses).
	SetBankTransactionMatched(ctx context.Context, bankTransactionID, transactionID string) error

	// ClearBankTransactionMatched removes the reconciliation flag and linkage.
	ClearBankTransactionMatched(ctx context.Context, bankTransactionID string) error
}

// BankRepositoryFacade combines bank transaction read and write interfaces.
type BankRepositoryFacade interface {
	BankTransactionReader
	BankTransactionWriter
}
