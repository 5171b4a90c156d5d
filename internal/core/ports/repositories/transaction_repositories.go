package repositories

import (
	"context"
	"time"

	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// IdempotencyClaimError is surfaced by writers when the idempotency record
// passed to an atomic append already exists: another request won the race and
// its stored result must be replayed instead.
// Declared here rather than apperrors because only repository callers handle it.
type IdempotencyClaimError struct {
	Existing domain.IdempotencyRecord
}

func (e *IdempotencyClaimError) Error() string {
	return "idempotency key already claimed for operation " + string(e.Existing.OperationKind)
}

// TransactionReader defines read operations for ledger transactions.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction and its lines.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByCompany retrieves a paginated list of transactions using token-based
	// pagination, newest first. Reversal pairs are excluded unless includeVoided is set.
	ListTransactionsByCompany(ctx context.Context, companyID string, limit int, nextToken *string, includeVoided bool) ([]domain.Transaction, *string, error)

	// ListLinesByAccountID retrieves a paginated list of posting lines for one account,
	// with running balances, newest first.
	ListLinesByAccountID(ctx context.Context, companyID, accountID string, limit int, nextToken *string) ([]domain.Line, *string, error)

	// ListTransactionsForExport retrieves all posted transactions (with lines) of a
	// company in a date range, oldest first, for report generation.
	ListTransactionsForExport(ctx context.Context, companyID string, from, to time.Time) ([]domain.Transaction, error)

	// FindMatchCandidates returns non-void, unreconciled transactions touching the
	// given account within [from, to], with their net signed effect on it.
	FindMatchCandidates(ctx context.Context, companyID, accountID string, from, to time.Time) ([]domain.MatchCandidate, error)
}

// TransactionWriter defines the atomic append operations of the ledger.
type TransactionWriter interface {
	// SaveTransaction appends a transaction and its lines as a single unit:
	// it claims the idempotency record (when non-nil), locks the touched
	// accounts, allocates the human-readable transaction number, writes the
	// lines with running balances, and applies balanceChanges to the cached
	// account balances. All-or-nothing. Returns the stored transaction.
	//
	// A lost idempotency race returns *IdempotencyClaimError carrying the
	// winning record.
	SaveTransaction(ctx context.Context, txn domain.Transaction, balanceChanges map[string]decimal.Decimal, idem *domain.IdempotencyRecord) (*domain.Transaction, error)

	// SaveReversal appends the reversing transaction and marks the original
	// void with linkage, atomically with the balance updates.
	SaveReversal(ctx context.Context, reversal domain.Transaction, originalID string, balanceChanges map[string]decimal.Decimal, idem *domain.IdempotencyRecord) (*domain.Transaction, error)

	// SetTransactionReconciled flags a transaction as reconciled against a bank
	// line. It fails with apperrors.ErrConflict if the transaction is already
	// reconciled (conditional update, second writer loses).
	SetTransactionReconciled(ctx context.Context, transactionID, bankTransactionID string) error

	// ClearTransactionReconciled removes the reconciliation flag. The
	// transaction's content is never altered.
	ClearTransactionReconciled(ctx context.Context, transactionID string) error
}

// TransactionRepositoryFacade combines ledger read and write interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
