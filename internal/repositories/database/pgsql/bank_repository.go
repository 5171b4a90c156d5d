package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	"github.com/quillbooks/quillbooks/internal/models"
	"github.com/quillbooks/quillbooks/internal/utils/mapping"
)

const bankTransactionColumns = `bank_transaction_id, company_id, account_id, date, description, amount, reference, is_reconciled, matched_transaction_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxBankRepository struct {
	BaseRepository
}

// newPgxBankRepository creates a new repository for imported bank statement lines.
func newPgxBankRepository(pool *pgxpool.Pool) portsrepo.BankRepositoryFacade {
	return &PgxBankRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BankRepositoryFacade = (*PgxBankRepository)(nil)

func scanBankTransaction(row pgx.Row) (*models.BankTransaction, error) {
	var m models.BankTransaction
	err := row.Scan(
		&m.BankTransactionID,
		&m.CompanyID,
		&m.AccountID,
		&m.Date,
		&m.Description,
		&m.Amount,
		&m.Reference,
		&m.IsReconciled,
		&m.MatchedTxnID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveBankTransactions persists a batch of imported statement lines in one
// database transaction, so a failed import leaves nothing behind.
func (r *PgxBankRepository) SaveBankTransactions(ctx context.Context, lines []domain.BankTransaction) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO bank_transactions (` + bankTransactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		m := mapping.ToModelBankTransaction(line)
		batch.Queue(query,
			m.BankTransactionID,
			m.CompanyID,
			m.AccountID,
			m.Date,
			m.Description,
			m.Amount,
			m.Reference,
			m.IsReconciled,
			m.MatchedTxnID,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute bank transaction batch: %w", err)
	}

	return r.Commit(ctx, tx)
}

// FindBankTransactionByID retrieves a single imported bank line.
func (r *PgxBankRepository) FindBankTransactionByID(ctx context.Context, bankTransactionID string) (*domain.BankTransaction, error) {
	query := `SELECT ` + bankTransactionColumns + ` FROM bank_transactions WHERE bank_transaction_id = $1;`

	m, err := scanBankTransaction(r.Pool.QueryRow(ctx, query, bankTransactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bank transaction by ID %s: %w", bankTransactionID, err)
	}

	bt := mapping.ToDomainBankTransaction(*m)
	return &bt, nil
}

// ListBankTransactions retrieves bank lines of a company, optionally filtered
// to one account and to unreconciled lines only, oldest first.
func (r *PgxBankRepository) ListBankTransactions(ctx context.Context, companyID string, accountID *string, unreconciledOnly bool) ([]domain.BankTransaction, error) {
	query := `SELECT ` + bankTransactionColumns + ` FROM bank_transactions WHERE company_id = $1`
	args := []interface{}{companyID}

	if accountID != nil {
		args = append(args, *accountID)
		query += ` AND account_id = $2`
	}
	if unreconciledOnly {
		query += ` AND is_reconciled = FALSE`
	}
	query += ` ORDER BY date, created_at;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank transactions for company %s: %w", companyID, err)
	}
	defer rows.Close()

	lines := []models.BankTransaction{}
	for rows.Next() {
		m, scanErr := scanBankTransaction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan bank transaction row for company %s: %w", companyID, scanErr)
		}
		lines = append(lines, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank transaction rows for company %s: %w", companyID, err)
	}

	return mapping.ToDomainBankTransactionSlice(lines), nil
}

// SetBankTransactionMatched flags a bank line as reconciled. The conditional
// update makes the second of two racing matchers lose with ErrConflict.
func (r *PgxBankRepository) SetBankTransactionMatched(ctx context.Context, bankTransactionID, transactionID string) error {
	query := `
		UPDATE bank_transactions
		SET is_reconciled = TRUE, matched_transaction_id = $2
		WHERE bank_transaction_id = $1 AND is_reconciled = FALSE;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, bankTransactionID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to set bank transaction %s matched: %w", bankTransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindBankTransactionByID(ctx, bankTransactionID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: bank transaction %s is already reconciled", apperrors.ErrConflict, bankTransactionID)
	}
	return nil
}

// ClearBankTransactionMatched removes the reconciliation flag and linkage.
func (r *PgxBankRepository) ClearBankTransactionMatched(ctx context.Context, bankTransactionID string) error {
	query := `
		UPDATE bank_transactions
		SET is_reconciled = FALSE, matched_transaction_id = NULL
		WHERE bank_transaction_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, bankTransactionID)
	if err != nil {
		return fmt.Errorf("failed to clear match on bank transaction %s: %w", bankTransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
