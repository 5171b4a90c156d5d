package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	"github.com/quillbooks/quillbooks/internal/models"
	"github.com/quillbooks/quillbooks/internal/utils/accounting"
	"github.com/quillbooks/quillbooks/internal/utils/mapping"
	"github.com/quillbooks/quillbooks/internal/utils/pagination"
)

const transactionColumns = `transaction_id, transaction_number, company_id, date, transaction_type, description, reference, total_amount, is_void, reversed_by_transaction_id, reverses_transaction_id, is_reconciled, matched_bank_transaction_id, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, transaction_id, account_id, amount, side, notes, running_balance, created_at, created_by, last_updated_at, last_updated_by`

type PgxTransactionRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxTransactionRepository creates a new repository for ledger transaction data.
func newPgxTransactionRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

// SaveTransaction appends a transaction, its lines and the balance updates as
// one database transaction. See appendTransaction for the steps.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, balanceChanges map[string]decimal.Decimal, idem *domain.IdempotencyRecord) (*domain.Transaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if idem != nil {
		if err := r.claimIdempotencyKey(ctx, tx, *idem); err != nil {
			return nil, err
		}
	}

	saved, err := r.appendTransaction(ctx, tx, txn, balanceChanges)
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, translatePgError(err)
	}
	return saved, nil
}

// SaveReversal appends the reversing transaction and flags the original void,
// all atomically. A concurrently voided original loses the conditional update
// and fails with apperrors.ErrConflict.
func (r *PgxTransactionRepository) SaveReversal(ctx context.Context, reversal domain.Transaction, originalID string, balanceChanges map[string]decimal.Decimal, idem *domain.IdempotencyRecord) (*domain.Transaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if idem != nil {
		if err := r.claimIdempotencyKey(ctx, tx, *idem); err != nil {
			return nil, err
		}
	}

	voidQuery := `
		UPDATE transactions
		SET is_void = TRUE, reversed_by_transaction_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = $1 AND is_void = FALSE;
	`
	cmdTag, err := tx.Exec(ctx, voidQuery, originalID, reversal.TransactionID, reversal.LastUpdatedAt, reversal.LastUpdatedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to void transaction %s: %w", originalID, translatePgError(err))
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: transaction %s is already void", apperrors.ErrConflict, originalID)
	}

	saved, err := r.appendTransaction(ctx, tx, reversal, balanceChanges)
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, translatePgError(err)
	}
	return saved, nil
}

// claimIdempotencyKey is the atomic check-and-set on (company, operation, key).
// Expired rows are re-claimed in place. A live existing row means another
// request already executed; its stored result is returned for replay.
func (r *PgxTransactionRepository) claimIdempotencyKey(ctx context.Context, tx pgx.Tx, record domain.IdempotencyRecord) error {
	m := mapping.ToModelIdempotencyKey(record)

	query := `
		INSERT INTO idempotency_keys (company_id, operation_kind, key, result_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, operation_kind, key) DO UPDATE
		SET result_id = EXCLUDED.result_id, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
		WHERE idempotency_keys.expires_at <= EXCLUDED.created_at;
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.CompanyID,
		m.OperationKind,
		m.Key,
		m.ResultID,
		m.CreatedAt,
		m.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to claim idempotency key: %w", translatePgError(err))
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	// Lost the claim. Surface the winning record so the caller can replay it.
	existingQuery := `
		SELECT company_id, operation_kind, key, result_id, created_at, expires_at
		FROM idempotency_keys
		WHERE company_id = $1 AND operation_kind = $2 AND key = $3;
	`
	var existing models.IdempotencyKey
	err = tx.QueryRow(ctx, existingQuery, m.CompanyID, m.OperationKind, m.Key).Scan(
		&existing.CompanyID,
		&existing.OperationKind,
		&existing.Key,
		&existing.ResultID,
		&existing.CreatedAt,
		&existing.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to load winning idempotency record: %w", err)
	}
	return &portsrepo.IdempotencyClaimError{Existing: mapping.ToDomainIdempotencyRecord(existing)}
}

// appendTransaction performs the append-and-balance-update inside tx:
// allocate the transaction number, lock the touched accounts in sorted order,
// apply the cached balance deltas, insert the header, then insert the lines
// with running balances computed from the locked pre-post balances.
func (r *PgxTransactionRepository) appendTransaction(ctx context.Context, tx pgx.Tx, txn domain.Transaction, balanceChanges map[string]decimal.Decimal) (*domain.Transaction, error) {
	number, err := r.nextTransactionNumber(ctx, tx, txn.CompanyID)
	if err != nil {
		return nil, err
	}
	txn.TransactionNumber = number

	accountIDs := make([]string, 0, len(balanceChanges))
	for accID := range balanceChanges {
		accountIDs = append(accountIDs, accID)
	}
	lockedAccounts, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return nil, err
	}

	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, txn.CreatedBy, txn.CreatedAt); err != nil {
		return nil, err
	}

	m := mapping.ToModelTransaction(txn)
	headerQuery := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err = tx.Exec(ctx, headerQuery,
		m.TransactionID,
		m.TransactionNumber,
		m.CompanyID,
		m.Date,
		m.TransactionType,
		m.Description,
		m.Reference,
		m.TotalAmount,
		m.IsVoid,
		m.ReversedByTransaction,
		m.ReversesTransaction,
		m.IsReconciled,
		m.MatchedBankTransaction,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction %s: %w", m.TransactionID, translatePgError(err))
	}

	// Running balances continue from the balance each account held before this
	// posting, in line order within the transaction.
	runningBalances := make(map[string]decimal.Decimal, len(lockedAccounts))
	for accID, acc := range lockedAccounts {
		runningBalances[accID] = acc.Balance
	}

	lineQuery := `
		INSERT INTO lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	batch := &pgx.Batch{}
	for i := range txn.Lines {
		line := txn.Lines[i]
		lockedAccount, ok := lockedAccounts[line.AccountID]
		if !ok {
			return nil, apperrors.NewAppError(500, "locked account "+line.AccountID+" missing during line processing", nil)
		}

		signedAmount, err := accounting.CalculateSignedAmount(line, lockedAccount.AccountType)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate signed amount for line %s: %w", line.LineID, err)
		}
		newBalance := runningBalances[line.AccountID].Add(signedAmount)
		runningBalances[line.AccountID] = newBalance
		txn.Lines[i].RunningBalance = newBalance

		ml := mapping.ToModelLine(txn.Lines[i])
		batch.Queue(lineQuery,
			ml.LineID,
			ml.TransactionID,
			ml.AccountID,
			ml.Amount,
			ml.Side,
			ml.Notes,
			ml.RunningBalance,
			ml.CreatedAt,
			ml.CreatedBy,
			ml.LastUpdatedAt,
			ml.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("failed to execute line batch for transaction %s: %w", m.TransactionID, translatePgError(err))
	}

	return &txn, nil
}

// nextTransactionNumber allocates the next human-readable number from the
// per-company counter row. The upsert serializes concurrent posts of one
// company on the counter, which is the single-writer point the ledger needs.
func (r *PgxTransactionRepository) nextTransactionNumber(ctx context.Context, tx pgx.Tx, companyID string) (string, error) {
	query := `
		INSERT INTO transaction_counters (company_id, counter)
		VALUES ($1, 1)
		ON CONFLICT (company_id) DO UPDATE SET counter = transaction_counters.counter + 1
		RETURNING counter;
	`
	var counter int64
	if err := tx.QueryRow(ctx, query, companyID).Scan(&counter); err != nil {
		return "", fmt.Errorf("failed to allocate transaction number: %w", translatePgError(err))
	}
	return fmt.Sprintf("TXN-%06d", counter), nil
}

// FindTransactionByID retrieves a transaction and its lines.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", transactionID, err)
	}

	linesByTxn, err := r.findLinesByTransactionIDs(ctx, []string{transactionID})
	if err != nil {
		return nil, err
	}

	txn := mapping.ToDomainTransaction(*m)
	txn.Lines = linesByTxn[transactionID]
	return &txn, nil
}

// ListTransactionsByCompany retrieves a paginated list of transactions using
// token-based pagination, newest first. Unless includeVoided is set, voided
// transactions and their reversals are filtered out.
func (r *PgxTransactionRepository) ListTransactionsByCompany(ctx context.Context, companyID string, limit int, nextToken *string, includeVoided bool) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + transactionColumns + ` FROM transactions`
	filterClause := `WHERE company_id = $1`
	if !includeVoided {
		filterClause += ` AND is_void = FALSE AND reverses_transaction_id IS NULL`
	}
	orderByClause := `ORDER BY date DESC, created_at DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{companyID}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		cursorClause := `AND (date, created_at) < ($2, $3)`
		args = append(args, lastDate, lastCreatedAt)

		query := baseQuery + " " + filterClause + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transactions for company %s: %w", companyID, err)
	}
	defer rows.Close()

	modelTxns := make([]models.Transaction, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row for company %s: %w", companyID, scanErr)
		}
		modelTxns = append(modelTxns, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction rows for company %s: %w", companyID, err)
	}

	var nextTokenVal *string
	results := modelTxns
	if len(modelTxns) > limit {
		lastTxn := modelTxns[limit-1]
		token := pagination.EncodeToken(lastTxn.Date, lastTxn.CreatedAt)
		nextTokenVal = &token
		results = modelTxns[:limit]
	}

	txnIDs := make([]string, len(results))
	for i, m := range results {
		txnIDs[i] = m.TransactionID
	}
	linesByTxn, err := r.findLinesByTransactionIDs(ctx, txnIDs)
	if err != nil {
		return nil, nil, err
	}

	transactions := make([]domain.Transaction, len(results))
	for i, m := range results {
		transactions[i] = mapping.ToDomainTransaction(m)
		transactions[i].Lines = linesByTxn[m.TransactionID]
	}
	return transactions, nextTokenVal, nil
}

// ListLinesByAccountID retrieves a paginated list of posting lines touching one
// account, with running balances, newest first.
func (r *PgxTransactionRepository) ListLinesByAccountID(ctx context.Context, companyID, accountID string, limit int, nextToken *string) ([]domain.Line, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT l.line_id, l.transaction_id, l.account_id, l.amount, l.side, l.notes, l.running_balance,
		       l.created_at, l.created_by, l.last_updated_at, l.last_updated_by
		FROM lines l
		JOIN transactions t ON t.transaction_id = l.transaction_id
		WHERE l.account_id = $1 AND t.company_id = $2 AND t.is_void = FALSE
	`
	orderByClause := `ORDER BY t.date DESC, l.created_at DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{accountID, companyID}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		cursorClause := `AND (t.date, l.created_at) < ($3, $4)`
		args = append(args, lastDate, lastCreatedAt)

		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query lines for account %s: %w", accountID, err)
	}
	defer rows.Close()

	entries := make([]models.Line, 0, fetchLimit)
	for rows.Next() {
		var l models.Line
		scanErr := rows.Scan(
			&l.LineID,
			&l.TransactionID,
			&l.AccountID,
			&l.Amount,
			&l.Side,
			&l.Notes,
			&l.RunningBalance,
			&l.CreatedAt,
			&l.CreatedBy,
			&l.LastUpdatedAt,
			&l.LastUpdatedBy,
		)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan line row for account %s: %w", accountID, scanErr)
		}
		entries = append(entries, l)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating line rows for account %s: %w", accountID, err)
	}

	var nextTokenVal *string
	results := entries
	if len(entries) > limit {
		// The cursor needs the transaction date of the last included line.
		last := entries[limit-1]
		lastTxn, findErr := r.FindTransactionByID(ctx, last.TransactionID)
		if findErr != nil {
			return nil, nil, findErr
		}
		token := pagination.EncodeToken(lastTxn.Date, last.CreatedAt)
		nextTokenVal = &token
		results = entries[:limit]
	}

	lines := make([]domain.Line, len(results))
	for i, e := range results {
		lines[i] = mapping.ToDomainLine(e)
	}
	return lines, nextTokenVal, nil
}

// ListTransactionsForExport retrieves all posted transactions of a company in
// [from, to], oldest first, with lines attached.
func (r *PgxTransactionRepository) ListTransactionsForExport(ctx context.Context, companyID string, from, to time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE company_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, created_at;
	`
	rows, err := r.Pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for export: %w", err)
	}
	defer rows.Close()

	modelTxns := []models.Transaction{}
	for rows.Next() {
		m, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction row for export: %w", scanErr)
		}
		modelTxns = append(modelTxns, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows for export: %w", err)
	}

	txnIDs := make([]string, len(modelTxns))
	for i, m := range modelTxns {
		txnIDs[i] = m.TransactionID
	}
	linesByTxn, err := r.findLinesByTransactionIDs(ctx, txnIDs)
	if err != nil {
		return nil, err
	}

	transactions := make([]domain.Transaction, len(modelTxns))
	for i, m := range modelTxns {
		transactions[i] = mapping.ToDomainTransaction(m)
		transactions[i].Lines = linesByTxn[m.TransactionID]
	}
	return transactions, nil
}

// FindMatchCandidates returns the non-void, unreconciled transactions touching
// the given account within [from, to], each with its net signed effect on the
// account (debits positive). The effect is computed in SQL so the candidate
// set is one consistent snapshot.
func (r *PgxTransactionRepository) FindMatchCandidates(ctx context.Context, companyID, accountID string, from, to time.Time) ([]domain.MatchCandidate, error) {
	query := `
		SELECT t.transaction_id, t.date, t.created_at,
		       COALESCE(SUM(CASE WHEN l.side = 'DEBIT' THEN l.amount ELSE -l.amount END), 0) AS effect
		FROM transactions t
		JOIN lines l ON l.transaction_id = t.transaction_id AND l.account_id = $2
		WHERE t.company_id = $1
		  AND t.is_void = FALSE
		  AND t.is_reconciled = FALSE
		  AND t.reverses_transaction_id IS NULL
		  AND t.date >= $3 AND t.date <= $4
		GROUP BY t.transaction_id, t.date, t.created_at
		ORDER BY t.date, t.created_at;
	`
	rows, err := r.Pool.Query(ctx, query, companyID, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query match candidates for account %s: %w", accountID, err)
	}
	defer rows.Close()

	candidates := []domain.MatchCandidate{}
	for rows.Next() {
		var c domain.MatchCandidate
		if err := rows.Scan(&c.TransactionID, &c.Date, &c.CreatedAt, &c.Effect); err != nil {
			return nil, fmt.Errorf("failed to scan match candidate row: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match candidate rows: %w", err)
	}
	return candidates, nil
}

// SetTransactionReconciled flags a transaction as reconciled. The conditional
// update makes the second of two racing matchers lose cleanly.
func (r *PgxTransactionRepository) SetTransactionReconciled(ctx context.Context, transactionID, bankTransactionID string) error {
	query := `
		UPDATE transactions
		SET is_reconciled = TRUE, matched_bank_transaction_id = $2
		WHERE transaction_id = $1 AND is_reconciled = FALSE;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, transactionID, bankTransactionID)
	if err != nil {
		return fmt.Errorf("failed to set transaction %s reconciled: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindTransactionByID(ctx, transactionID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: transaction %s is already reconciled", apperrors.ErrConflict, transactionID)
	}
	return nil
}

// ClearTransactionReconciled removes the reconciliation flag and linkage.
func (r *PgxTransactionRepository) ClearTransactionReconciled(ctx context.Context, transactionID string) error {
	query := `
		UPDATE transactions
		SET is_reconciled = FALSE, matched_bank_transaction_id = NULL
		WHERE transaction_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, transactionID)
	if err != nil {
		return fmt.Errorf("failed to clear reconciliation on transaction %s: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.TransactionNumber,
		&m.CompanyID,
		&m.Date,
		&m.TransactionType,
		&m.Description,
		&m.Reference,
		&m.TotalAmount,
		&m.IsVoid,
		&m.ReversedByTransaction,
		&m.ReversesTransaction,
		&m.IsReconciled,
		&m.MatchedBankTransaction,
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

// findLinesByTransactionIDs retrieves lines for a batch of transactions,
// grouped by transaction, in insertion order.
func (r *PgxTransactionRepository) findLinesByTransactionIDs(ctx context.Context, txnIDs []string) (map[string][]domain.Line, error) {
	linesMap := make(map[string][]domain.Line)
	if len(txnIDs) == 0 {
		return linesMap, nil
	}

	query := `
		SELECT ` + lineColumns + `
		FROM lines
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, created_at, line_id;
	`
	rows, err := r.Pool.Query(ctx, query, txnIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.Line
		if err := rows.Scan(
			&l.LineID,
			&l.TransactionID,
			&l.AccountID,
			&l.Amount,
			&l.Side,
			&l.Notes,
			&l.RunningBalance,
			&l.CreatedAt,
			&l.CreatedBy,
			&l.LastUpdatedAt,
			&l.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line row during batch fetch: %w", err)
		}
		linesMap[l.TransactionID] = append(linesMap[l.TransactionID], mapping.ToDomainLine(l))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows during batch fetch: %w", err)
	}

	for _, id := range txnIDs {
		if _, exists := linesMap[id]; !exists {
			linesMap[id] = []domain.Line{}
		}
	}
	return linesMap, nil
}
