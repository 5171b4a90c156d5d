package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	"github.com/quillbooks/quillbooks/internal/models"
	"github.com/quillbooks/quillbooks/internal/utils/mapping"
	"github.com/quillbooks/quillbooks/internal/utils/pagination"
)

const invoiceColumns = `invoice_id, company_id, number, customer_id, subtotal, tax, total, due_date, status, transaction_id, payment_txn_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxInvoiceRepository struct {
	BaseRepository
}

// newPgxInvoiceRepository creates a new repository for invoice data.
func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var m models.Invoice
	err := row.Scan(
		&m.InvoiceID,
		&m.CompanyID,
		&m.Number,
		&m.CustomerID,
		&m.Subtotal,
		&m.Tax,
		&m.Total,
		&m.DueDate,
		&m.Status,
		&m.TransactionID,
		&m.PaymentTxnID,
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

// SaveInvoice persists a new draft invoice and its lines in one transaction.
func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelInvoice(invoice)
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = tx.Exec(ctx, query,
		m.InvoiceID,
		m.CompanyID,
		m.Number,
		m.CustomerID,
		m.Subtotal,
		m.Tax,
		m.Total,
		m.DueDate,
		m.Status,
		m.TransactionID,
		m.PaymentTxnID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: invoice number %s already exists in company", apperrors.ErrDuplicate, m.Number)
		}
		return fmt.Errorf("failed to insert invoice %s: %w", m.InvoiceID, err)
	}

	if err := insertInvoiceLines(ctx, tx, invoice.Lines); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// UpdateDraftInvoice replaces the mutable fields and lines of a DRAFT invoice.
// The conditional status guard makes a concurrent finalize win over the edit.
func (r *PgxInvoiceRepository) UpdateDraftInvoice(ctx context.Context, invoice domain.Invoice) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelInvoice(invoice)
	query := `
		UPDATE invoices
		SET customer_id = $2, subtotal = $3, tax = $4, total = $5, due_date = $6, last_updated_at = $7, last_updated_by = $8
		WHERE invoice_id = $1 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.InvoiceID,
		m.CustomerID,
		m.Subtotal,
		m.Tax,
		m.Total,
		m.DueDate,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update draft invoice %s: %w", m.InvoiceID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindInvoiceByID(ctx, invoice.InvoiceID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: invoice %s is no longer a draft", apperrors.ErrConflict, invoice.InvoiceID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1;`, invoice.InvoiceID); err != nil {
		return fmt.Errorf("failed to clear lines of invoice %s: %w", invoice.InvoiceID, err)
	}
	if err := insertInvoiceLines(ctx, tx, invoice.Lines); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// UpdateInvoiceStatus records a status transition. The expectedStatus guard
// rejects lost transition races with apperrors.ErrConflict. Posted transaction
// linkage is written once and never overwritten.
func (r *PgxInvoiceRepository) UpdateInvoiceStatus(ctx context.Context, invoiceID string, expectedStatus, newStatus domain.InvoiceStatus, transactionID, paymentTxnID *string, userID string, now time.Time) error {
	query := `
		UPDATE invoices
		SET status = $3,
		    transaction_id = COALESCE(transaction_id, $4),
		    payment_txn_id = COALESCE(payment_txn_id, $5),
		    last_updated_at = $6,
		    last_updated_by = $7
		WHERE invoice_id = $1 AND status = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		invoiceID,
		string(expectedStatus),
		string(newStatus),
		transactionID,
		paymentTxnID,
		now,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update status of invoice %s: %w", invoiceID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindInvoiceByID(ctx, invoiceID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: invoice %s left status %s concurrently", apperrors.ErrConflict, invoiceID, expectedStatus)
	}
	return nil
}

// FindInvoiceByID retrieves an invoice and its lines.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = $1;`

	m, err := scanInvoice(r.Pool.QueryRow(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find invoice by ID %s: %w", invoiceID, err)
	}

	lines, err := r.findInvoiceLines(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	invoice := mapping.ToDomainInvoice(*m)
	invoice.Lines = lines
	return &invoice, nil
}

// FindInvoiceByNumber retrieves an invoice by its human-readable number within a company.
func (r *PgxInvoiceRepository) FindInvoiceByNumber(ctx context.Context, companyID string, number string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = $1 AND number = $2;`

	m, err := scanInvoice(r.Pool.QueryRow(ctx, query, companyID, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find invoice by number %s: %w", number, err)
	}

	lines, err := r.findInvoiceLines(ctx, m.InvoiceID)
	if err != nil {
		return nil, err
	}

	invoice := mapping.ToDomainInvoice(*m)
	invoice.Lines = lines
	return &invoice, nil
}

// ListInvoicesByCompany retrieves a paginated list of invoices, newest first.
func (r *PgxInvoiceRepository) ListInvoicesByCompany(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Invoice, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = $1`
	orderByClause := `ORDER BY created_at DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{companyID}

	if nextToken != nil && *nextToken != "" {
		_, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		cursorClause := `AND created_at < $2`
		args = append(args, lastCreatedAt)

		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query invoices for company %s: %w", companyID, err)
	}
	defer rows.Close()

	modelInvoices := make([]models.Invoice, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanInvoice(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan invoice row for company %s: %w", companyID, scanErr)
		}
		modelInvoices = append(modelInvoices, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating invoice rows for company %s: %w", companyID, err)
	}

	var nextTokenVal *string
	results := modelInvoices
	if len(modelInvoices) > limit {
		last := modelInvoices[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.CreatedAt)
		nextTokenVal = &token
		results = modelInvoices[:limit]
	}

	invoices := make([]domain.Invoice, len(results))
	for i, m := range results {
		lines, linesErr := r.findInvoiceLines(ctx, m.InvoiceID)
		if linesErr != nil {
			return nil, nil, linesErr
		}
		invoices[i] = mapping.ToDomainInvoice(m)
		invoices[i].Lines = lines
	}
	return invoices, nextTokenVal, nil
}

// FindPostingAccounts retrieves the per-company invoice posting configuration.
func (r *PgxInvoiceRepository) FindPostingAccounts(ctx context.Context, companyID string) (*domain.PostingAccounts, error) {
	query := `
		SELECT company_id, receivable_account_id, revenue_account_id, tax_payable_account_id, cash_account_id,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM posting_accounts
		WHERE company_id = $1;
	`
	var m models.PostingAccounts
	err := r.Pool.QueryRow(ctx, query, companyID).Scan(
		&m.CompanyID,
		&m.ReceivableAccountID,
		&m.RevenueAccountID,
		&m.TaxPayableAccountID,
		&m.CashAccountID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find posting accounts for company %s: %w", companyID, err)
	}

	cfg := mapping.ToDomainPostingAccounts(m)
	return &cfg, nil
}

// SavePostingAccounts upserts the per-company invoice posting configuration.
func (r *PgxInvoiceRepository) SavePostingAccounts(ctx context.Context, cfg domain.PostingAccounts) error {
	m := mapping.ToModelPostingAccounts(cfg)

	query := `
		INSERT INTO posting_accounts (company_id, receivable_account_id, revenue_account_id, tax_payable_account_id, cash_account_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (company_id) DO UPDATE
		SET receivable_account_id = EXCLUDED.receivable_account_id,
		    revenue_account_id = EXCLUDED.revenue_account_id,
		    tax_payable_account_id = EXCLUDED.tax_payable_account_id,
		    cash_account_id = EXCLUDED.cash_account_id,
		    last_updated_at = EXCLUDED.last_updated_at,
		    last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.Pool.Exec(ctx, query,
		m.CompanyID,
		m.ReceivableAccountID,
		m.RevenueAccountID,
		m.TaxPayableAccountID,
		m.CashAccountID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save posting accounts for company %s: %w", m.CompanyID, err)
	}
	return nil
}

func insertInvoiceLines(ctx context.Context, tx pgx.Tx, lines []domain.InvoiceLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO invoice_lines (line_id, invoice_id, description, quantity, unit_price, amount)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		ml := mapping.ToModelInvoiceLine(line)
		batch.Queue(query,
			ml.LineID,
			ml.InvoiceID,
			ml.Description,
			ml.Quantity,
			ml.UnitPrice,
			ml.Amount,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute invoice line batch: %w", err)
	}
	return nil
}

func (r *PgxInvoiceRepository) findInvoiceLines(ctx context.Context, invoiceID string) ([]domain.InvoiceLine, error) {
	query := `
		SELECT line_id, invoice_id, description, quantity, unit_price, amount
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY line_id;
	`
	rows, err := r.Pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines of invoice %s: %w", invoiceID, err)
	}
	defer rows.Close()

	lines := []models.InvoiceLine{}
	for rows.Next() {
		var l models.InvoiceLine
		if err := rows.Scan(&l.LineID, &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPrice, &l.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line row for invoice %s: %w", invoiceID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice line rows for invoice %s: %w", invoiceID, err)
	}

	return mapping.ToDomainInvoiceLineSlice(lines), nil
}
