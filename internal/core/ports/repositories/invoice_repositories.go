package repositories

import (
	"context"
	"time"

	"github.com/quillbooks/quillbooks/internal/core/domain"
)

// InvoiceReader defines read operations for invoice data.
type InvoiceReader interface {
	// FindInvoiceByID retrieves an invoice and its lines.
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// FindInvoiceByNumber retrieves an invoice by its human-readable number within a company.
	FindInvoiceByNumber(ctx context.Context, companyID string, number string) (*domain.Invoice, error)

	// ListInvoicesByCompany retrieves a paginated list of invoices, newest first.
	ListInvoicesByCompany(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Invoice, *string, error)
}

// InvoiceWriter defines write operations for invoice data.
type InvoiceWriter interface {
	// SaveInvoice persists a new draft invoice with its lines.
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error

	// UpdateDraftInvoice replaces the mutable fields and lines of a DRAFT
	// invoice. It fails with apperrors.ErrConflict when the stored invoice has
	// left DRAFT (conditional update).
	UpdateDraftInvoice(ctx context.Context, invoice domain.Invoice) error

	// UpdateInvoiceStatus records a status transition and, when provided, the
	// posted transaction linkage. The conditional expectedStatus guard makes
	// concurrent transitions of the same invoice lose cleanly.
	UpdateInvoiceStatus(ctx context.Context, invoiceID string, expectedStatus, newStatus domain.InvoiceStatus, transactionID, paymentTxnID *string, userID string, now time.Time) error
}

// PostingAccountsRepository stores the per-company account mapping used by
// invoice finalize/payment postings.
type PostingAccountsRepository interface {
	FindPostingAccounts(ctx context.Context, companyID string) (*domain.PostingAccounts, error)
	SavePostingAccounts(ctx context.Context, cfg domain.PostingAccounts) error
}

// InvoiceRepositoryFacade combines all invoice-related repository interfaces.
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
	PostingAccountsRepository
}
