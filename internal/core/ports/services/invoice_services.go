package services

import (
	"context"

	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/dto"
)

// InvoiceSvcFacade drives the invoice lifecycle. Transitions that enter a
// posted state hand a posting effect to the ledger engine under a derived
// idempotency key, so retried finalize calls never double-post.
type InvoiceSvcFacade interface {
	CreateInvoice(ctx context.Context, companyID string, req dto.CreateInvoiceRequest, userID string) (*domain.Invoice, error)
	GetInvoiceByID(ctx context.Context, companyID string, invoiceID string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, companyID string, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error)

	// UpdateInvoice edits a DRAFT invoice. Finalized invoices are immutable
	// except for status.
	UpdateInvoice(ctx context.Context, companyID string, invoiceID string, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error)

	// TransitionInvoice applies a lifecycle transition, posting to the ledger
	// when the transition requires it (finalize on first entry into SENT,
	// cash receipt on PAID).
	TransitionInvoice(ctx context.Context, companyID string, invoiceID string, req dto.TransitionInvoiceRequest, userID string) (*domain.Invoice, error)

	// SetPostingAccounts configures the per-company accounts invoice postings touch.
	SetPostingAccounts(ctx context.Context, companyID string, req dto.PostingAccountsRequest, userID string) (*domain.PostingAccounts, error)
}
