package dto

import (
	"time"

	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InvoiceLineRequest is one billed row of an invoice draft.
type InvoiceLineRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required"`
}

// CreateInvoiceRequest defines the data needed to create a draft invoice.
type CreateInvoiceRequest struct {
	Number     string               `json:"number" binding:"required"`
	CustomerID string               `json:"customerID" binding:"required"`
	DueDate    time.Time            `json:"dueDate" binding:"required"`
	Tax        decimal.Decimal      `json:"tax"`
	Lines      []InvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// UpdateInvoiceRequest replaces the mutable fields of a DRAFT invoice.
type UpdateInvoiceRequest struct {
	CustomerID *string              `json:"customerID"`
	DueDate    *time.Time           `json:"dueDate"`
	Tax        *decimal.Decimal     `json:"tax"`
	Lines      []InvoiceLineRequest `json:"lines" binding:"omitempty,min=1,dive"`
}

// TransitionInvoiceRequest moves an invoice along its lifecycle. Transitions
// that post to the ledger (finalize, payment) dedupe on the idempotency key.
type TransitionInvoiceRequest struct {
	Status         domain.InvoiceStatus `json:"status" binding:"required,oneof=SENT VIEWED PAID OVERDUE CANCELLED"`
	IdempotencyKey string               `json:"idempotencyKey" binding:"required"`
}

// PostingAccountsRequest configures the ledger accounts invoice postings touch.
type PostingAccountsRequest struct {
	ReceivableAccountID string `json:"receivableAccountID" binding:"required"`
	RevenueAccountID    string `json:"revenueAccountID" binding:"required"`
	TaxPayableAccountID string `json:"taxPayableAccountID" binding:"required"`
	CashAccountID       string `json:"cashAccountID" binding:"required"`
}

// ListInvoicesParams holds query parameters for listing invoices.
type ListInvoicesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// InvoiceResponse is an invoice with its passively computed effective status.
type InvoiceResponse struct {
	domain.Invoice
	EffectiveStatus domain.InvoiceStatus `json:"effectiveStatus"`
}

// ListInvoicesResponse is a page of invoices plus the cursor for the next page.
type ListInvoicesResponse struct {
	Invoices  []InvoiceResponse `json:"invoices"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToInvoiceResponse resolves the passive overdue state for presentation.
func ToInvoiceResponse(inv domain.Invoice, now time.Time) InvoiceResponse {
	return InvoiceResponse{Invoice: inv, EffectiveStatus: inv.EffectiveStatus(now)}
}
