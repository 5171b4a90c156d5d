package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceSent      InvoiceStatus = "SENT"
	InvoiceViewed    InvoiceStatus = "VIEWED"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// ErrInvalidTransition is returned when an invoice status change is not an
// edge of the lifecycle graph.
var ErrInvalidTransition = errors.New("invalid invoice status transition")

// PostingEffect describes the ledger side effect a status transition requires.
// The state machine itself never posts; the invoice service interprets the
// effect and calls the ledger.
type PostingEffect int

const (
	EffectNone PostingEffect = iota
	// EffectFinalize posts the receivable/revenue/tax entry. Emitted exactly
	// once, on first entry into a posted state.
	EffectFinalize
	// EffectPayment posts the cash receipt entry.
	EffectPayment
)

// invoiceTransitions is the full set of allowed status edges.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:   {InvoiceSent, InvoiceCancelled},
	InvoiceSent:    {InvoiceViewed, InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceViewed:  {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue: {InvoicePaid, InvoiceCancelled},
	// PAID and CANCELLED are terminal.
}

// InvoiceLine is one billed row of an invoice.
type InvoiceLine struct {
	LineID      string          `json:"lineID"`
	InvoiceID   string          `json:"invoiceID"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"` // Quantity * UnitPrice
}

// Invoice is a customer invoice. It is mutable while DRAFT and immutable
// (except status) once finalized into the ledger.
type Invoice struct {
	InvoiceID     string          `json:"invoiceID"`
	CompanyID     string          `json:"companyID"`
	Number        string          `json:"number"` // Unique per company
	CustomerID    string          `json:"customerID"`
	Lines         []InvoiceLine   `json:"lines,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	DueDate       time.Time       `json:"dueDate"`
	Status        InvoiceStatus   `json:"status"`
	TransactionID *string         `json:"transactionID,omitempty"`        // Finalize posting, set once
	PaymentTxnID  *string         `json:"paymentTransactionID,omitempty"` // Cash receipt posting, set once
	AuditFields
}

// Transition validates a status change and reports the ledger effect it
// carries. The invoice itself is not mutated.
func (inv Invoice) Transition(target InvoiceStatus) (PostingEffect, error) {
	allowed := false
	for _, next := range invoiceTransitions[inv.Status] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return EffectNone, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, target)
	}

	switch {
	case inv.Status == InvoiceDraft && target == InvoiceSent:
		return EffectFinalize, nil
	case target == InvoicePaid:
		return EffectPayment, nil
	default:
		// VIEWED, OVERDUE and CANCELLED never post by themselves.
		return EffectNone, nil
	}
}

// EffectiveStatus resolves the passive OVERDUE state: an unpaid invoice past
// its due date reads as overdue without a stored transition.
func (inv Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if (inv.Status == InvoiceSent || inv.Status == InvoiceViewed) && inv.DueDate.Before(now) {
		return InvoiceOverdue
	}
	return inv.Status
}

// Recalculate derives line amounts and invoice totals from quantities and
// unit prices. Tax is kept as provided by the caller.
func (inv *Invoice) Recalculate() {
	subtotal := decimal.Zero
	for i := range inv.Lines {
		inv.Lines[i].Amount = inv.Lines[i].Quantity.Mul(inv.Lines[i].UnitPrice)
		subtotal = subtotal.Add(inv.Lines[i].Amount)
	}
	inv.Subtotal = subtotal
	inv.Total = subtotal.Add(inv.Tax)
}
