package domain

import "time"

// OperationKind namespaces idempotency keys so the same caller key can be
// reused across unrelated operations.
type OperationKind string

const (
	OpPostTransaction OperationKind = "transaction.post"
	OpVoidTransaction OperationKind = "transaction.void"
	OpFinalizeInvoice OperationKind = "invoice.finalize"
	OpInvoicePayment  OperationKind = "invoice.payment"
)

// IdempotencyRecord stores the result of a completed mutating operation keyed
// by (company, operation kind, caller-supplied key). A retried request with the
// same key replays ResultID instead of re-executing side effects.
type IdempotencyRecord struct {
	CompanyID     string        `json:"companyID"`
	OperationKind OperationKind `json:"operationKind"`
	Key           string        `json:"key"`
	ResultID      string        `json:"resultID"` // TransactionID or InvoiceID produced by the first execution
	CreatedAt     time.Time     `json:"createdAt"`
	ExpiresAt     time.Time     `json:"expiresAt"`
}
