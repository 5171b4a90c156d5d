package domain

// PostingAccounts configures which ledger accounts invoice lifecycle postings
// touch. One row per company, set administratively before invoices can be
// finalized.
type PostingAccounts struct {
	CompanyID            string `json:"companyID"`
	ReceivableAccountID  string `json:"receivableAccountID"`  // Debited on finalize
	RevenueAccountID     string `json:"revenueAccountID"`     // Credited with the subtotal
	TaxPayableAccountID  string `json:"taxPayableAccountID"`  // Credited with the tax portion
	CashAccountID        string `json:"cashAccountID"`        // Debited on payment
	AuditFields
}
