package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five known account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// Account represents one node of the chart of accounts.
// This is the primary representation used by services.
type Account struct {
	AccountID       string          `json:"accountID"` // Primary key (UUID)
	CompanyID       string          `json:"companyID"` // FK -> companies.company_id (NON-NULL)
	Code            string          `json:"code"`      // Hierarchical code, unique per company (e.g. "1101-01")
	Name            string          `json:"name"`
	AccountType     AccountType     `json:"accountType"`
	ParentAccountID *string         `json:"parentAccountID,omitempty"` // Weak self-reference, forms a tree
	Description     string          `json:"description"`
	IsActive        bool            `json:"isActive"`
	Balance         decimal.Decimal `json:"balance"` // Cached balance; recomputable from postings
	AuditFields
}

// AccountNode is an Account with its children resolved, used by hierarchy listings.
type AccountNode struct {
	Account
	Children []*AccountNode `json:"children"`
}
