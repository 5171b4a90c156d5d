package services

import (
	"context"
	"time"

	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountReaderSvc defines read operations over the chart of accounts.
type AccountReaderSvc interface {
	GetAccountByID(ctx context.Context, companyID string, accountID string) (*domain.Account, error)
	GetAccountsByIDs(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error)

	// GetBalance computes the signed balance of an account as of the given
	// time (nil means now), from non-void posting lines.
	GetBalance(ctx context.Context, companyID string, accountID string, asOf *time.Time) (decimal.Decimal, error)

	// ListHierarchy returns the chart of accounts as a forest, optionally
	// rooted at one account.
	ListHierarchy(ctx context.Context, companyID string, rootID *string) ([]*domain.AccountNode, error)
}

// AccountWriterSvc defines mutating operations over the chart of accounts.
type AccountWriterSvc interface {
	CreateAccount(ctx context.Context, companyID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
	UpdateAccount(ctx context.Context, companyID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)
	DeactivateAccount(ctx context.Context, companyID string, accountID string, userID string) error
}

// AccountSvcFacade combines all account service interfaces.
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
