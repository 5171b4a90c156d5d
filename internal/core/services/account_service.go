package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/dto"
	"github.com/quillbooks/quillbooks/internal/middleware"
)

var (
	ErrDuplicateCode = errors.New("account code already exists in company")
	ErrInvalidParent = errors.New("parent account does not exist or would create a cycle")
)

// maxHierarchyDepth bounds ancestor walks so a corrupted parent chain cannot
// loop forever.
const maxHierarchyDepth = 64

// accountService owns the chart-of-accounts hierarchy and per-account balances.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates a new account service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount registers a new chart-of-accounts node.
func (s *accountService) CreateAccount(ctx context.Context, companyID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, req.AccountType)
	}

	// Code collision check. The unique index catches races; this gives the
	// caller a precise error on the common path.
	if existing, err := s.accountRepo.FindAccountByCode(ctx, companyID, req.Code); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check account code: %w", err)
	} else if existing != nil {
		return nil, fmt.Errorf("%w: code %s", ErrDuplicateCode, req.Code)
	}

	if req.ParentAccountID != nil {
		parent, err := s.accountRepo.FindAccountByID(ctx, *req.ParentAccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent %s not found", ErrInvalidParent, *req.ParentAccountID)
			}
			return nil, fmt.Errorf("failed to fetch parent account: %w", err)
		}
		if parent.CompanyID != companyID {
			return nil, fmt.Errorf("%w: parent %s belongs to a different company", ErrInvalidParent, *req.ParentAccountID)
		}
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		CompanyID:       companyID,
		Code:            req.Code,
		Name:            req.Name,
		AccountType:     req.AccountType,
		ParentAccountID: req.ParentAccountID,
		Description:     req.Description,
		IsActive:        true,
		Balance:         decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: code %s", ErrDuplicateCode, req.Code)
		}
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("company_id", companyID))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

// UpdateAccount changes name, description, or parent. Reparenting walks the
// proposed ancestor chain and rejects cycles.
func (s *accountService) UpdateAccount(ctx context.Context, companyID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.getCompanyAccount(ctx, companyID, accountID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Name != nil {
		account.Name = *req.Name
		updated = true
	}
	if req.Description != nil {
		account.Description = *req.Description
		updated = true
	}
	if req.ParentAccountID != nil {
		if err := s.validateReparent(ctx, companyID, accountID, *req.ParentAccountID); err != nil {
			return nil, err
		}
		account.ParentAccountID = req.ParentAccountID
		updated = true
	}

	if !updated {
		return account, nil
	}

	account.LastUpdatedAt = time.Now().UTC()
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	logger.Info("Account updated", slog.String("account_id", accountID))
	return account, nil
}

// validateReparent rejects a parent change that would detach the node from the
// company or introduce a cycle. The cycle check walks ancestors of the new
// parent: if it reaches the account being reparented, the new parent is a
// descendant of it.
func (s *accountService) validateReparent(ctx context.Context, companyID, accountID, newParentID string) error {
	if newParentID == accountID {
		return fmt.Errorf("%w: account cannot be its own parent", ErrInvalidParent)
	}

	currentID := newParentID
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		parent, err := s.accountRepo.FindAccountByID(ctx, currentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: parent %s not found", ErrInvalidParent, newParentID)
			}
			return fmt.Errorf("failed to walk account ancestors: %w", err)
		}
		if parent.CompanyID != companyID {
			return fmt.Errorf("%w: parent %s belongs to a different company", ErrInvalidParent, newParentID)
		}
		if parent.AccountID == accountID {
			return fmt.Errorf("%w: parent %s is a descendant of account %s", ErrInvalidParent, newParentID, accountID)
		}
		if parent.ParentAccountID == nil {
			return nil
		}
		currentID = *parent.ParentAccountID
	}
	return fmt.Errorf("%w: ancestor chain exceeds depth %d", ErrInvalidParent, maxHierarchyDepth)
}

// DeactivateAccount marks an account as inactive. Accounts with postings are
// never deleted.
func (s *accountService) DeactivateAccount(ctx context.Context, companyID string, accountID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.getCompanyAccount(ctx, companyID, accountID); err != nil {
		return err
	}

	if err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now().UTC()); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrValidation) {
			logger.Error("Failed to deactivate account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return err
	}

	logger.Info("Account deactivated", slog.String("account_id", accountID))
	return nil
}

// GetAccountByID retrieves an account, scoped to the company.
func (s *accountService) GetAccountByID(ctx context.Context, companyID string, accountID string) (*domain.Account, error) {
	return s.getCompanyAccount(ctx, companyID, accountID)
}

// GetAccountsByIDs retrieves multiple accounts, all of which must belong to the company.
func (s *accountService) GetAccountsByIDs(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for id, acc := range accounts {
		if acc.CompanyID != companyID {
			// Obscure existence of accounts outside the company.
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
	}
	return accounts, nil
}

// GetBalance computes the signed balance of an account as of the given time.
// It always recomputes from posting lines; the cached balance column is only
// an optimization used by listings and must agree with this.
func (s *accountService) GetBalance(ctx context.Context, companyID string, accountID string, asOf *time.Time) (decimal.Decimal, error) {
	if _, err := s.getCompanyAccount(ctx, companyID, accountID); err != nil {
		return decimal.Zero, err
	}

	cutoff := time.Now().UTC()
	if asOf != nil {
		cutoff = *asOf
	}

	balance, err := s.accountRepo.SumPostedLines(ctx, accountID, cutoff)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute balance for account %s: %w", accountID, err)
	}
	return balance, nil
}

// ListHierarchy returns the chart of accounts as a forest. Records are held in
// an arena keyed by id with parent references; children are derived here by a
// single index pass rather than stored.
func (s *accountService) ListHierarchy(ctx context.Context, companyID string, rootID *string) ([]*domain.AccountNode, error) {
	accounts, err := s.accountRepo.ListAccountsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	arena := make(map[string]*domain.AccountNode, len(accounts))
	for _, acc := range accounts {
		arena[acc.AccountID] = &domain.AccountNode{Account: acc}
	}

	var roots []*domain.AccountNode
	for _, node := range arena {
		if node.ParentAccountID != nil {
			if parent, ok := arena[*node.ParentAccountID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	for _, node := range arena {
		sortNodesByCode(node.Children)
	}
	sortNodesByCode(roots)

	if rootID != nil {
		root, ok := arena[*rootID]
		if !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, *rootID)
		}
		return []*domain.AccountNode{root}, nil
	}
	return roots, nil
}

func sortNodesByCode(nodes []*domain.AccountNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Code < nodes[j].Code })
}

func (s *accountService) getCompanyAccount(ctx context.Context, companyID, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	return account, nil
}
