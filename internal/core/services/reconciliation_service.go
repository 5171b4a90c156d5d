package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/dto"
	"github.com/quillbooks/quillbooks/internal/importer"
	"github.com/quillbooks/quillbooks/internal/middleware"
)

var (
	ErrAlreadyReconciled = errors.New("bank transaction is already reconciled")
	ErrAccountMismatch   = errors.New("transaction does not touch the bank account of the statement line")
)

// reconciliationService pairs imported bank statement lines with posted ledger
// transactions. Automatic matching is strict (exact amount, unique candidate);
// manual matching relaxes the amount rule but never the account rule.
type reconciliationService struct {
	bankRepo   portsrepo.BankRepositoryFacade
	txnRepo    portsrepo.TransactionRepositoryFacade
	accountSvc portssvc.AccountReaderSvc
	windowDays int
}

// NewReconciliationService creates a new reconciliation service. windowDays
// bounds how far from a bank line's date candidate transactions are considered.
func NewReconciliationService(bankRepo portsrepo.BankRepositoryFacade, txnRepo portsrepo.TransactionRepositoryFacade, accountSvc portssvc.AccountReaderSvc, windowDays int) portssvc.ReconciliationSvcFacade {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &reconciliationService{
		bankRepo:   bankRepo,
		txnRepo:    txnRepo,
		accountSvc: accountSvc,
		windowDays: windowDays,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// ImportStatement parses an uploaded CSV statement and stores its rows as
// unreconciled bank transactions attached to the given bank account.
func (s *reconciliationService) ImportStatement(ctx context.Context, companyID string, accountID string, r io.Reader, userID string) (*dto.ImportStatementResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountSvc.GetAccountByID(ctx, companyID, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, accountID)
	}

	rows, err := importer.ParseStatement(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &dto.ImportStatementResponse{Imported: 0, BankTransactions: []domain.BankTransaction{}}, nil
	}

	now := time.Now().UTC()
	lines := make([]domain.BankTransaction, len(rows))
	for i, row := range rows {
		lines[i] = domain.BankTransaction{
			BankTransactionID: uuid.NewString(),
			CompanyID:         companyID,
			AccountID:         accountID,
			Date:              row.Date,
			Description:       row.Description,
			Amount:            row.Amount,
			Reference:         row.Reference,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	if err := s.bankRepo.SaveBankTransactions(ctx, lines); err != nil {
		logger.Error("Failed to save imported bank lines", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save bank transactions: %w", err)
	}

	logger.Info("Bank statement imported",
		slog.String("account_id", accountID),
		slog.Int("lines", len(lines)))
	return &dto.ImportStatementResponse{Imported: len(lines), BankTransactions: lines}, nil
}

// Match attempts to reconcile one bank line against the ledger. A candidate
// must touch the same account, not be void or reconciled, and have a signed
// effect exactly equal to the bank line's amount. Only a single candidate in
// the window is matched automatically.
func (s *reconciliationService) Match(ctx context.Context, companyID string, bankTransactionID string) (*domain.MatchResult, error) {
	bankTxn, err := s.getCompanyBankTransaction(ctx, companyID, bankTransactionID)
	if err != nil {
		return nil, err
	}
	if bankTxn.IsReconciled {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyReconciled, bankTransactionID)
	}

	window := time.Duration(s.windowDays) * 24 * time.Hour
	return s.matchOne(ctx, bankTxn, bankTxn.Date.Add(-window), bankTxn.Date.Add(window))
}

// AutoMatch runs the matching rule over every unreconciled line of the
// account. The candidate set is read per line, so a line matched by a
// concurrent run simply loses the conditional update and is reported as a
// conflict rather than matched twice.
func (s *reconciliationService) AutoMatch(ctx context.Context, companyID string, accountID string, req dto.AutoMatchRequest) ([]domain.MatchResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountSvc.GetAccountByID(ctx, companyID, accountID); err != nil {
		return nil, err
	}

	lines, err := s.bankRepo.ListBankTransactions(ctx, companyID, &accountID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank transactions: %w", err)
	}

	window := time.Duration(s.windowDays) * 24 * time.Hour
	results := make([]domain.MatchResult, 0, len(lines))
	for i := range lines {
		line := lines[i]
		from := line.Date.Add(-window)
		to := line.Date.Add(window)
		if req.From != nil && req.From.After(from) {
			from = *req.From
		}
		if req.To != nil && req.To.Before(to) {
			to = *req.To
		}

		result, err := s.matchOne(ctx, &line, from, to)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				// Another run got there first. Skip, state is already consistent.
				logger.Warn("Bank line reconciled concurrently", slog.String("bank_transaction_id", line.BankTransactionID))
				continue
			}
			return nil, err
		}
		results = append(results, *result)
	}

	logger.Info("Auto-match completed",
		slog.String("account_id", accountID),
		slog.Int("processed", len(results)))
	return results, nil
}

func (s *reconciliationService) matchOne(ctx context.Context, bankTxn *domain.BankTransaction, from, to time.Time) (*domain.MatchResult, error) {
	candidates, err := s.txnRepo.FindMatchCandidates(ctx, bankTxn.CompanyID, bankTxn.AccountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to find match candidates: %w", err)
	}

	eligible := make([]domain.MatchCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Effect.Equal(bankTxn.Amount) {
			eligible = append(eligible, c)
		}
	}

	result := domain.MatchResult{
		BankTransactionID: bankTxn.BankTransactionID,
		CandidateCount:    len(eligible),
	}
	switch len(eligible) {
	case 0:
		result.Status = domain.MatchUnmatched
		return &result, nil
	case 1:
		if err := s.applyMatch(ctx, bankTxn.BankTransactionID, eligible[0].TransactionID); err != nil {
			return nil, err
		}
		result.Status = domain.MatchMatched
		result.MatchedTransactionID = &eligible[0].TransactionID
		return &result, nil
	default:
		// Prefer the closest date, ties broken by creation order. The ordering
		// is reported for manual resolution; ambiguity still blocks auto-match.
		sortCandidates(eligible, bankTxn.Date)
		result.Status = domain.MatchAmbiguous
		result.Candidates = eligible
		return &result, nil
	}
}

// applyMatch sets the reconciliation flags on both sides. Each side is a
// conditional update that fails when already reconciled, so a concurrent
// matcher cannot pair the same line or transaction twice.
func (s *reconciliationService) applyMatch(ctx context.Context, bankTransactionID, transactionID string) error {
	if err := s.txnRepo.SetTransactionReconciled(ctx, transactionID, bankTransactionID); err != nil {
		return err
	}
	if err := s.bankRepo.SetBankTransactionMatched(ctx, bankTransactionID, transactionID); err != nil {
		// Roll the ledger side back so the transaction stays matchable.
		if clearErr := s.txnRepo.ClearTransactionReconciled(ctx, transactionID); clearErr != nil {
			return fmt.Errorf("failed to undo transaction reconciliation: %w", clearErr)
		}
		return err
	}
	return nil
}

// ManualMatch pairs a bank line with an operator-chosen transaction. The
// amount-equality rule is bypassed to allow partial and split matches; the
// transaction must still touch the statement's bank account and not be void.
func (s *reconciliationService) ManualMatch(ctx context.Context, companyID string, bankTransactionID string, transactionID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	bankTxn, err := s.getCompanyBankTransaction(ctx, companyID, bankTransactionID)
	if err != nil {
		return err
	}
	if bankTxn.IsReconciled {
		return fmt.Errorf("%w: %s", ErrAlreadyReconciled, bankTransactionID)
	}

	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if txn.CompanyID != companyID {
		return apperrors.ErrNotFound
	}
	if txn.IsVoid {
		return fmt.Errorf("%w: transaction %s is void", apperrors.ErrValidation, transactionID)
	}
	if txn.IsReconciled {
		return fmt.Errorf("%w: transaction %s", ErrAlreadyReconciled, transactionID)
	}
	touchesAccount := false
	for _, line := range txn.Lines {
		if line.AccountID == bankTxn.AccountID {
			touchesAccount = true
			break
		}
	}
	if !touchesAccount {
		return fmt.Errorf("%w: transaction %s, account %s", ErrAccountMismatch, transactionID, bankTxn.AccountID)
	}

	if err := s.applyMatch(ctx, bankTransactionID, transactionID); err != nil {
		return err
	}

	logger.Info("Bank line matched manually",
		slog.String("bank_transaction_id", bankTransactionID),
		slog.String("transaction_id", transactionID))
	return nil
}

// Unmatch clears the linkage on both sides. The ledger transaction itself is
// untouched.
func (s *reconciliationService) Unmatch(ctx context.Context, companyID string, bankTransactionID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	bankTxn, err := s.getCompanyBankTransaction(ctx, companyID, bankTransactionID)
	if err != nil {
		return err
	}
	if !bankTxn.IsReconciled || bankTxn.MatchedTxnID == nil {
		return fmt.Errorf("%w: bank transaction %s is not reconciled", apperrors.ErrValidation, bankTransactionID)
	}

	if err := s.txnRepo.ClearTransactionReconciled(ctx, *bankTxn.MatchedTxnID); err != nil {
		return err
	}
	if err := s.bankRepo.ClearBankTransactionMatched(ctx, bankTransactionID); err != nil {
		// Restore the ledger side so the pair is either fully linked or fully cleared.
		if restoreErr := s.txnRepo.SetTransactionReconciled(ctx, *bankTxn.MatchedTxnID, bankTransactionID); restoreErr != nil {
			return fmt.Errorf("failed to restore transaction reconciliation: %w", restoreErr)
		}
		return err
	}

	logger.Info("Bank line unmatched", slog.String("bank_transaction_id", bankTransactionID))
	return nil
}

// ListBankTransactions retrieves imported bank lines with optional filters.
func (s *reconciliationService) ListBankTransactions(ctx context.Context, companyID string, params dto.ListBankTransactionsParams) ([]domain.BankTransaction, error) {
	return s.bankRepo.ListBankTransactions(ctx, companyID, params.AccountID, params.UnreconciledOnly)
}

func (s *reconciliationService) getCompanyBankTransaction(ctx context.Context, companyID, bankTransactionID string) (*domain.BankTransaction, error) {
	bankTxn, err := s.bankRepo.FindBankTransactionByID(ctx, bankTransactionID)
	if err != nil {
		return nil, err
	}
	if bankTxn.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	return bankTxn, nil
}

func sortCandidates(candidates []domain.MatchCandidate, target time.Time) {
	sort.Slice(candidates, func(i, j int) bool {
		di := absDuration(candidates[i].Date.Sub(target))
		dj := absDuration(candidates[j].Date.Sub(target))
		if di != dj {
			return di < dj
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
