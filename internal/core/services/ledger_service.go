package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/dto"
	"github.com/quillbooks/quillbooks/internal/middleware"
	"github.com/quillbooks/quillbooks/internal/utils/accounting"
)

var (
	ErrUnbalancedEntry = errors.New("transaction debits and credits do not balance")
	ErrPeriodLocked    = errors.New("transaction date falls within a locked accounting period")
	ErrMinLines        = errors.New("transaction must have at least two lines")
	ErrMinAccounts     = errors.New("transaction must affect at least two different accounts")
	ErrAlreadyVoid     = errors.New("transaction is already void")
	ErrVoidOfReversal  = errors.New("cannot void a reversing transaction")
)

// LedgerConfig tunes the posting engine.
type LedgerConfig struct {
	// PostRetryAttempts bounds transparent retries after lost concurrency races.
	PostRetryAttempts int
	// IdempotencyTTL is how long completed operation results are replayable.
	IdempotencyTTL time.Duration
}

// ledgerService validates and appends balanced transactions, maintains the
// append-only ledger, and keeps account balances consistent with it.
type ledgerService struct {
	txnRepo    portsrepo.TransactionRepositoryFacade
	idemRepo   portsrepo.IdempotencyRepository
	periodRepo portsrepo.PeriodReader
	accountSvc portssvc.AccountReaderSvc
	cfg        LedgerConfig
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(txnRepo portsrepo.TransactionRepositoryFacade, idemRepo portsrepo.IdempotencyRepository, periodRepo portsrepo.PeriodReader, accountSvc portssvc.AccountReaderSvc, cfg LedgerConfig) portssvc.LedgerSvcFacade {
	if cfg.PostRetryAttempts <= 0 {
		cfg.PostRetryAttempts = 3
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &ledgerService{
		txnRepo:    txnRepo,
		idemRepo:   idemRepo,
		periodRepo: periodRepo,
		accountSvc: accountSvc,
		cfg:        cfg,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// PostTransaction validates and atomically appends a balanced transaction.
// Steps, in order: idempotency lookup, structural validation, balance
// validation, period-lock validation, atomic append with the idempotency key
// recorded in the same unit.
func (s *ledgerService) PostTransaction(ctx context.Context, companyID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// 1. Idempotency fast path: a key seen before replays the prior result
	// without re-validating or re-posting.
	if prior, err := s.replayIfSeen(ctx, companyID, domain.OpPostTransaction, req.IdempotencyKey); err != nil {
		return nil, err
	} else if prior != nil {
		logger.Info("Replaying idempotent post", slog.String("transaction_id", prior.TransactionID))
		return prior, nil
	}

	// 2. Structural validation.
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, req.Type)
	}
	if len(req.Lines) < 2 {
		return nil, ErrMinLines
	}
	accountIDs := make([]string, 0, len(req.Lines))
	accountSet := make(map[string]struct{})
	for _, lineReq := range req.Lines {
		if lineReq.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: line amount must be positive for account %s", apperrors.ErrValidation, lineReq.AccountID)
		}
		if lineReq.Side != domain.Debit && lineReq.Side != domain.Credit {
			return nil, fmt.Errorf("%w: line side must be DEBIT or CREDIT", apperrors.ErrValidation)
		}
		if _, seen := accountSet[lineReq.AccountID]; !seen {
			accountSet[lineReq.AccountID] = struct{}{}
			accountIDs = append(accountIDs, lineReq.AccountID)
		}
	}
	if len(accountSet) < 2 {
		return nil, ErrMinAccounts
	}

	accountsMap, err := s.accountSvc.GetAccountsByIDs(ctx, companyID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range accountIDs {
		acc, found := accountsMap[id]
		if !found {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
		}
	}

	now := time.Now().UTC()
	transactionID := uuid.NewString()
	lines := make([]domain.Line, len(req.Lines))
	for i, lineReq := range req.Lines {
		lines[i] = domain.Line{
			LineID:        uuid.NewString(),
			TransactionID: transactionID,
			AccountID:     lineReq.AccountID,
			Amount:        lineReq.Amount,
			Side:          lineReq.Side,
			Notes:         lineReq.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	// 3. Balance validation: sum of debits must equal sum of credits exactly.
	debits, credits := accounting.SumSides(lines)
	if !debits.Equal(credits) {
		return nil, fmt.Errorf("%w: debits sum is %s and credits sum is %s", ErrUnbalancedEntry, debits.String(), credits.String())
	}

	// 4. Period-lock validation, at calendar-day granularity.
	locked, err := s.periodRepo.IsDateLocked(ctx, companyID, domain.DayStart(req.Date))
	if err != nil {
		return nil, fmt.Errorf("failed to check period lock: %w", err)
	}
	if locked {
		return nil, fmt.Errorf("%w: %s", ErrPeriodLocked, req.Date.Format("2006-01-02"))
	}

	balanceChanges, err := s.calculateBalanceChanges(lines, accountsMap)
	if err != nil {
		return nil, err
	}

	txn := domain.Transaction{
		TransactionID: transactionID,
		CompanyID:     companyID,
		Date:          req.Date,
		Type:          req.Type,
		Description:   req.Description,
		Reference:     req.Reference,
		TotalAmount:   debits,
		Lines:         lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	record := s.newIdempotencyRecord(companyID, domain.OpPostTransaction, req.IdempotencyKey, transactionID, now)

	// 5+6. Atomic append with the key recorded in the same unit.
	saved, err := s.saveWithRetry(ctx, func() (*domain.Transaction, error) {
		return s.txnRepo.SaveTransaction(ctx, txn, balanceChanges, &record)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction posted",
		slog.String("transaction_id", saved.TransactionID),
		slog.String("transaction_number", saved.TransactionNumber),
		slog.String("total", saved.TotalAmount.String()))
	return saved, nil
}

// VoidTransaction creates a mirror-image reversing transaction and marks the
// original void. The original is never mutated beyond the void flag.
func (s *ledgerService) VoidTransaction(ctx context.Context, companyID string, transactionID string, req dto.VoidTransactionRequest, userID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Reason == "" {
		return nil, fmt.Errorf("%w: void reason is required", apperrors.ErrValidation)
	}

	if prior, err := s.replayIfSeen(ctx, companyID, domain.OpVoidTransaction, req.IdempotencyKey); err != nil {
		return nil, err
	} else if prior != nil {
		return prior, nil
	}

	original, err := s.GetTransactionByID(ctx, companyID, transactionID)
	if err != nil {
		return nil, err
	}
	if original.IsVoid {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyVoid, transactionID)
	}
	if original.ReversesTransactionID != nil {
		return nil, fmt.Errorf("%w: %s", ErrVoidOfReversal, transactionID)
	}

	now := time.Now().UTC()
	reversalDate := now
	if req.Date != nil {
		reversalDate = *req.Date
	}

	// The reversal is a new posting; its own date must not fall in a locked period.
	locked, err := s.periodRepo.IsDateLocked(ctx, companyID, domain.DayStart(reversalDate))
	if err != nil {
		return nil, fmt.Errorf("failed to check period lock: %w", err)
	}
	if locked {
		return nil, fmt.Errorf("%w: %s", ErrPeriodLocked, reversalDate.Format("2006-01-02"))
	}

	accountIDs := make([]string, 0, len(original.Lines))
	for _, line := range original.Lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	accountsMap, err := s.accountSvc.GetAccountsByIDs(ctx, companyID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for reversal: %w", err)
	}

	reversalID := uuid.NewString()
	reversalLines := make([]domain.Line, len(original.Lines))
	for i, origLine := range original.Lines {
		side := domain.Credit
		if origLine.Side == domain.Credit {
			side = domain.Debit
		}
		reversalLines[i] = domain.Line{
			LineID:        uuid.NewString(),
			TransactionID: reversalID,
			AccountID:     origLine.AccountID,
			Amount:        origLine.Amount,
			Side:          side,
			Notes:         origLine.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	balanceChanges, err := s.calculateBalanceChanges(reversalLines, accountsMap)
	if err != nil {
		return nil, err
	}

	reversal := domain.Transaction{
		TransactionID:         reversalID,
		CompanyID:             companyID,
		Date:                  reversalDate,
		Type:                  original.Type,
		Description:           fmt.Sprintf("Reversal of %s: %s", original.TransactionNumber, req.Reason),
		Reference:             original.Reference,
		TotalAmount:           original.TotalAmount,
		ReversesTransactionID: &original.TransactionID,
		Lines:                 reversalLines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	record := s.newIdempotencyRecord(companyID, domain.OpVoidTransaction, req.IdempotencyKey, reversalID, now)

	saved, err := s.saveWithRetry(ctx, func() (*domain.Transaction, error) {
		return s.txnRepo.SaveReversal(ctx, reversal, original.TransactionID, balanceChanges, &record)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction voided",
		slog.String("original_id", original.TransactionID),
		slog.String("reversal_id", saved.TransactionID))
	return saved, nil
}

// GetTransactionByID retrieves a transaction with its lines, scoped to the company.
func (s *ledgerService) GetTransactionByID(ctx context.Context, companyID string, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	return txn, nil
}

// ListTransactions retrieves a paginated list of the company's transactions.
func (s *ledgerService) ListTransactions(ctx context.Context, companyID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	txns, nextToken, err := s.txnRepo.ListTransactionsByCompany(ctx, companyID, limit, params.NextToken, params.IncludeVoided)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}
	return &dto.ListTransactionsResponse{Transactions: txns, NextToken: nextToken}, nil
}

// ListLinesByAccount retrieves a paginated list of posting lines touching an account.
func (s *ledgerService) ListLinesByAccount(ctx context.Context, companyID string, accountID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error) {
	if _, err := s.accountSvc.GetAccountByID(ctx, companyID, accountID); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	lines, nextToken, err := s.txnRepo.ListLinesByAccountID(ctx, companyID, accountID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines: %w", err)
	}
	return &dto.ListLinesResponse{Lines: lines, NextToken: nextToken}, nil
}

// calculateBalanceChanges nets each line's signed amount per account.
func (s *ledgerService) calculateBalanceChanges(lines []domain.Line, accountsMap map[string]domain.Account) (map[string]decimal.Decimal, error) {
	balanceChanges := make(map[string]decimal.Decimal)
	for _, line := range lines {
		acc, ok := accountsMap[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("internal error: account %s missing during balance calculation", line.AccountID)
		}
		signedAmount, err := accounting.CalculateSignedAmount(line, acc.AccountType)
		if err != nil {
			return nil, fmt.Errorf("internal error calculating balance changes: %w", err)
		}
		balanceChanges[line.AccountID] = balanceChanges[line.AccountID].Add(signedAmount)
	}
	return balanceChanges, nil
}

// replayIfSeen returns the stored result of a previously completed operation
// with the same key, or nil when the key is fresh.
func (s *ledgerService) replayIfSeen(ctx context.Context, companyID string, kind domain.OperationKind, key string) (*domain.Transaction, error) {
	record, err := s.idemRepo.FindRecord(ctx, companyID, kind, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed idempotency lookup: %w", err)
	}
	txn, err := s.txnRepo.FindTransactionByID(ctx, record.ResultID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior result %s: %w", record.ResultID, err)
	}
	return txn, nil
}

func (s *ledgerService) newIdempotencyRecord(companyID string, kind domain.OperationKind, key, resultID string, now time.Time) domain.IdempotencyRecord {
	return domain.IdempotencyRecord{
		CompanyID:     companyID,
		OperationKind: kind,
		Key:           key,
		ResultID:      resultID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.cfg.IdempotencyTTL),
	}
}

// saveWithRetry runs the atomic append, transparently retrying lost
// serialization races up to the configured bound. A lost idempotency race is
// not retried: the winner's result is replayed instead.
func (s *ledgerService) saveWithRetry(ctx context.Context, save func() (*domain.Transaction, error)) (*domain.Transaction, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.PostRetryAttempts; attempt++ {
		saved, err := save()
		if err == nil {
			return saved, nil
		}

		var claimErr *portsrepo.IdempotencyClaimError
		if errors.As(err, &claimErr) {
			return s.txnRepo.FindTransactionByID(ctx, claimErr.Existing.ResultID)
		}
		if !errors.Is(err, apperrors.ErrTransient) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("posting still contended after %d attempts: %w", s.cfg.PostRetryAttempts, lastErr)
}
