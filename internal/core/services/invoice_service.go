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
)

var (
	ErrDuplicateInvoiceNumber = errors.New("invoice number already exists in company")
	ErrInvoiceNotDraft        = errors.New("invoice is no longer a draft")
	ErrPostingAccountsUnset   = errors.New("posting accounts are not configured for company")
)

// invoiceService is the state machine over invoices. Status transitions are
// validated by the pure domain table; this service only interprets the
// resulting posting effects against the ledger engine.
type invoiceService struct {
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	idemRepo    portsrepo.IdempotencyRepository
	ledgerSvc   portssvc.LedgerSvcFacade
	accountSvc  portssvc.AccountReaderSvc
	idemTTL     time.Duration
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(invoiceRepo portsrepo.InvoiceRepositoryFacade, idemRepo portsrepo.IdempotencyRepository, ledgerSvc portssvc.LedgerSvcFacade, accountSvc portssvc.AccountReaderSvc, idemTTL time.Duration) portssvc.InvoiceSvcFacade {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		idemRepo:    idemRepo,
		ledgerSvc:   ledgerSvc,
		accountSvc:  accountSvc,
		idemTTL:     idemTTL,
	}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

// CreateInvoice creates a draft invoice. Drafts are mutable and carry no
// ledger posting.
func (s *invoiceService) CreateInvoice(ctx context.Context, companyID string, req dto.CreateInvoiceRequest, userID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if existing, err := s.invoiceRepo.FindInvoiceByNumber(ctx, companyID, req.Number); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check invoice number: %w", err)
	} else if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateInvoiceNumber, req.Number)
	}

	lines, err := buildInvoiceLines(req.Lines)
	if err != nil {
		return nil, err
	}
	if req.Tax.IsNegative() {
		return nil, fmt.Errorf("%w: tax must not be negative", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	invoiceID := uuid.NewString()
	for i := range lines {
		lines[i].InvoiceID = invoiceID
	}

	invoice := domain.Invoice{
		InvoiceID:  invoiceID,
		CompanyID:  companyID,
		Number:     req.Number,
		CustomerID: req.CustomerID,
		Lines:      lines,
		Tax:        req.Tax,
		DueDate:    req.DueDate,
		Status:     domain.InvoiceDraft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	invoice.Recalculate()

	if err := s.invoiceRepo.SaveInvoice(ctx, invoice); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateInvoiceNumber, req.Number)
		}
		logger.Error("Failed to save invoice", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	logger.Info("Invoice created", slog.String("invoice_id", invoice.InvoiceID), slog.String("number", invoice.Number))
	return &invoice, nil
}

// UpdateInvoice edits a DRAFT invoice. Once finalized, everything but status
// is immutable.
func (s *invoiceService) UpdateInvoice(ctx context.Context, companyID string, invoiceID string, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	invoice, err := s.getCompanyInvoice(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != domain.InvoiceDraft {
		return nil, fmt.Errorf("%w: status is %s", ErrInvoiceNotDraft, invoice.Status)
	}

	if req.CustomerID != nil {
		invoice.CustomerID = *req.CustomerID
	}
	if req.DueDate != nil {
		invoice.DueDate = *req.DueDate
	}
	if req.Tax != nil {
		if req.Tax.IsNegative() {
			return nil, fmt.Errorf("%w: tax must not be negative", apperrors.ErrValidation)
		}
		invoice.Tax = *req.Tax
	}
	if req.Lines != nil {
		lines, err := buildInvoiceLines(req.Lines)
		if err != nil {
			return nil, err
		}
		for i := range lines {
			lines[i].InvoiceID = invoice.InvoiceID
		}
		invoice.Lines = lines
	}

	invoice.Recalculate()
	invoice.LastUpdatedAt = time.Now().UTC()
	invoice.LastUpdatedBy = userID

	if err := s.invoiceRepo.UpdateDraftInvoice(ctx, *invoice); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: finalized concurrently", ErrInvoiceNotDraft)
		}
		logger.Error("Failed to update invoice", slog.String("error", err.Error()), slog.String("invoice_id", invoiceID))
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	return invoice, nil
}

// TransitionInvoice applies one lifecycle transition. Transitions entering a
// posted state hand their posting effect to the ledger under a key derived
// from the invoice id, so retries never double-post.
func (s *invoiceService) TransitionInvoice(ctx context.Context, companyID string, invoiceID string, req dto.TransitionInvoiceRequest, userID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// Caller-level idempotency: a repeated request with the same key returns
	// the invoice as the first execution left it.
	if record, err := s.idemRepo.FindRecord(ctx, companyID, domain.OpFinalizeInvoice, req.IdempotencyKey); err == nil {
		return s.getCompanyInvoice(ctx, companyID, record.ResultID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed idempotency lookup: %w", err)
	}

	invoice, err := s.getCompanyInvoice(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}

	effect, err := invoice.Transition(req.Status)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expectedStatus := invoice.Status
	var transactionID, paymentTxnID *string

	switch effect {
	case domain.EffectFinalize:
		txn, err := s.postFinalize(ctx, companyID, invoice, userID)
		if err != nil {
			return nil, err
		}
		transactionID = &txn.TransactionID
	case domain.EffectPayment:
		// A cash receipt already posted for this invoice is not repeated.
		if invoice.PaymentTxnID == nil {
			txn, err := s.postPayment(ctx, companyID, invoice, userID)
			if err != nil {
				return nil, err
			}
			paymentTxnID = &txn.TransactionID
		}
	}

	if err := s.invoiceRepo.UpdateInvoiceStatus(ctx, invoice.InvoiceID, expectedStatus, req.Status, transactionID, paymentTxnID, userID, now); err != nil {
		// Lost a concurrent transition race. The ledger side is already
		// deduped by the derived keys, so nothing was double-posted.
		logger.Warn("Invoice transition lost update race", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
		return nil, err
	}

	record := domain.IdempotencyRecord{
		CompanyID:     companyID,
		OperationKind: domain.OpFinalizeInvoice,
		Key:           req.IdempotencyKey,
		ResultID:      invoice.InvoiceID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.idemTTL),
	}
	if err := s.idemRepo.InsertRecord(ctx, record); err != nil && !errors.Is(err, apperrors.ErrDuplicate) {
		logger.Warn("Failed to record invoice idempotency key", slog.String("error", err.Error()))
	}

	logger.Info("Invoice transitioned",
		slog.String("invoice_id", invoiceID),
		slog.String("from", string(expectedStatus)),
		slog.String("to", string(req.Status)))
	return s.getCompanyInvoice(ctx, companyID, invoiceID)
}

// postFinalize builds the receivable/revenue/tax entry for the invoice total
// and posts it under the derived finalize key.
func (s *invoiceService) postFinalize(ctx context.Context, companyID string, invoice *domain.Invoice, userID string) (*domain.Transaction, error) {
	cfg, err := s.postingAccounts(ctx, companyID)
	if err != nil {
		return nil, err
	}

	lines := []dto.CreateLineRequest{
		{AccountID: cfg.ReceivableAccountID, Amount: invoice.Total, Side: domain.Debit},
		{AccountID: cfg.RevenueAccountID, Amount: invoice.Subtotal, Side: domain.Credit},
	}
	if invoice.Tax.GreaterThan(decimal.Zero) {
		lines = append(lines, dto.CreateLineRequest{AccountID: cfg.TaxPayableAccountID, Amount: invoice.Tax, Side: domain.Credit})
	}

	return s.ledgerSvc.PostTransaction(ctx, companyID, dto.CreateTransactionRequest{
		Date:           time.Now().UTC(),
		Type:           domain.InvoiceEntry,
		Description:    fmt.Sprintf("Invoice %s finalized", invoice.Number),
		Reference:      invoice.Number,
		Lines:          lines,
		IdempotencyKey: invoice.InvoiceID + ":finalize",
	}, userID)
}

// postPayment builds the cash receipt entry and posts it under the derived
// payment key.
func (s *invoiceService) postPayment(ctx context.Context, companyID string, invoice *domain.Invoice, userID string) (*domain.Transaction, error) {
	cfg, err := s.postingAccounts(ctx, companyID)
	if err != nil {
		return nil, err
	}

	return s.ledgerSvc.PostTransaction(ctx, companyID, dto.CreateTransactionRequest{
		Date:        time.Now().UTC(),
		Type:        domain.PaymentEntry,
		Description: fmt.Sprintf("Payment received for invoice %s", invoice.Number),
		Reference:   invoice.Number,
		Lines: []dto.CreateLineRequest{
			{AccountID: cfg.CashAccountID, Amount: invoice.Total, Side: domain.Debit},
			{AccountID: cfg.ReceivableAccountID, Amount: invoice.Total, Side: domain.Credit},
		},
		IdempotencyKey: invoice.InvoiceID + ":payment",
	}, userID)
}

func (s *invoiceService) postingAccounts(ctx context.Context, companyID string) (*domain.PostingAccounts, error) {
	cfg, err := s.invoiceRepo.FindPostingAccounts(ctx, companyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPostingAccountsUnset, companyID)
		}
		return nil, fmt.Errorf("failed to load posting accounts: %w", err)
	}
	return cfg, nil
}

// SetPostingAccounts configures the per-company accounts invoice postings touch.
func (s *invoiceService) SetPostingAccounts(ctx context.Context, companyID string, req dto.PostingAccountsRequest, userID string) (*domain.PostingAccounts, error) {
	accountIDs := []string{req.ReceivableAccountID, req.RevenueAccountID, req.TaxPayableAccountID, req.CashAccountID}
	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, companyID, accountIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range accountIDs {
		acc, found := accounts[id]
		if !found {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
		}
	}

	now := time.Now().UTC()
	cfg := domain.PostingAccounts{
		CompanyID:           companyID,
		ReceivableAccountID: req.ReceivableAccountID,
		RevenueAccountID:    req.RevenueAccountID,
		TaxPayableAccountID: req.TaxPayableAccountID,
		CashAccountID:       req.CashAccountID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.invoiceRepo.SavePostingAccounts(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save posting accounts: %w", err)
	}
	return &cfg, nil
}

// GetInvoiceByID retrieves an invoice with its passively computed effective status.
func (s *invoiceService) GetInvoiceByID(ctx context.Context, companyID string, invoiceID string) (*dto.InvoiceResponse, error) {
	invoice, err := s.getCompanyInvoice(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToInvoiceResponse(*invoice, time.Now().UTC())
	return &resp, nil
}

// ListInvoices retrieves a paginated list of the company's invoices.
func (s *invoiceService) ListInvoices(ctx context.Context, companyID string, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	invoices, nextToken, err := s.invoiceRepo.ListInvoicesByCompany(ctx, companyID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve invoices: %w", err)
	}

	now := time.Now().UTC()
	responses := make([]dto.InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		responses[i] = dto.ToInvoiceResponse(inv, now)
	}
	return &dto.ListInvoicesResponse{Invoices: responses, NextToken: nextToken}, nil
}

func (s *invoiceService) getCompanyInvoice(ctx context.Context, companyID, invoiceID string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	return invoice, nil
}

func buildInvoiceLines(reqs []dto.InvoiceLineRequest) ([]domain.InvoiceLine, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: invoice must have at least one line", apperrors.ErrValidation)
	}
	lines := make([]domain.InvoiceLine, len(reqs))
	for i, lineReq := range reqs {
		if lineReq.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: line quantity must be positive", apperrors.ErrValidation)
		}
		if lineReq.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: line unit price must not be negative", apperrors.ErrValidation)
		}
		lines[i] = domain.InvoiceLine{
			LineID:      uuid.NewString(),
			Description: lineReq.Description,
			Quantity:    lineReq.Quantity,
			UnitPrice:   lineReq.UnitPrice,
		}
	}
	return lines, nil
}
