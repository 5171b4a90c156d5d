package services

import (
	"context"

	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/dto"
)

// LedgerSvcFacade is the posting engine: it validates and appends balanced
// transactions, and reverses them. Postings are append-only; voiding creates a
// mirror-image reversal and never deletes.
type LedgerSvcFacade interface {
	// PostTransaction validates and atomically appends a balanced transaction.
	// Retried requests carrying the same idempotency key return the original
	// result without re-executing side effects.
	PostTransaction(ctx context.Context, companyID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error)

	// VoidTransaction creates the reversing transaction and marks the original
	// void. The reversal's own date is subject to period-lock validation.
	VoidTransaction(ctx context.Context, companyID string, transactionID string, req dto.VoidTransactionRequest, userID string) (*domain.Transaction, error)

	GetTransactionByID(ctx context.Context, companyID string, transactionID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, companyID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
	ListLinesByAccount(ctx context.Context, companyID string, accountID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error)
}
