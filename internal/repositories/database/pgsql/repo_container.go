package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	transactionRepo := newPgxTransactionRepository(dbPool, accountRepo)
	invoiceRepo := newPgxInvoiceRepository(dbPool)
	bankRepo := newPgxBankRepository(dbPool)
	periodRepo := newPgxPeriodRepository(dbPool)
	idempotencyRepo := newPgxIdempotencyRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		InvoiceRepo:     invoiceRepo,
		BankRepo:        bankRepo,
		PeriodRepo:      periodRepo,
		IdempotencyRepo: idempotencyRepo,
	}
}
