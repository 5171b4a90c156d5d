package services

import (
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/pkg/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Account service first since ledger, invoice and reconciliation depend on
	// its reader side.
	container.Account = NewAccountService(repos.AccountRepo)
	accountReader := container.Account.(portssvc.AccountReaderSvc)

	container.Period = NewPeriodService(repos.PeriodRepo)

	container.Ledger = NewLedgerService(
		repos.TransactionRepo,
		repos.IdempotencyRepo,
		repos.PeriodRepo,
		accountReader,
		LedgerConfig{
			PostRetryAttempts: cfg.PostRetryAttempts,
			IdempotencyTTL:    cfg.IdempotencyTTL,
		},
	)

	container.Invoice = NewInvoiceService(
		repos.InvoiceRepo,
		repos.IdempotencyRepo,
		container.Ledger,
		accountReader,
		cfg.IdempotencyTTL,
	)

	container.Reconciliation = NewReconciliationService(
		repos.BankRepo,
		repos.TransactionRepo,
		accountReader,
		cfg.ReconcileWindowDays,
	)

	container.Reporting = NewReportingService(repos.TransactionRepo)

	return container
}
