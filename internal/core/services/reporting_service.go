package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/dto"
	"github.com/quillbooks/quillbooks/internal/middleware"
)

type reportingService struct {
	txnRepo portsrepo.TransactionReader
}

// NewReportingService creates a new reporting service.
func NewReportingService(txnRepo portsrepo.TransactionReader) portssvc.ReportingSvcFacade {
	return &reportingService{txnRepo: txnRepo}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

var exportHeader = []string{
	"transaction_number", "date", "type", "description", "reference",
	"account_id", "side", "amount", "running_balance", "is_void",
}

// ExportLedger streams the posted transactions of the range to w, one row per
// posting line in CSV or the full transaction list in JSON.
func (s *reportingService) ExportLedger(ctx context.Context, companyID string, params dto.ExportLedgerParams, w io.Writer) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if params.To.Before(params.From) {
		return fmt.Errorf("%w: export range end before start", apperrors.ErrValidation)
	}

	transactions, err := s.txnRepo.ListTransactionsForExport(ctx, companyID, params.From, params.To)
	if err != nil {
		return fmt.Errorf("failed to load transactions for export: %w", err)
	}

	switch params.Format {
	case dto.FormatCSV:
		err = writeCSVExport(w, transactions)
	case dto.FormatJSON, "":
		enc := json.NewEncoder(w)
		err = enc.Encode(transactions)
	default:
		return fmt.Errorf("%w: unsupported export format %q", apperrors.ErrValidation, params.Format)
	}
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	logger.Info("Ledger exported",
		slog.String("company_id", companyID),
		slog.String("format", string(params.Format)),
		slog.Int("transactions", len(transactions)))
	return nil
}

func writeCSVExport(w io.Writer, transactions []domain.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, txn := range transactions {
		for _, line := range txn.Lines {
			record := []string{
				txn.TransactionNumber,
				txn.Date.Format(time.RFC3339),
				string(txn.Type),
				txn.Description,
				txn.Reference,
				line.AccountID,
				string(line.Side),
				line.Amount.String(),
				line.RunningBalance.String(),
				fmt.Sprintf("%t", txn.IsVoid),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
