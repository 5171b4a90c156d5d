package services

import (
	"context"
	"io"

	"github.com/quillbooks/quillbooks/internal/dto"
)

// ReportingSvcFacade exports the ledger read model. Formatting beyond the raw
// posting stream (trial balance, P&L) is out of scope.
type ReportingSvcFacade interface {
	// ExportLedger streams all posted transactions of the date range to w in
	// the requested format.
	ExportLedger(ctx context.Context, companyID string, params dto.ExportLedgerParams, w io.Writer) error
}
