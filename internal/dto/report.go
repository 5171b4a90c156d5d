package dto

import "time"

// ReportFormat selects the serialization of a ledger export.
type ReportFormat string

const (
	FormatJSON ReportFormat = "json"
	FormatCSV  ReportFormat = "csv"
)

// ExportLedgerParams bounds a ledger report export.
type ExportLedgerParams struct {
	From   time.Time
	To     time.Time
	Format ReportFormat
}
