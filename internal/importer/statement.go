package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	enc "github.com/quillbooks/quillbooks/internal/encoding"
)

// StatementRow is one parsed bank statement line. Amount is signed from the
// bank account's perspective: deposits positive, withdrawals negative.
type StatementRow struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Reference   string
}

// Required and optional statement columns, matched case-insensitively.
const (
	colDate        = "date"
	colDescription = "description"
	colAmount      = "amount"
	colReference   = "reference"
)

var dateLayouts = []string{"2006-01-02", "01/02/2006"}

// ParseStatement reads a CSV bank statement. The first non-empty row must be
// a header naming at least Date, Description and Amount; Reference is
// optional. The reader tolerates non-UTF-8 exports by detecting the encoding
// first.
func ParseStatement(r io.Reader) ([]StatementRow, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid csv: %v", apperrors.ErrValidation, err)
	}

	cols, headerIdx, err := findHeader(records)
	if err != nil {
		return nil, err
	}

	var rows []StatementRow
	for i, record := range records[headerIdx+1:] {
		rowNum := headerIdx + i + 2 // 1-based file row

		if isBlank(record) {
			continue
		}

		date, err := parseDate(cellValue(record, cols[colDate]))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", apperrors.ErrValidation, rowNum, err)
		}

		description := cellValue(record, cols[colDescription])
		if description == "" {
			return nil, fmt.Errorf("%w: row %d: missing description", apperrors.ErrValidation, rowNum)
		}

		amountText := cellValue(record, cols[colAmount])
		amount, err := decimal.NewFromString(strings.ReplaceAll(amountText, ",", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: invalid amount %q", apperrors.ErrValidation, rowNum, amountText)
		}
		if amount.IsZero() {
			return nil, fmt.Errorf("%w: row %d: zero amount", apperrors.ErrValidation, rowNum)
		}

		row := StatementRow{
			Date:        date,
			Description: description,
			Amount:      amount,
		}
		if refIdx, ok := cols[colReference]; ok {
			row.Reference = cellValue(record, refIdx)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// findHeader locates the header row and maps known column names to indexes.
func findHeader(records [][]string) (map[string]int, int, error) {
	for rowIdx, record := range records {
		cols := make(map[string]int)
		for i, cell := range record {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		_, hasDate := cols[colDate]
		_, hasDesc := cols[colDescription]
		_, hasAmount := cols[colAmount]
		if hasDate && hasDesc && hasAmount {
			return cols, rowIdx, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: no header row with date, description and amount columns", apperrors.ErrValidation)
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return d.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func cellValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
