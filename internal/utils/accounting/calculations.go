package accounting

import (
	"fmt"

	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CalculateSignedAmount applies the correct sign to a line amount based on the
// account's normal balance. Services and repositories share this so balance
// math is identical everywhere.
//
// DEBIT to ASSET/EXPENSE -> positive, CREDIT -> negative.
// CREDIT to LIABILITY/EQUITY/REVENUE -> positive, DEBIT -> negative.
func CalculateSignedAmount(line domain.Line, accountType domain.AccountType) (decimal.Decimal, error) {
	signedAmount := line.Amount
	isDebit := line.Side == domain.Debit

	switch accountType {
	case domain.Asset, domain.Expense:
		if !isDebit {
			signedAmount = signedAmount.Neg()
		}
	case domain.Liability, domain.Equity, domain.Revenue:
		if isDebit {
			signedAmount = signedAmount.Neg()
		}
	default:
		return decimal.Zero, fmt.Errorf("unknown account type %q for account ID %s", accountType, line.AccountID)
	}
	return signedAmount, nil
}

// SumSides totals the debit and credit sides of a set of lines.
func SumSides(lines []domain.Line) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, line := range lines {
		if line.Side == domain.Debit {
			debits = debits.Add(line.Amount)
		} else {
			credits = credits.Add(line.Amount)
		}
	}
	return debits, credits
}
