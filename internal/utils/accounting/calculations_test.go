package accounting_test

import (
	"testing"

	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSignedAmount(t *testing.T) {
	amount := decimal.NewFromInt(100)

	tests := []struct {
		name        string
		side        domain.LineSide
		accountType domain.AccountType
		want        decimal.Decimal
		wantErr     bool
	}{
		{name: "debit to asset is positive", side: domain.Debit, accountType: domain.Asset, want: amount},
		{name: "credit to asset is negative", side: domain.Credit, accountType: domain.Asset, want: amount.Neg()},
		{name: "debit to expense is positive", side: domain.Debit, accountType: domain.Expense, want: amount},
		{name: "credit to liability is positive", side: domain.Credit, accountType: domain.Liability, want: amount},
		{name: "debit to liability is negative", side: domain.Debit, accountType: domain.Liability, want: amount.Neg()},
		{name: "credit to revenue is positive", side: domain.Credit, accountType: domain.Revenue, want: amount},
		{name: "credit to equity is positive", side: domain.Credit, accountType: domain.Equity, want: amount},
		{name: "unknown account type errors", side: domain.Debit, accountType: domain.AccountType("BOGUS"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := domain.Line{AccountID: "acc-1", Amount: amount, Side: tt.side}
			got, err := accounting.CalculateSignedAmount(line, tt.accountType)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestSumSides(t *testing.T) {
	lines := []domain.Line{
		{Side: domain.Debit, Amount: decimal.NewFromInt(60)},
		{Side: domain.Debit, Amount: decimal.NewFromInt(40)},
		{Side: domain.Credit, Amount: decimal.NewFromInt(100)},
	}

	debits, credits := accounting.SumSides(lines)
	assert.True(t, debits.Equal(decimal.NewFromInt(100)), "debits: %s", debits)
	assert.True(t, credits.Equal(decimal.NewFromInt(100)), "credits: %s", credits)

	debits, credits = accounting.SumSides(nil)
	assert.True(t, debits.IsZero())
	assert.True(t, credits.IsZero())
}
