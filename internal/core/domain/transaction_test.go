package domain_test

import (
	"testing"

	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_SignedEffectOn(t *testing.T) {
	bankAccount := "acc-bank"
	otherAccount := "acc-revenue"

	tests := []struct {
		name  string
		lines []domain.Line
		want  decimal.Decimal
	}{
		{
			name: "deposit is a positive effect",
			lines: []domain.Line{
				{AccountID: bankAccount, Side: domain.Debit, Amount: decimal.NewFromInt(100)},
				{AccountID: otherAccount, Side: domain.Credit, Amount: decimal.NewFromInt(100)},
			},
			want: decimal.NewFromInt(100),
		},
		{
			name: "withdrawal is a negative effect",
			lines: []domain.Line{
				{AccountID: otherAccount, Side: domain.Debit, Amount: decimal.NewFromInt(40)},
				{AccountID: bankAccount, Side: domain.Credit, Amount: decimal.NewFromInt(40)},
			},
			want: decimal.NewFromInt(-40),
		},
		{
			name: "multiple lines on the account net out",
			lines: []domain.Line{
				{AccountID: bankAccount, Side: domain.Debit, Amount: decimal.NewFromInt(100)},
				{AccountID: bankAccount, Side: domain.Credit, Amount: decimal.NewFromInt(30)},
				{AccountID: otherAccount, Side: domain.Credit, Amount: decimal.NewFromInt(70)},
			},
			want: decimal.NewFromInt(70),
		},
		{
			name: "transaction not touching the account",
			lines: []domain.Line{
				{AccountID: otherAccount, Side: domain.Debit, Amount: decimal.NewFromInt(10)},
			},
			want: decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := domain.Transaction{Lines: tt.lines}
			got := txn.SignedEffectOn(bankAccount)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}
