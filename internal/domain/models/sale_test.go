package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creditSale(qty int, price string) Sale {
	s := Sale{
		ID:          "sale-1",
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString(price),
		PaymentType: PaymentCredit,
	}
	s.OpenLedger(time.Now())
	return s
}

func TestOpenLedger(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	credit := creditSale(40, "2.00")
	assert.True(t, credit.Total.Equal(decimal.RequireFromString("80")))
	assert.True(t, credit.PendingAmount.Equal(credit.Total))
	assert.True(t, credit.AmountPaid.IsZero())
	assert.Equal(t, CreditPending, credit.CreditStatus)
	assert.Nil(t, credit.PaidAt)
	require.NoError(t, credit.CheckLedger())

	cash := Sale{Quantity: 12, UnitPrice: decimal.RequireFromString("0.25"), PaymentType: PaymentCash}
	cash.OpenLedger(now)
	assert.True(t, cash.Total.Equal(decimal.RequireFromString("3")))
	assert.True(t, cash.AmountPaid.Equal(cash.Total))
	assert.True(t, cash.PendingAmount.IsZero())
	assert.Equal(t, CreditSettled, cash.CreditStatus)
	require.NotNil(t, cash.PaidAt)
	assert.Equal(t, now, *cash.PaidAt)
	require.NoError(t, cash.CheckLedger())
}

func TestApplyPayment(t *testing.T) {
	at := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		sale    func() Sale
		amount  string
		wantErr error
	}{
		{name: "zero amount", sale: func() Sale { return creditSale(10, "1") }, amount: "0", wantErr: ErrNonPositiveAmount},
		{name: "negative amount", sale: func() Sale { return creditSale(10, "1") }, amount: "-1", wantErr: ErrNonPositiveAmount},
		{
			name: "cash sale",
			sale: func() Sale {
				s := Sale{Quantity: 1, UnitPrice: decimal.NewFromInt(1), PaymentType: PaymentCash}
				s.OpenLedger(at)
				return s
			},
			amount:  "1",
			wantErr: ErrNotCreditSale,
		},
		{
			name: "already settled",
			sale: func() Sale {
				s := creditSale(10, "1")
				require.NoError(t, s.ApplyPayment(decimal.NewFromInt(10), at))
				return s
			},
			amount:  "1",
			wantErr: ErrAlreadySettled,
		},
		{name: "overpayment", sale: func() Sale { return creditSale(10, "1") }, amount: "10.01", wantErr: ErrOverpayment},
		{name: "partial", sale: func() Sale { return creditSale(10, "1") }, amount: "3.5"},
		{name: "exact", sale: func() Sale { return creditSale(10, "1") }, amount: "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale := tt.sale()
			before := sale
			err := sale.ApplyPayment(decimal.RequireFromString(tt.amount), at)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, sale)
				return
			}
			require.NoError(t, err)
			require.NoError(t, sale.CheckLedger())
		})
	}
}

func TestApplyPayment_SettlesOnExactAmount(t *testing.T) {
	at := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	sale := creditSale(40, "2.00")

	require.NoError(t, sale.ApplyPayment(decimal.RequireFromString("30.00"), at))
	assert.True(t, sale.PendingAmount.Equal(decimal.RequireFromString("50")))
	assert.Equal(t, CreditPending, sale.CreditStatus)
	assert.Nil(t, sale.PaidAt)

	require.NoError(t, sale.ApplyPayment(decimal.RequireFromString("50.00"), at))
	assert.True(t, sale.PendingAmount.IsZero())
	assert.Equal(t, CreditSettled, sale.CreditStatus)
	require.NotNil(t, sale.PaidAt)
	assert.Equal(t, at, *sale.PaidAt)
}

func TestApplyPayment_ManySmallPaymentsStayExact(t *testing.T) {
	sale := creditSale(1, "1.00")
	tenth := decimal.RequireFromString("0.1")
	for i := 0; i < 10; i++ {
		require.NoError(t, sale.ApplyPayment(tenth, time.Now()))
	}
	assert.True(t, sale.PendingAmount.IsZero())
	assert.Equal(t, CreditSettled, sale.CreditStatus)
}

func TestForceSettle(t *testing.T) {
	at := time.Now()
	sale := creditSale(40, "2")
	require.NoError(t, sale.ApplyPayment(decimal.NewFromInt(20), at))

	outstanding, err := sale.ForceSettle(at)
	require.NoError(t, err)
	assert.True(t, outstanding.Equal(decimal.NewFromInt(60)))
	assert.True(t, sale.AmountPaid.Equal(sale.Total))
	assert.Equal(t, CreditSettled, sale.CreditStatus)
	require.NoError(t, sale.CheckLedger())

	cash := Sale{Quantity: 1, UnitPrice: decimal.NewFromInt(1), PaymentType: PaymentCash}
	cash.OpenLedger(at)
	_, err = cash.ForceSettle(at)
	assert.ErrorIs(t, err, ErrNotCreditSale)
}

func TestDayOf(t *testing.T) {
	in := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), DayOf(in))
}
