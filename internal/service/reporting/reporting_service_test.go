package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository/memory"
)

var analyst = access.NewActor("u1", "analyst", nil, []string{access.ViewReports})

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sale(id, batch string, date time.Time, qty int, price string, pt models.PaymentType) models.Sale {
	s := models.Sale{ID: id, HenBatchID: batch, CustomerID: "c1", Date: date, Classification: "Large", Quantity: qty, UnitPrice: dec(price), PaymentType: pt}
	s.OpenLedger(date)
	return s
}

func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.InsertSale(ctx, sale("s1", "b1", day(2026, 2, 27), 10, "2.50", models.PaymentCash)))
	require.NoError(t, store.InsertSale(ctx, sale("s2", "b1", day(2026, 3, 2), 40, "2.00", models.PaymentCredit)))
	require.NoError(t, store.InsertSale(ctx, sale("s3", "b2", day(2026, 3, 3), 5, "3.00", models.PaymentCash)))

	feed := dec("30.00")
	vet := dec("12.25")
	require.NoError(t, store.InsertSupply(ctx, models.Supply{ID: "f1", HenBatchID: "b1", Date: day(2026, 3, 2), Name: "Feed", Quantity: dec("1"), Cost: &feed}))
	require.NoError(t, store.InsertSupply(ctx, models.Supply{ID: "v1", HenBatchID: "b2", Date: day(2026, 2, 10), Name: "Vaccine", Quantity: dec("1"), Cost: &vet}))
	require.NoError(t, store.InsertSupply(ctx, models.Supply{ID: "n1", HenBatchID: "b1", Date: day(2026, 3, 2), Name: "Straw", Quantity: dec("3")}))

	require.NoError(t, store.InsertProduction(ctx, models.EggProduction{ID: "p1", HenBatchID: "b1", Date: day(2026, 3, 2), Classification: "Large", Quantity: 120}))
	require.NoError(t, store.InsertProduction(ctx, models.EggProduction{ID: "p2", HenBatchID: "b2", Date: day(2026, 3, 2), Classification: "Small", Quantity: 30}))
	return store
}

func TestSummary(t *testing.T) {
	svc := NewService(seed(t), nil)
	ctx := context.Background()

	all, err := svc.Summary(ctx, analyst, "")
	require.NoError(t, err)
	assert.True(t, all.TotalSales.Equal(dec("120.00")), all.TotalSales.String())
	assert.True(t, all.TotalSuppliesCost.Equal(dec("42.25")))
	assert.True(t, all.Profit.Equal(dec("77.75")))

	b1, err := svc.Summary(ctx, analyst, "b1")
	require.NoError(t, err)
	assert.True(t, b1.TotalSales.Equal(dec("105.00")))
	assert.True(t, b1.TotalSuppliesCost.Equal(dec("30.00")))
	assert.True(t, b1.Profit.Equal(dec("75.00")))

	_, err = svc.Summary(ctx, access.NewActor("x", "x", nil, nil), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestMonthlyProfit(t *testing.T) {
	svc := NewService(seed(t), nil)
	ctx := context.Background()

	march, err := svc.MonthlyProfit(ctx, analyst, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, 2026, march.Year)
	assert.Equal(t, 3, march.Month)
	assert.True(t, march.TotalSales.Equal(dec("95.00")))
	assert.True(t, march.TotalSuppliesCost.Equal(dec("30.00")))
	assert.True(t, march.Profit.Equal(dec("65.00")))

	feb, err := svc.MonthlyProfit(ctx, analyst, 2026, 2)
	require.NoError(t, err)
	assert.True(t, feb.Profit.Equal(dec("12.75")))

	for _, month := range []int{0, 13, -1} {
		_, err := svc.MonthlyProfit(ctx, analyst, 2026, month)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidOperation), "month %d", month)
	}
}

func TestDailySnapshot(t *testing.T) {
	store := seed(t)
	svc := NewService(store, nil)
	ctx := context.Background()

	report, err := svc.DailySnapshot(ctx, time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, day(2026, 3, 2), report.Date)
	assert.Equal(t, 150, report.EggsCollected)
	assert.Equal(t, 40, report.EggsSold)
	assert.True(t, report.SalesAmount.Equal(dec("80.00")))
	assert.True(t, report.Collected.IsZero())
	assert.True(t, report.UnpaidBalance.Equal(dec("80.00")))
	assert.True(t, report.Expenses.Equal(dec("30.00")))
	assert.True(t, report.Profit.Equal(dec("50.00")))

	// a second run replaces the stored snapshot
	_, err = svc.DailySnapshot(ctx, day(2026, 3, 2))
	require.NoError(t, err)
	stored, err := svc.DailyReports(ctx, analyst, day(2026, 3, 1), day(2026, 3, 31))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 150, stored[0].EggsCollected)

	_, err = svc.DailyReports(ctx, analyst, day(2026, 3, 31), day(2026, 3, 1))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestWeeklyDigest(t *testing.T) {
	svc := NewService(seed(t), nil)

	text, err := svc.WeeklyDigest(context.Background(), time.Date(2026, 3, 5, 19, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, text, "Weekly summary (2026-02-27 to 2026-03-05)")
	assert.Contains(t, text, "Eggs collected: 150")
	assert.Contains(t, text, "Eggs sold: 55")
	assert.Contains(t, text, "Sales: 120.00 (collected 40.00)")
	assert.Contains(t, text, "Supplies: 30.00")
	assert.Contains(t, text, "Profit: 90.00")
	assert.Contains(t, text, "Pending credit: 80.00")
}
