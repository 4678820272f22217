package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

func TestRecordPayment_RejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := New()

	sale := models.Sale{ID: "s1", Quantity: 10, UnitPrice: decimal.NewFromInt(2), PaymentType: models.PaymentCredit}
	sale.OpenLedger(time.Now())
	require.NoError(t, store.InsertSale(ctx, sale))

	updated := sale
	require.NoError(t, updated.ApplyPayment(decimal.NewFromInt(5), time.Now()))
	updated.Version = 1
	require.NoError(t, store.RecordPayment(ctx, updated, 0, models.Payment{ID: "p1", SaleID: "s1", Amount: decimal.NewFromInt(5)}))

	err := store.RecordPayment(ctx, updated, 0, models.Payment{ID: "p2", SaleID: "s1", Amount: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	payments, err := store.ListPayments(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	stored, err := store.FindSale(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	assert.True(t, stored.PendingAmount.Equal(decimal.NewFromInt(15)))
}

func TestListPayments_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.InsertSale(ctx, models.Sale{ID: "s1"}))

	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		sale, err := store.FindSale(ctx, "s1")
		require.NoError(t, err)
		next := sale
		next.Version++
		require.NoError(t, store.RecordPayment(ctx, next, sale.Version, models.Payment{
			ID: id, SaleID: "s1", PaidAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	payments, err := store.ListPayments(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{payments[0].ID, payments[1].ID, payments[2].ID})

	empty, err := store.ListPayments(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestClassificationTotalsSkipUnclassified(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.InsertProduction(ctx, models.EggProduction{ID: "p1", HenBatchID: "b1", Classification: "Large", Quantity: 70}))
	require.NoError(t, store.InsertProduction(ctx, models.EggProduction{ID: "p2", HenBatchID: "b1", Classification: "Large", Quantity: 30}))
	require.NoError(t, store.InsertProduction(ctx, models.EggProduction{ID: "p3", HenBatchID: "b2", Classification: "Large", Quantity: 5}))
	require.NoError(t, store.InsertSale(ctx, models.Sale{ID: "s1", HenBatchID: "b1", Classification: "Large", Quantity: 40}))
	require.NoError(t, store.InsertSale(ctx, models.Sale{ID: "s2", HenBatchID: "b1", Quantity: 9}))

	produced, err := store.ProducedByClassification(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Large": 100}, produced)

	sold, err := store.SoldByClassification(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Large": 40}, sold)
}

func TestEggTypeNamesAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.InsertEggType(ctx, models.EggType{ID: "e1", Name: "Large"}))
	err := store.InsertEggType(ctx, models.EggType{ID: "e2", Name: "large"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	found, err := store.FindEggTypeByName(ctx, "LARGE")
	require.NoError(t, err)
	assert.Equal(t, "e1", found.ID)
}
