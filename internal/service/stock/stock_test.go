package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository/memory"
)

func TestAvailable(t *testing.T) {
	tests := []struct {
		produced, sold, want int
	}{
		{0, 0, 0},
		{100, 0, 100},
		{100, 40, 60},
		{100, 100, 0},
		{10, 25, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Available(tt.produced, tt.sold), "produced=%d sold=%d", tt.produced, tt.sold)
	}
}

func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.InsertEggType(ctx, models.EggType{ID: "t1", Name: "Medium", DisplayOrder: 2, IsActive: true}))
	require.NoError(t, store.InsertEggType(ctx, models.EggType{ID: "t2", Name: "Large", DisplayOrder: 3, IsActive: true}))
	require.NoError(t, store.InsertProduction(ctx, models.EggProduction{ID: "p1", HenBatchID: "b1", Classification: "Large", Quantity: 100}))
	require.NoError(t, store.InsertProduction(ctx, models.EggProduction{ID: "p2", HenBatchID: "b1", Classification: "Jumbo", Quantity: 5}))
	require.NoError(t, store.InsertSale(ctx, models.Sale{ID: "s1", HenBatchID: "b1", Classification: "Large", Quantity: 40}))
	require.NoError(t, store.InsertSale(ctx, models.Sale{ID: "s2", HenBatchID: "b1", Classification: "Medium", Quantity: 3}))
	return store
}

func TestByBatch(t *testing.T) {
	calc := NewCalculator(seed(t), nil)
	actor := access.NewActor("u1", "seller", nil, []string{access.ViewSales})

	levels, err := calc.ByBatch(context.Background(), actor, "b1")
	require.NoError(t, err)
	assert.Equal(t, []models.StockLevel{
		{Classification: "Medium", Available: 0, Produced: 0, Sold: 3},
		{Classification: "Large", Available: 60, Produced: 100, Sold: 40},
		{Classification: "Jumbo", Available: 5, Produced: 5, Sold: 0},
	}, levels)

	again, err := calc.ByBatch(context.Background(), actor, "b1")
	require.NoError(t, err)
	assert.Equal(t, levels, again)
}

func TestByBatch_Guards(t *testing.T) {
	calc := NewCalculator(seed(t), nil)

	_, err := calc.ByBatch(context.Background(), access.Actor{}, "b1")
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	_, err = calc.ByBatch(context.Background(), access.NewActor("u1", "x", nil, []string{access.ViewSales}), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestLevel_UnknownBatchIsEmpty(t *testing.T) {
	calc := NewCalculator(seed(t), nil)

	lvl, err := calc.Level(context.Background(), "nope", "Large")
	require.NoError(t, err)
	assert.Equal(t, models.StockLevel{Classification: "Large"}, lvl)
}
