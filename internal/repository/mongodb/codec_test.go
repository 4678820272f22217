package mongodb

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type priced struct {
	Amount decimal.Decimal  `bson:"amount"`
	Cost   *decimal.Decimal `bson:"cost,omitempty"`
}

func TestDecimalStoredAsDecimal128(t *testing.T) {
	reg := NewRegistry()
	cost := decimal.RequireFromString("12.345")

	data, err := bson.MarshalWithRegistry(reg, priced{Amount: decimal.RequireFromString("80.00"), Cost: &cost})
	require.NoError(t, err)

	raw := bson.Raw(data)
	assert.Equal(t, bsontype.Decimal128, raw.Lookup("amount").Type)

	var out priced
	require.NoError(t, bson.UnmarshalWithRegistry(reg, data, &out))
	assert.True(t, out.Amount.Equal(decimal.NewFromInt(80)))
	require.NotNil(t, out.Cost)
	assert.True(t, out.Cost.Equal(cost))
}

func TestDecimalDecodesLegacyNumbers(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "string", value: "19.99", want: "19.99"},
		{name: "double", value: 2.5, want: "2.5"},
		{name: "int32", value: int32(7), want: "7"},
		{name: "int64", value: int64(9000000000), want: "9000000000"},
		{name: "null", value: nil, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(bson.M{"amount": tt.value})
			require.NoError(t, err)

			var out priced
			require.NoError(t, bson.UnmarshalWithRegistry(reg, data, &out))
			assert.True(t, out.Amount.Equal(decimal.RequireFromString(tt.want)), "got %s", out.Amount)
		})
	}
}

func TestDecimalRejectsBooleans(t *testing.T) {
	data, err := bson.Marshal(bson.M{"amount": true})
	require.NoError(t, err)

	var out priced
	assert.Error(t, bson.UnmarshalWithRegistry(NewRegistry(), data, &out))
}
