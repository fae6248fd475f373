package db

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type priced struct {
	Amount decimal.Decimal `bson:"amount"`
}

func TestDecimalRoundTrip(t *testing.T) {
	reg := NewRegistry()
	in := priced{Amount: decimal.RequireFromString("12.50")}

	data, err := bson.MarshalWithRegistry(reg, in)
	require.NoError(t, err)

	raw := bson.Raw(data)
	assert.Equal(t, bson.TypeDecimal128, raw.Lookup("amount").Type)

	var out priced
	require.NoError(t, bson.UnmarshalWithRegistry(reg, data, &out))
	assert.True(t, in.Amount.Equal(out.Amount), "got %s", out.Amount)
}

func TestDecimalDecodesLegacyNumbers(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		doc  bson.M
		want string
	}{
		{"double", bson.M{"amount": 7.25}, "7.25"},
		{"int32", bson.M{"amount": int32(5)}, "5"},
		{"int64", bson.M{"amount": int64(40)}, "40"},
		{"string", bson.M{"amount": "3.10"}, "3.1"},
		{"null", bson.M{"amount": nil}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(tt.doc)
			require.NoError(t, err)

			var out priced
			require.NoError(t, bson.UnmarshalWithRegistry(reg, data, &out))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(out.Amount), "got %s", out.Amount)
		})
	}
}

func TestDecimalRejectsUnsupportedType(t *testing.T) {
	data, err := bson.Marshal(bson.M{"amount": true})
	require.NoError(t, err)

	var out priced
	assert.Error(t, bson.UnmarshalWithRegistry(NewRegistry(), data, &out))
}

func TestDatabaseName(t *testing.T) {
	name, err := DatabaseName("mongodb://localhost:27017/pickup")
	require.NoError(t, err)
	assert.Equal(t, "pickup", name)

	name, err = DatabaseName("mongodb://localhost:27017")
	require.NoError(t, err)
	assert.Equal(t, defaultDBName, name)
}
