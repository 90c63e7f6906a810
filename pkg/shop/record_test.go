package shop_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

const productJSON = `{"product_id":12,"stock":{"price":"19.99","stock":4},"code":"SKU-12","tags":[1,"two",null],"active":true,"price":19.5}`

func TestRecord_KeyOrder(t *testing.T) {
	t.Parallel()

	record := shop.NewRecord()
	require.NoError(t, json.Unmarshal([]byte(productJSON), record))

	assert.Equal(t, []string{"product_id", "stock", "code", "tags", "active", "price"}, record.Keys())

	encoded, err := json.Marshal(record)
	require.NoError(t, err)
	assert.Equal(t, productJSON, string(encoded))
}

func TestRecord_Accessors(t *testing.T) {
	t.Parallel()

	record := shop.NewRecord()
	require.NoError(t, record.UnmarshalJSON([]byte(productJSON)))

	id, ok := record.Int("product_id")
	require.True(t, ok)
	assert.Equal(t, int64(12), id)

	_, ok = record.Int("price")
	assert.False(t, ok)

	_, ok = record.Int("missing")
	assert.False(t, ok)

	assert.Equal(t, "SKU-12", record.String("code"))
	assert.Equal(t, "19.5", record.String("price"))
	assert.Equal(t, "true", record.String("active"))
	assert.Equal(t, `[1,"two",null]`, record.String("tags"))
	assert.Empty(t, record.String("missing"))

	stock, ok := record.Get("stock")
	require.True(t, ok)

	nested, ok := stock.(*shop.Record)
	require.True(t, ok)

	count, ok := nested.Int("stock")
	require.True(t, ok)
	assert.Equal(t, int64(4), count)
	assert.JSONEq(t, `{"price":"19.99","stock":4}`, record.String("stock"))
}

func TestRecord_Set(t *testing.T) {
	t.Parallel()

	record := shop.NewRecord()
	record.Set("name", "Acme")
	record.Set("web", "https://acme.example")
	record.Set("name", "Acme Corp")

	assert.Equal(t, 2, record.Len())
	assert.Equal(t, []string{"name", "web"}, record.Keys())
	assert.Equal(t, "Acme Corp", record.String("name"))
	assert.True(t, record.Has("web"))
	assert.False(t, record.Has("producer_id"))

	var zero shop.Record
	zero.Set("id", 1)
	assert.Equal(t, 1, zero.Len())
}

func TestRecord_StringCounters(t *testing.T) {
	t.Parallel()

	record := shop.NewRecord()
	record.Set("count", "17")
	record.Set("label", "n/a")

	count, ok := record.Int("count")
	require.True(t, ok)
	assert.Equal(t, int64(17), count)

	_, ok = record.Int("label")
	assert.False(t, ok)
}

func TestRecord_Map(t *testing.T) {
	t.Parallel()

	record := shop.NewRecord()
	require.NoError(t, record.UnmarshalJSON([]byte(`{"a":{"b":[{"c":1}]}}`)))

	assert.Equal(t, map[string]any{
		"a": map[string]any{
			"b": []any{map[string]any{"c": json.Number("1")}},
		},
	}, record.Map())
}

func TestRecord_Decode(t *testing.T) {
	t.Parallel()

	var product struct {
		ID    int     `json:"product_id"`
		Code  string  `json:"code"`
		Price float64 `json:"price"`
	}

	record := shop.NewRecord()
	require.NoError(t, record.UnmarshalJSON([]byte(productJSON)))
	require.NoError(t, record.Decode(&product))

	assert.Equal(t, 12, product.ID)
	assert.Equal(t, "SKU-12", product.Code)
	assert.InDelta(t, 19.5, product.Price, 0.001)
}

func TestRecord_MarshalYAML(t *testing.T) {
	t.Parallel()

	record := shop.NewRecord()
	require.NoError(t, record.UnmarshalJSON([]byte(`{"zeta":1,"alpha":"x","ratio":0.5,"items":[2,3]}`)))

	encoded, err := yaml.Marshal(record)
	require.NoError(t, err)
	assert.Equal(t, "zeta: 1\nalpha: x\nratio: 0.5\nitems:\n    - 2\n    - 3\n", string(encoded))
}

func TestRecord_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	record := shop.NewRecord()
	require.NoError(t, record.UnmarshalJSON([]byte(`null`)))
	assert.Zero(t, record.Len())

	require.ErrorIs(t, record.UnmarshalJSON([]byte(`[1]`)), shop.ErrNotAnObject)
	require.ErrorIs(t, record.UnmarshalJSON([]byte(`{"a":1} {"b":2}`)), shop.ErrMalformedResponse)
	require.ErrorIs(t, record.UnmarshalJSON([]byte(`{"a":1}]`)), shop.ErrMalformedResponse)
	require.ErrorIs(t, record.UnmarshalJSON([]byte(`{"a":1}}`)), shop.ErrMalformedResponse)
	require.NoError(t, record.UnmarshalJSON([]byte("{\"a\":1}\n  ")))
	assert.Equal(t, []string{"a"}, record.Keys())
	require.Error(t, record.UnmarshalJSON([]byte(`{"a":`)))
}
