package shop_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

func TestCriteriaBuilder_Limit(t *testing.T) {
	t.Parallel()

	for count := shop.MinLimit; count <= shop.MaxLimit; count++ {
		builder := shop.NewCriteriaBuilder()
		require.NoError(t, builder.Limit(count))

		criteria := builder.Drain()
		require.NotNil(t, criteria.Limit)
		assert.Equal(t, count, *criteria.Limit)
	}

	for _, count := range []int{-1, 0, 51, 100} {
		builder := shop.NewCriteriaBuilder()
		require.NoError(t, builder.Limit(10))

		err := builder.Limit(count)
		require.ErrorIs(t, err, shop.ErrInvalidLimit)

		// a rejected value leaves the previous one in place
		criteria := builder.Drain()
		require.NotNil(t, criteria.Limit)
		assert.Equal(t, 10, *criteria.Limit)
	}
}

func TestCriteriaBuilder_LimitErrorCode(t *testing.T) {
	t.Parallel()

	err := shop.NewCriteriaBuilder().Limit(51)

	var resErr *shop.ResourceError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, shop.KindInvalidLimit, resErr.Kind)
	assert.Equal(t, int(shop.KindInvalidLimit), resErr.Code)
	assert.Equal(t, "limit 51 beyond 1-50 range", resErr.Error())
}

func TestCriteriaBuilder_Filters(t *testing.T) {
	t.Parallel()

	builder := shop.NewCriteriaBuilder()

	err := builder.Filters(nil)
	require.ErrorIs(t, err, shop.ErrInvalidFilters)

	require.NoError(t, builder.Filters(map[string]any{"category_id": 3}))
	assert.JSONEq(t, `{"category_id":3}`, builder.Drain().Filters)

	require.NoError(t, builder.Filters(map[string]any{}))
	assert.Equal(t, "{}", builder.Drain().Filters)
}

func TestCriteriaBuilder_Page(t *testing.T) {
	t.Parallel()

	builder := shop.NewCriteriaBuilder()

	require.ErrorIs(t, builder.Page(-1), shop.ErrInvalidPage)

	rejected := builder.Drain()
	assert.True(t, rejected.IsEmpty())

	require.NoError(t, builder.Page(0))
	criteria := builder.Drain()
	require.NotNil(t, criteria.Page)
	assert.Equal(t, 0, *criteria.Page)
}

func TestCriteriaBuilder_PageString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{input: "3", expected: 3},
		{input: "3abc", expected: 3},
		{input: " 12", expected: 12},
		{input: "abc", expected: 0},
		{input: "", expected: 0},
		{input: "+4", expected: 4},
		{input: "-2", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			builder := shop.NewCriteriaBuilder()

			err := builder.PageString(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, shop.ErrInvalidPage)

				return
			}

			require.NoError(t, err)

			criteria := builder.Drain()
			require.NotNil(t, criteria.Page)
			assert.Equal(t, tt.expected, *criteria.Page)
		})
	}
}

func TestCriteriaBuilder_Drain(t *testing.T) {
	t.Parallel()

	builder := shop.NewCriteriaBuilder()
	require.NoError(t, builder.Limit(5))
	require.NoError(t, builder.Page(2))
	require.NoError(t, builder.Order("-name"))
	require.NoError(t, builder.Filters(map[string]any{"name": "Acme"}))

	first := builder.Drain()
	assert.False(t, first.IsEmpty())
	assert.Equal(t, "name desc", first.Order)

	second := builder.Drain()
	assert.True(t, second.IsEmpty())
	assert.Equal(t, shop.Criteria{}, second)
}

func TestCriteriaBuilder_NoStaleFields(t *testing.T) {
	t.Parallel()

	builder := shop.NewCriteriaBuilder()
	require.NoError(t, builder.Limit(5))
	require.NoError(t, builder.Order("price"))
	builder.Drain()

	require.NoError(t, builder.Page(3))

	criteria := builder.Drain()
	assert.Nil(t, criteria.Limit)
	assert.Empty(t, criteria.Order)
	assert.Empty(t, criteria.Filters)
	require.NotNil(t, criteria.Page)
	assert.Equal(t, 3, *criteria.Page)
}

func TestCriteria_Values(t *testing.T) {
	t.Parallel()

	var nilCriteria *shop.Criteria
	assert.Empty(t, nilCriteria.Values())
	assert.True(t, nilCriteria.IsEmpty())

	builder := shop.NewCriteriaBuilder()
	require.NoError(t, builder.Limit(20))
	require.NoError(t, builder.Page(1))
	require.NoError(t, builder.Order("name asc"))
	require.NoError(t, builder.Filters(map[string]any{"producer_id": "3"}))

	criteria := builder.Drain()
	values := criteria.Values()

	assert.Equal(t, "20", values.Get("limit"))
	assert.Equal(t, "1", values.Get("page"))
	assert.Equal(t, "name asc", values.Get("order"))
	assert.JSONEq(t, `{"producer_id":"3"}`, values.Get("filters"))

	onlyPage := shop.Criteria{Page: criteria.Page}
	assert.Equal(t, "page=1", onlyPage.Values().Encode())
}
