package shop_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

// pagedTransport serves total records split into pages of the requested limit.
type pagedTransport struct {
	total    int
	failPage int
	criteria []*shop.Criteria
}

func (t *pagedTransport) Request(_ context.Context, req *shop.Request) (*shop.Response, error) {
	t.criteria = append(t.criteria, req.Criteria)

	limit, page := 10, 1
	if req.Criteria != nil && req.Criteria.Limit != nil {
		limit = *req.Criteria.Limit
	}

	if req.Criteria != nil && req.Criteria.Page != nil {
		page = *req.Criteria.Page
	}

	if page == t.failPage {
		return jsonResponse(http.StatusServiceUnavailable, `{"error":"maintenance"}`), nil
	}

	pages := (t.total + limit - 1) / limit

	items := make([]string, 0, limit)
	for id := (page-1)*limit + 1; id <= page*limit && id <= t.total; id++ {
		items = append(items, fmt.Sprintf(`{"id":%d}`, id))
	}

	body := fmt.Sprintf(`{"count":%d,"pages":%d,"page":%d,"list":[%s]}`, t.total, pages, page, strings.Join(items, ","))

	return &shop.Response{StatusCode: http.StatusOK, Data: json.RawMessage(body)}, nil
}

func ids(t *testing.T, records []*shop.Record) []int64 {
	t.Helper()

	out := make([]int64, 0, len(records))

	for _, record := range records {
		id, ok := record.Int("id")
		require.True(t, ok)

		out = append(out, id)
	}

	return out
}

func TestFetchAllPages(t *testing.T) {
	t.Parallel()

	transport := &pagedTransport{total: 7}
	resource := shop.NewResource(transport, "products")
	query := &shop.PageQuery{Limit: 3, Order: "-id", Filters: map[string]any{"active": 1}}

	records, err := shop.FetchAllPages(context.Background(), resource, query, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, ids(t, records))

	require.Len(t, transport.criteria, 3)

	for i, criteria := range transport.criteria {
		require.NotNil(t, criteria)
		assert.Equal(t, i+1, *criteria.Page)
		assert.Equal(t, 3, *criteria.Limit)
		assert.Equal(t, "id desc", criteria.Order)
		assert.JSONEq(t, `{"active":1}`, criteria.Filters)
	}
}

func TestFetchAllPages_MaxPages(t *testing.T) {
	t.Parallel()

	transport := &pagedTransport{total: 25}
	resource := shop.NewResource(transport, "products")

	records, err := shop.FetchAllPages(context.Background(), resource, &shop.PageQuery{Limit: 5}, &shop.PaginationOptions{MaxPages: 2})
	require.NoError(t, err)
	assert.Len(t, records, 10)
	assert.Len(t, transport.criteria, 2)
}

func TestFetchAllPages_Empty(t *testing.T) {
	t.Parallel()

	records, err := shop.FetchAllPages(context.Background(), shop.NewResource(&pagedTransport{}, "products"), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchAllPages_Errors(t *testing.T) {
	t.Parallel()

	transport := &pagedTransport{total: 30, failPage: 2}
	resource := shop.NewResource(transport, "products")

	_, err := shop.FetchAllPages(context.Background(), resource, &shop.PageQuery{Limit: 10}, nil)
	require.ErrorIs(t, err, shop.ErrAPIError)
	assert.Equal(t, http.StatusServiceUnavailable, shop.APIStatus(err))
	assert.Contains(t, err.Error(), "products page 2")

	_, err = shop.FetchAllPages(context.Background(), resource, &shop.PageQuery{Limit: 51}, nil)
	require.ErrorIs(t, err, shop.ErrInvalidLimit)

	// a rejected query leaves no criteria behind for the next call
	_, err = resource.Post(context.Background(), map[string]any{})
	require.NotErrorIs(t, err, shop.ErrFiltersUnsupportedInVerb)
}

func TestPaginationIterator(t *testing.T) {
	t.Parallel()

	transport := &pagedTransport{total: 5}
	iterator := shop.NewPaginationIterator(context.Background(), shop.NewResource(transport, "orders"), &shop.PageQuery{Limit: 2})

	var records []*shop.Record

	for iterator.HasNext() {
		record, err := iterator.Next()
		require.NoError(t, err)

		records = append(records, record)
	}

	require.NoError(t, iterator.Err())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(t, records))
	assert.Equal(t, 3, iterator.PageCount())
	assert.Len(t, transport.criteria, 3)

	_, err := iterator.Next()
	require.ErrorIs(t, err, shop.ErrNoMoreItems)
}

func TestPaginationIterator_Error(t *testing.T) {
	t.Parallel()

	transport := &pagedTransport{total: 6, failPage: 2}
	iterator := shop.NewPaginationIterator(context.Background(), shop.NewResource(transport, "orders"), &shop.PageQuery{Limit: 3})

	for i := 0; i < 3; i++ {
		require.True(t, iterator.HasNext())

		_, err := iterator.Next()
		require.NoError(t, err)
	}

	require.True(t, iterator.HasNext())
	require.Error(t, iterator.Err())

	_, err := iterator.Next()
	require.ErrorIs(t, err, shop.ErrAPIError)

	assert.False(t, iterator.HasNext())
}
