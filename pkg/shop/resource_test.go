package shop_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

// recordingTransport answers every request with the queued responses in turn
// and remembers what it was asked.
type recordingTransport struct {
	responses []*shop.Response
	err       error
	requests  []*shop.Request
}

func (t *recordingTransport) Request(_ context.Context, req *shop.Request) (*shop.Response, error) {
	t.requests = append(t.requests, req)

	if t.err != nil {
		return nil, t.err
	}

	if len(t.responses) == 0 {
		return nil, nil
	}

	resp := t.responses[0]
	if len(t.responses) > 1 {
		t.responses = t.responses[1:]
	}

	return resp, nil
}

func (t *recordingTransport) last() *shop.Request {
	return t.requests[len(t.requests)-1]
}

func jsonResponse(status int, body string) *shop.Response {
	return &shop.Response{StatusCode: status, Headers: http.Header{}, Data: json.RawMessage(body)}
}

func TestResource_GetCollection(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{responses: []*shop.Response{
		jsonResponse(http.StatusOK, `{"count":1,"pages":1,"page":1,"list":[{"producer_id":1,"name":"Acme"}]}`),
	}}
	producers := shop.NewResource(transport, "producers")
	ctx := context.Background()

	require.NoError(t, producers.Limit(10))
	require.NoError(t, producers.Order("-name"))

	list, err := producers.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, list.Len())
	assert.Equal(t, "Acme", list.Items[0].String("name"))

	req := transport.last()
	assert.Equal(t, "producers", req.Resource)
	assert.Equal(t, shop.VerbGet, req.Verb)
	assert.Empty(t, req.PathArgs)
	require.NotNil(t, req.Criteria)
	assert.Equal(t, 10, *req.Criteria.Limit)
	assert.Equal(t, "name desc", req.Criteria.Order)

	// criteria last one call
	_, err = producers.List(ctx)
	require.NoError(t, err)
	assert.Nil(t, transport.last().Criteria)
}

func TestResource_GetByID(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{responses: []*shop.Response{
		jsonResponse(http.StatusOK, `{"producer_id":7,"name":"Initech"}`),
	}}
	producers := shop.NewResource(transport, "producers")

	record, err := producers.GetByID(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Initech", record.String("name"))
	assert.Equal(t, []string{"7"}, transport.last().PathArgs)
}

func TestResource_SingleOnly(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{responses: []*shop.Response{
		jsonResponse(http.StatusOK, `{"shop_off":0,"default_currency_id":1}`),
	}}
	config := shop.NewSingleResource(transport, "application-config")
	ctx := context.Background()

	assert.True(t, config.IsSingleOnly())

	result, err := config.Get(ctx)
	require.NoError(t, err)

	record, ok := result.(*shop.Record)
	require.True(t, ok)
	assert.Equal(t, "0", record.String("shop_off"))

	_, err = config.List(ctx)
	require.ErrorIs(t, err, shop.ErrUnexpectedResult)
}

func TestResource_GetAPIError(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{responses: []*shop.Response{
		jsonResponse(http.StatusNotFound, `{"error":"Object not found"}`),
	}}
	products := shop.NewResource(transport, "products")

	_, err := products.GetByID(context.Background(), "999")
	require.Error(t, err)
	assert.True(t, shop.IsNotFound(err))
	assert.Equal(t, "Object not found (code: 404)", err.Error())
}

func TestResource_CriteriaClearedOnFailure(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{responses: []*shop.Response{
		jsonResponse(http.StatusInternalServerError, `{"error":"boom"}`),
		jsonResponse(http.StatusOK, `{"count":0,"pages":0,"page":1,"list":[]}`),
	}}
	products := shop.NewResource(transport, "products")
	ctx := context.Background()

	require.NoError(t, products.Page(2))

	_, err := products.List(ctx)
	require.ErrorIs(t, err, shop.ErrAPIError)

	_, err = products.List(ctx)
	require.NoError(t, err)
	assert.Nil(t, transport.last().Criteria)
}

func TestResource_WriteVerbsRejectCriteria(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	data := map[string]any{"name": "Acme"}

	tests := []struct {
		name    string
		message string
		call    func(*shop.Resource) error
	}{
		{
			name:    "post",
			message: "filtering not supported in POST",
			call: func(r *shop.Resource) error {
				_, err := r.Post(ctx, data)

				return err
			},
		},
		{
			name:    "put by id",
			message: "filtering not supported in PUT",
			call: func(r *shop.Resource) error {
				_, err := r.PutByID(ctx, "1", data)

				return err
			},
		},
		{
			name:    "put",
			message: "filtering not supported in PUT",
			call: func(r *shop.Resource) error {
				_, err := r.Put(ctx, data)

				return err
			},
		},
		{
			name:    "delete by id",
			message: "filtering not supported in DELETE",
			call: func(r *shop.Resource) error {
				_, err := r.DeleteByID(ctx, "1")

				return err
			},
		},
		{
			name:    "delete",
			message: "filtering not supported in DELETE",
			call: func(r *shop.Resource) error {
				_, err := r.Delete(ctx)

				return err
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := &recordingTransport{responses: []*shop.Response{jsonResponse(http.StatusOK, `1`)}}
			producers := shop.NewResource(transport, "producers")

			require.NoError(t, producers.Limit(5))

			err := tt.call(producers)
			require.ErrorIs(t, err, shop.ErrFiltersUnsupportedInVerb)
			assert.Equal(t, tt.message, err.Error())
			assert.Empty(t, transport.requests)

			// the rejected criteria are gone
			require.NoError(t, tt.call(producers))
			assert.Len(t, transport.requests, 1)
		})
	}
}

func TestResource_Post(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{responses: []*shop.Response{jsonResponse(http.StatusOK, `42`)}}
	producers := shop.NewResource(transport, "producers")
	data := map[string]any{"name": "Acme"}

	id, err := producers.Post(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, json.Number("42"), id)

	req := transport.last()
	assert.Equal(t, shop.VerbPost, req.Verb)
	assert.Equal(t, data, req.Body)
	assert.Nil(t, req.Criteria)
}

func TestResource_PostNested(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{responses: []*shop.Response{jsonResponse(http.StatusOK, `{"id":5}`)}}
	images := shop.NewResource(transport, "product-images")

	result, err := images.Post(context.Background(), map[string]any{"url": "https://img.example/a.png"}, "12")
	require.NoError(t, err)
	assert.IsType(t, &shop.Record{}, result)
	assert.Equal(t, []string{"12"}, transport.last().PathArgs)
}

func TestResource_WriteAPIError(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{responses: []*shop.Response{
		jsonResponse(http.StatusBadRequest, `{"error":"Invalid name"}`),
	}}
	producers := shop.NewResource(transport, "producers")

	ok, err := producers.PutByID(context.Background(), "3", map[string]any{"name": ""})
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, shop.APIStatus(err))
	assert.Equal(t, "Invalid name (code: 400)", err.Error())

	_, err = producers.Post(context.Background(), map[string]any{})
	require.ErrorIs(t, err, &shop.ResourceError{Kind: shop.KindAPIError, Code: http.StatusBadRequest})
}

func TestResource_WriteSuccess(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{responses: []*shop.Response{jsonResponse(http.StatusOK, `true`)}}
	producers := shop.NewResource(transport, "producers")
	ctx := context.Background()

	ok, err := producers.PutByID(ctx, "3", map[string]any{"name": "Acme"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, shop.VerbPut, transport.last().Verb)
	assert.Equal(t, []string{"3"}, transport.last().PathArgs)

	ok, err = producers.DeleteByID(ctx, "3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, shop.VerbDelete, transport.last().Verb)
	assert.Nil(t, transport.last().Body)
}

func TestResource_TransportError(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{err: errConnectionRefused}
	products := shop.NewResource(transport, "products")

	_, err := products.Get(context.Background())
	require.ErrorIs(t, err, shop.ErrClientError)
	require.ErrorIs(t, err, errConnectionRefused)

	_, err = products.Delete(context.Background())
	require.ErrorIs(t, err, shop.ErrClientError)
}

func TestResource_NoResponse(t *testing.T) {
	t.Parallel()

	products := shop.NewResource(&recordingTransport{}, "products")

	_, err := products.Get(context.Background())
	require.ErrorIs(t, err, shop.ErrClientError)
	require.ErrorIs(t, err, shop.ErrUnknownClientError)
}
