package shop_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dcapi/internal/constants"
	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

var errBlocked = errors.New("blocked")

func TestInterceptorChain_Order(t *testing.T) {
	t.Parallel()

	chain := shop.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *shop.HTTPRequest) error {
		executionOrder = append(executionOrder, "first")

		return nil
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *shop.HTTPRequest) error {
		executionOrder = append(executionOrder, "second")

		return nil
	})
	chain.AddResponseInterceptor(func(ctx context.Context, req *shop.HTTPRequest, resp *shop.HTTPResponse) error {
		executionOrder = append(executionOrder, "response")

		return nil
	})

	req := &shop.HTTPRequest{Method: http.MethodGet, Path: "/webapi/rest/products"}

	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &shop.HTTPResponse{StatusCode: http.StatusOK}))

	assert.Equal(t, []string{"first", "second", "response"}, executionOrder)
}

func TestInterceptorChain_StopsOnError(t *testing.T) {
	t.Parallel()

	chain := shop.NewInterceptorChain()
	called := false

	chain.AddRequestInterceptor(func(ctx context.Context, req *shop.HTTPRequest) error {
		return errBlocked
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *shop.HTTPRequest) error {
		called = true

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &shop.HTTPRequest{})
	require.ErrorIs(t, err, errBlocked)
	assert.Contains(t, err.Error(), "request interceptor failed")
	assert.False(t, called)
}

func TestInterceptorChain_Clone(t *testing.T) {
	t.Parallel()

	chain := shop.NewInterceptorChain()
	chain.AddRequestInterceptor(shop.HeaderInterceptor(map[string]string{"X-Base": "1"}))

	clone := chain.Clone()
	clone.AddRequestInterceptor(shop.HeaderInterceptor(map[string]string{"X-Extra": "1"}))

	req := &shop.HTTPRequest{}
	require.NoError(t, chain.ExecuteRequestInterceptors(context.Background(), req))
	assert.Equal(t, "1", req.Headers.Get("X-Base"))
	assert.Empty(t, req.Headers.Get("X-Extra"))

	cloned := &shop.HTTPRequest{}
	require.NoError(t, clone.ExecuteRequestInterceptors(context.Background(), cloned))
	assert.Equal(t, "1", cloned.Headers.Get("X-Extra"))
}

func TestRequestIDInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := shop.RequestIDInterceptor()
	ctx := context.Background()

	first := &shop.HTTPRequest{}
	second := &shop.HTTPRequest{}

	require.NoError(t, interceptor(ctx, first))
	require.NoError(t, interceptor(ctx, second))

	assert.Len(t, first.Headers.Get(constants.HeaderRequestID), 36)
	assert.NotEqual(t, first.Headers.Get(constants.HeaderRequestID), second.Headers.Get(constants.HeaderRequestID))

	preset := &shop.HTTPRequest{Headers: http.Header{constants.HeaderRequestID: []string{"fixed"}}}
	require.NoError(t, interceptor(ctx, preset))
	assert.Equal(t, "fixed", preset.Headers.Get(constants.HeaderRequestID))
}

func TestRateLimitInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := shop.RateLimitInterceptor(20)
	ctx := context.Background()

	start := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, interceptor(ctx, &shop.HTTPRequest{}))
	}

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	require.ErrorIs(t, interceptor(cancelled, &shop.HTTPRequest{}), context.Canceled)
}

func TestMetricsCollector(t *testing.T) {
	t.Parallel()

	collector := shop.NewMetricsCollector()
	chain := shop.NewInterceptorChain()
	chain.AddRequestInterceptor(shop.MetricsRequestInterceptor(collector))
	chain.AddResponseInterceptor(shop.MetricsResponseInterceptor(collector))

	var changes int

	collector.SetOnChange(func(endpoint string, metrics shop.Metrics) {
		changes++
	})

	ctx := context.Background()

	for _, status := range []int{http.StatusOK, http.StatusNotFound} {
		req := &shop.HTTPRequest{Method: http.MethodGet, Path: "/webapi/rest/products"}
		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
		require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &shop.HTTPResponse{StatusCode: status}))
	}

	metrics := collector.GetMetrics("GET /webapi/rest/products")
	require.NotNil(t, metrics)
	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.TotalErrors)
	assert.False(t, metrics.LastRequestTime.IsZero())
	assert.Equal(t, 2, changes)
	assert.Equal(t, []string{"GET /webapi/rest/products"}, collector.Endpoints())
	assert.Nil(t, collector.GetMetrics("POST /webapi/rest/products"))
}

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	breaker := shop.NewCircuitBreaker(&shop.CircuitBreakerConfig{
		Threshold:        2,
		Timeout:          50 * time.Millisecond,
		SuccessThreshold: 1,
	})
	before := shop.CircuitBreakerRequestInterceptor(breaker)
	after := shop.CircuitBreakerResponseInterceptor(breaker)
	ctx := context.Background()
	req := &shop.HTTPRequest{}

	assert.Equal(t, constants.StatusClosed, breaker.State())

	// client errors do not count
	require.NoError(t, after(ctx, req, &shop.HTTPResponse{StatusCode: http.StatusNotFound}))
	assert.Equal(t, constants.StatusClosed, breaker.State())

	require.NoError(t, after(ctx, req, &shop.HTTPResponse{StatusCode: http.StatusBadGateway}))
	require.NoError(t, after(ctx, req, &shop.HTTPResponse{Error: errBlocked}))
	assert.Equal(t, constants.StatusOpen, breaker.State())

	require.ErrorIs(t, before(ctx, req), shop.ErrCircuitBreakerOpen)

	time.Sleep(60 * time.Millisecond)

	require.NoError(t, before(ctx, req))
	assert.Equal(t, constants.StatusHalfOpen, breaker.State())

	require.NoError(t, after(ctx, req, &shop.HTTPResponse{StatusCode: http.StatusOK}))
	assert.Equal(t, constants.StatusClosed, breaker.State())
}

func TestCircuitBreaker_Defaults(t *testing.T) {
	t.Parallel()

	breaker := shop.NewCircuitBreaker(nil)
	assert.Equal(t, constants.StatusClosed, breaker.State())
}
