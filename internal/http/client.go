package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/dcapi/internal/auth"
	"github.com/fivetwenty-io/dcapi/internal/constants"
	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

// Client is a JSON HTTP client for the shop API with retries, token handling,
// interceptors and optional response caching. It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	tokenManager auth.TokenManager
	logger       shop.Logger
	debug        bool
	userAgent    string
	interceptors *shop.InterceptorChain
	cache        *shop.CacheManager
	cachePolicy  *shop.CachingPolicy
}

// Option configures a Client.
type Option func(*Client)

// Request is a single API call.
type Request struct {
	Method string
	// Path is appended to the base URL, e.g. "/webapi/rest/products/1".
	Path  string
	Query url.Values
	// Body is JSON-encoded when non-nil.
	Body    any
	Headers map[string]string
}

// Response is the raw result of an API call. Non-2xx statuses are responses,
// not errors.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	// FromCache is set when the response was served from the cache.
	FromCache bool
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewClient creates a client for baseURL. tokenManager may be nil for
// unauthenticated calls.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		tokenManager: tokenManager,
		userAgent:    constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil {
		retryClient.Logger = &leveledLogger{logger: client.logger}
		retryClient.RequestLogHook = client.logRetry
	}

	return client
}

// WithLogger sets the logger.
func WithLogger(logger shop.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryConfig sets the retry count and backoff bounds.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithHTTPTimeout bounds every attempt.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithInterceptors runs chain around every exchange.
func WithInterceptors(chain *shop.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithCache caches successful reads according to policy. A nil policy uses
// shop.DefaultCachingPolicy.
func WithCache(manager *shop.CacheManager, policy *shop.CachingPolicy) Option {
	return func(c *Client) {
		if policy == nil {
			policy = shop.DefaultCachingPolicy()
		}

		c.cache = manager
		c.cachePolicy = policy
	}
}

// BaseURL returns the base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// Do executes req. A transport failure, an interceptor failure or a 429 that
// outlasted all retries is returned as an error; any other status is returned
// as a Response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var body []byte

	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		body = encoded
	}

	cacheKey := ""
	if c.cache != nil && req.Method == http.MethodGet {
		cacheKey = c.cache.GetCacheKey(req.Method, c.baseURL+req.Path, flatten(req.Query))

		if cached, err := c.cache.GetEntry(ctx, cacheKey); err == nil {
			return &Response{
				StatusCode: cached.StatusCode,
				Headers:    cached.Headers,
				Body:       cached.Data,
				FromCache:  true,
			}, nil
		}
	}

	resp, err := c.send(ctx, req, body, false)
	if err != nil {
		return resp, err
	}

	c.updateCache(ctx, req, cacheKey, resp)

	if resp.StatusCode == http.StatusTooManyRequests {
		return resp, fmt.Errorf("%w: %s %s", shop.ErrQuotaExceeded, req.Method, req.Path)
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, req *Request, body []byte, refreshed bool) (*Response, error) {
	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	intercepted := &shop.HTTPRequest{
		Method:  req.Method,
		Path:    strings.TrimPrefix(fullURL, c.baseURL),
		Headers: c.headers(req, body != nil),
		Body:    body,
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("obtaining access token: %w", err)
		}

		intercepted.Headers.Set("Authorization", "Bearer "+token)
	}

	if c.interceptors != nil {
		err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	var payload interface{}
	if intercepted.Body != nil {
		payload = intercepted.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, payload)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = intercepted.Headers

	c.debugRequest(httpReq, body)

	start := time.Now()
	resp, doErr := c.exchange(httpReq)

	if c.interceptors != nil {
		observed := &shop.HTTPResponse{Error: doErr}
		if resp != nil {
			observed.StatusCode = resp.StatusCode
			observed.Headers = resp.Headers
			observed.Body = resp.Body
		}

		err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, observed)
		if err != nil && doErr == nil {
			return resp, err
		}
	}

	if doErr != nil {
		return nil, doErr
	}

	c.debugResponse(httpReq, resp, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized && c.tokenManager != nil && !refreshed {
		err = c.tokenManager.RefreshToken(ctx)
		if err != nil {
			c.warn("Token refresh after 401 failed", map[string]interface{}{"error": err.Error()})

			return resp, nil
		}

		return c.send(ctx, req, body, true)
	}

	return resp, nil
}

func (c *Client) exchange(httpReq *retryablehttp.Request) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", httpReq.Method, httpReq.URL.Path, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}, nil
}

func (c *Client) headers(req *Request, hasBody bool) http.Header {
	headers := make(http.Header)
	headers.Set("Accept", "application/json")
	headers.Set("User-Agent", c.userAgent)

	if hasBody {
		headers.Set("Content-Type", "application/json")
	}

	for key, value := range req.Headers {
		headers.Set(key, value)
	}

	return headers
}

func (c *Client) updateCache(ctx context.Context, req *Request, cacheKey string, resp *Response) {
	if c.cache == nil {
		return
	}

	if req.Method != http.MethodGet {
		err := c.cache.Invalidate(ctx)
		if err != nil {
			c.warn("Cache invalidation failed", map[string]interface{}{"error": err.Error()})
		}

		return
	}

	if cacheKey == "" || !c.cachePolicy.ShouldCache(req.Method, req.Path, resp.StatusCode) {
		return
	}

	entry := &shop.CacheEntry{
		Data:       resp.Body,
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		ExpiresAt:  time.Now().Add(c.cache.Options().TTL),
	}

	if c.cache.Options().EnableETags {
		entry.ETag = resp.Headers.Get("ETag")
	}

	err := c.cache.SetEntry(ctx, cacheKey, entry)
	if err != nil {
		c.warn("Cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *Client) debugRequest(req *retryablehttp.Request, body []byte) {
	if !c.debug || c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Request", map[string]interface{}{
		"method":    req.Method,
		"url":       req.URL.String(),
		"body_size": len(body),
	})
}

func (c *Client) debugResponse(req *retryablehttp.Request, resp *Response, duration time.Duration) {
	if !c.debug || c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Response", map[string]interface{}{
		"method":      req.Method,
		"url":         req.URL.String(),
		"status_code": resp.StatusCode,
		"duration":    duration.String(),
		"body_size":   len(resp.Body),
	})
}

func (c *Client) logRetry(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}

	c.warn("Retrying HTTP request", map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.String(),
		"attempt": attempt,
	})
}

func (c *Client) warn(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}

func flatten(query url.Values) map[string]string {
	if len(query) == 0 {
		return nil
	}

	params := make(map[string]string, len(query))
	for key, values := range query {
		params[key] = strings.Join(values, ",")
	}

	return params
}

// leveledLogger forwards retryablehttp warnings and errors; its debug chatter
// is covered by WithDebug.
type leveledLogger struct {
	logger shop.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsFrom(keysAndValues))
}

func (l *leveledLogger) Info(string, ...interface{}) {}

func (l *leveledLogger) Debug(string, ...interface{}) {}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsFrom(keysAndValues))
}

func fieldsFrom(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		value := keysAndValues[i+1]
		if err, isErr := value.(error); isErr {
			value = err.Error()
		}

		fields[key] = value
	}

	return fields
}

var _ retryablehttp.LeveledLogger = (*leveledLogger)(nil)
