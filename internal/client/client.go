package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fivetwenty-io/dcapi/internal/auth"
	"github.com/fivetwenty-io/dcapi/internal/constants"
	"github.com/fivetwenty-io/dcapi/internal/http"
	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
	ErrUnsupportedVerb          = errors.New("unsupported verb")
)

// Client implements shop.Client over the shop REST API.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	registry     *shop.Registry
	baseURL      string
	logger       shop.Logger

	cache       shop.Cache
	stopCleanup context.CancelFunc

	mu    sync.RWMutex
	quota shop.Quota
}

// New creates a client for config.Entrypoint, choosing a token manager from
// the credentials in config. ctx bounds background cache maintenance.
func New(ctx context.Context, config *shop.Config) (*Client, error) {
	tokenManager, err := NewTokenManager(config)
	if err != nil {
		return nil, err
	}

	return NewWithTokenManager(ctx, config, tokenManager)
}

// NewWithTokenManager creates a client that authenticates through tokenManager.
// A nil tokenManager sends unauthenticated requests.
func NewWithTokenManager(ctx context.Context, config *shop.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config.Entrypoint == "" {
		return nil, shop.ErrEntrypointRequired
	}

	client := &Client{
		tokenManager: tokenManager,
		registry:     shop.DefaultRegistry(),
		baseURL:      strings.TrimSuffix(config.Entrypoint, "/"),
		logger:       config.Logger,
	}

	httpOpts := createHTTPClientOptions(config)

	if config.Cache != nil && config.Cache.Type != shop.CacheTypeNone {
		cacheOpt, err := client.setupCache(ctx, config.Cache)
		if err != nil {
			return nil, err
		}

		httpOpts = append(httpOpts, cacheOpt)
	}

	client.httpClient = http.NewClient(client.baseURL, tokenManager, httpOpts...)

	return client, nil
}

// NewTokenManager picks the token manager matching the credentials in config.
func NewTokenManager(config *shop.Config) (auth.TokenManager, error) {
	oauthConfig := &auth.OAuth2Config{
		TokenURL:     getTokenURL(config),
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RefreshToken: config.RefreshToken,
	}

	switch {
	case config.AccessToken != "" && config.RefreshToken != "" && config.ClientID != "":
		oauthConfig.AccessToken = config.AccessToken

		return auth.NewOAuth2TokenManager(oauthConfig), nil

	case config.AccessToken != "":
		return auth.NewStaticTokenManager(config.AccessToken), nil

	case config.AuthCode != "":
		oauthConfig.AuthCode = config.AuthCode
		oauthConfig.RefreshToken = ""

		return auth.NewOAuth2TokenManager(oauthConfig), nil

	case config.RefreshToken != "":
		return auth.NewOAuth2TokenManager(oauthConfig), nil

	default:
		return nil, shop.ErrNoCredentials
	}
}

func getTokenURL(config *shop.Config) string {
	if config.TokenURL != "" {
		return config.TokenURL
	}

	return auth.TokenURL(config.Entrypoint)
}

func createHTTPClientOptions(config *shop.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithHTTPTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	chain := config.Interceptors
	if config.RateLimit > 0 {
		if chain == nil {
			chain = shop.NewInterceptorChain()
		} else {
			chain = chain.Clone()
		}

		chain.AddRequestInterceptor(shop.RateLimitInterceptor(config.RateLimit))
	}

	if chain != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(chain))
	}

	return httpOpts
}

// cleaner is implemented by caches that purge expired entries in the background.
type cleaner interface {
	StartCleanup(ctx context.Context, interval time.Duration)
}

func (c *Client) setupCache(ctx context.Context, config *shop.CacheConfig) (http.Option, error) {
	interval, err := config.Memory.Interval()
	if err != nil {
		return nil, fmt.Errorf("configuring cache: %w", err)
	}

	cache, err := shop.NewCacheFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	c.cache = cache

	if background, ok := cache.(cleaner); ok && interval > 0 {
		cleanupCtx, cancel := context.WithCancel(ctx)
		c.stopCleanup = cancel

		background.StartCleanup(cleanupCtx, interval)
	}

	return http.WithCache(shop.NewCacheManager(cache, config.Options), nil), nil
}

// Request implements shop.Transport.
func (c *Client) Request(ctx context.Context, req *shop.Request) (*shop.Response, error) {
	method, err := httpMethod(req.Verb)
	if err != nil {
		return nil, err
	}

	httpReq := &http.Request{
		Method: method,
		Path:   ResourcePath(req.Resource, req.PathArgs...),
		Body:   req.Body,
	}

	if req.Criteria != nil {
		httpReq.Query = req.Criteria.Values()
	}

	resp, err := c.httpClient.Do(ctx, httpReq)
	if resp != nil && !resp.FromCache {
		c.observeQuota(resp.Headers)
	}

	if err != nil {
		return nil, fmt.Errorf("requesting %s %s: %w", method, req.Resource, err)
	}

	return &shop.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Data:       json.RawMessage(resp.Body),
	}, nil
}

// ResourcePath builds the REST path of a resource, escaping each argument.
func ResourcePath(resource string, args ...string) string {
	var builder strings.Builder

	builder.WriteString(constants.APIBasePath)
	builder.WriteString("/")
	builder.WriteString(resource)

	for _, arg := range args {
		builder.WriteString("/")
		builder.WriteString(url.PathEscape(arg))
	}

	return builder.String()
}

func httpMethod(verb shop.Verb) (string, error) {
	switch verb {
	case shop.VerbGet:
		return nethttp.MethodGet, nil
	case shop.VerbPost:
		return nethttp.MethodPost, nil
	case shop.VerbPut:
		return nethttp.MethodPut, nil
	case shop.VerbDelete:
		return nethttp.MethodDelete, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedVerb, verb)
	}
}

func (c *Client) observeQuota(headers nethttp.Header) {
	quota, ok := shop.QuotaFromHeaders(headers)
	if !ok {
		return
	}

	c.mu.Lock()
	c.quota = quota
	c.mu.Unlock()

	if quota.Exhausted() && c.logger != nil {
		c.logger.Warn("API call quota exhausted", map[string]interface{}{
			"calls": quota.Calls,
			"limit": quota.Limit,
		})
	}
}

// Quota implements shop.Client.Quota.
func (c *Client) Quota() shop.Quota {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.quota
}

// Token implements shop.Client.Token.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", ErrNoTokenManagerConfigured
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("getting token: %w", err)
	}

	return token, nil
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// BaseURL returns the shop entrypoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close implements shop.Client.Close.
func (c *Client) Close() error {
	if c.stopCleanup != nil {
		c.stopCleanup()
	}

	if closer, ok := c.cache.(io.Closer); ok {
		err := closer.Close()
		if err != nil {
			return fmt.Errorf("closing cache: %w", err)
		}
	}

	return nil
}

// Resource implements shop.Client.Resource.
func (c *Client) Resource(name string) (*shop.Resource, error) {
	resource, err := c.registry.New(c, name)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	return resource, nil
}

// Resources implements shop.Client.Resources.
func (c *Client) Resources() []string {
	return c.registry.Names()
}

// Products implements shop.Client.Products.
func (c *Client) Products() *shop.Resource {
	return c.builtin(shop.ResourceProducts)
}

// Categories implements shop.Client.Categories.
func (c *Client) Categories() *shop.Resource {
	return c.builtin(shop.ResourceCategories)
}

// Producers implements shop.Client.Producers.
func (c *Client) Producers() *shop.Resource {
	return c.builtin(shop.ResourceProducers)
}

// Orders implements shop.Client.Orders.
func (c *Client) Orders() *shop.Resource {
	return c.builtin(shop.ResourceOrders)
}

// Users implements shop.Client.Users.
func (c *Client) Users() *shop.Resource {
	return c.builtin(shop.ResourceUsers)
}

// ApplicationConfig implements shop.Client.ApplicationConfig.
func (c *Client) ApplicationConfig() *shop.Resource {
	return c.builtin(shop.ResourceApplicationConfig)
}

// builtin resolves names DefaultRegistry always carries.
func (c *Client) builtin(name string) *shop.Resource {
	factory, ok := c.registry.Lookup(name)
	if !ok {
		return shop.NewResource(c, name)
	}

	return factory(c)
}

var _ shop.Client = (*Client)(nil)
