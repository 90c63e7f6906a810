package shop

import (
	"context"
	"time"
)

// Client is a connection to one shop. It hands out Resources bound to its
// transport and is safe for concurrent use; the Resources it returns are not.
type Client interface {
	Transport

	// Resource returns a fresh Resource for a registered name.
	Resource(name string) (*Resource, error)
	// Resources lists the registered resource names.
	Resources() []string

	Products() *Resource
	Categories() *Resource
	Producers() *Resource
	Orders() *Resource
	Users() *Resource
	ApplicationConfig() *Resource

	// Quota reports the API call bucket as of the last response.
	Quota() Quota
	// Token returns the bearer token currently in use, refreshing it if needed.
	Token(ctx context.Context) (string, error)
	// Close releases cache connections and background workers.
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a shop.Client.
//
// # Authentication precedence
//
// pkg/shopclient applies the following order:
//  1. AccessToken: used directly as a Bearer token. With RefreshToken and
//     client credentials set, the token is refreshed once it expires or the
//     shop answers 401.
//  2. AuthCode + ClientID/ClientSecret: the authorization code issued when the
//     application was installed is exchanged for a token pair.
//  3. RefreshToken + ClientID/ClientSecret: a new token pair is obtained with
//     the refresh_token grant.
//  4. No credentials: ErrNoCredentials.
//
// # Token URL
//
// TokenURL defaults to "<entrypoint>/webapi/rest/oauth/token".
type Config struct {
	// Entrypoint is the shop base URL, e.g. "https://example.shoparena.pl".
	// shopclient.New trims a trailing slash and adds "https://" when the
	// scheme is missing.
	Entrypoint string

	// ClientID is the application identifier.
	ClientID string
	// ClientSecret is the application secret.
	ClientSecret string
	// AuthCode is the one-time authorization code delivered on install.
	AuthCode string
	// AccessToken is a previously obtained bearer token.
	AccessToken string
	// RefreshToken renews AccessToken.
	RefreshToken string
	// TokenURL overrides the OAuth token endpoint.
	TokenURL string

	// HTTPTimeout bounds each HTTP attempt. Prefer context deadlines.
	HTTPTimeout time.Duration
	// RetryMax is the retry count for 429, 5xx and connection errors.
	RetryMax int
	// RetryWaitMin is the minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax is the maximum backoff between retries.
	RetryWaitMax time.Duration
	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Logger is used by the HTTP layer and interceptors.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// RateLimit caps outgoing requests per second. 0 disables client-side limiting.
	RateLimit int
	// Interceptors run around every HTTP exchange.
	Interceptors *InterceptorChain
	// Cache enables response caching of successful reads when set.
	Cache *CacheConfig
}
