package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Shop REST API layout.
const (
	// APIBasePath prefixes every resource path.
	APIBasePath = "/webapi/rest"

	// OAuthTokenPath is the token endpoint relative to the shop entrypoint.
	OAuthTokenPath = APIBasePath + "/oauth/token"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "dcapi/1.0"
)

// Quota headers sent by the shop with every response.
const (
	// HeaderAPICalls is the number of calls left in the current bucket.
	HeaderAPICalls = "X-Shop-Api-Calls"

	// HeaderAPILimit is the bucket size.
	HeaderAPILimit = "X-Shop-Api-Limit"

	// HeaderAPIBandwidth is the bandwidth used, as reported by the shop.
	HeaderAPIBandwidth = "X-Shop-Api-Bandwidth"

	// HeaderRequestID carries the client generated request identifier.
	HeaderRequestID = "X-Request-Id"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Token handling.
const (
	// TokenExpirationBuffer is the buffer time before token expiration.
	TokenExpirationBuffer = 30 * time.Second
)

// Cache defaults.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultCacheCleanupInterval is how often expired memory entries are purged.
	DefaultCacheCleanupInterval = "1m"

	// DefaultNATSBucket is the JetStream KV bucket used for shared caching.
	DefaultNATSBucket = "dcapi-cache"
)

// Circuit breaker defaults.
const (
	// CircuitBreakerThreshold is the failure threshold for circuit breaker.
	CircuitBreakerThreshold = 5

	// CircuitBreakerSuccessThreshold is the success threshold for circuit breaker.
	CircuitBreakerSuccessThreshold = 2

	// CircuitBreakerTimeout is the timeout for circuit breaker.
	CircuitBreakerTimeout = 30 * time.Second
)

// State and status constants.
const (
	// StatusClosed indicates a closed circuit.
	StatusClosed = "closed"

	// StatusOpen indicates an open state.
	StatusOpen = "open"

	// StatusHalfOpen indicates a half-open state.
	StatusHalfOpen = "half-open"
)

// Output formats.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// UI and display constants.
const (
	// CheckMarkSymbol is used to indicate current/active items.
	CheckMarkSymbol = "✓"

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// CellTruncationLength bounds nested values rendered in table cells.
	CellTruncationLength = 60

	// KeyValueSplitParts is the number of parts when splitting key=value strings.
	KeyValueSplitParts = 2
)
