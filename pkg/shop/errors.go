package shop

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a ResourceError.
type ErrorKind int

// Error kinds. The numeric value doubles as the error code for every kind
// except KindAPIError, whose code is the HTTP status returned by the shop.
const (
	KindClientError ErrorKind = iota + 1
	KindInvalidLimit
	KindUnsupportedOrderExpression
	KindInvalidFilters
	KindInvalidPage
	KindFiltersUnsupportedInVerb
	KindAPIError
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindClientError:
		return "client error"
	case KindInvalidLimit:
		return "invalid limit"
	case KindUnsupportedOrderExpression:
		return "unsupported order expression"
	case KindInvalidFilters:
		return "invalid filters"
	case KindInvalidPage:
		return "invalid page"
	case KindFiltersUnsupportedInVerb:
		return "filters unsupported in verb"
	case KindAPIError:
		return "api error"
	default:
		return fmt.Sprintf("unknown error kind %d", int(k))
	}
}

// ResourceError is the single error type returned by Resource operations.
type ResourceError struct {
	Kind    ErrorKind
	Message string
	// Code is the HTTP status for KindAPIError, the kind's own code otherwise.
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}

	if e.Kind == KindAPIError {
		return fmt.Sprintf("%s (code: %d)", msg, e.Code)
	}

	return msg
}

// Unwrap returns the lower-level error, if any.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a ResourceError of the same kind. A target with
// a non-zero Code must also match the code.
func (e *ResourceError) Is(target error) bool {
	t, ok := target.(*ResourceError)
	if !ok {
		return false
	}

	if t.Kind != e.Kind {
		return false
	}

	return t.Code == 0 || t.Code == e.Code
}

func newResourceError(kind ErrorKind, message string) *ResourceError {
	return &ResourceError{Kind: kind, Message: message, Code: int(kind)}
}

// NewAPIError builds the error raised for a non-2xx shop response.
func NewAPIError(message string, status int) *ResourceError {
	return &ResourceError{Kind: KindAPIError, Message: message, Code: status}
}

// NewClientError wraps a transport failure.
func NewClientError(err error) *ResourceError {
	return &ResourceError{Kind: KindClientError, Message: err.Error(), Code: int(KindClientError), Err: err}
}

// Sentinels for errors.Is matching on kind.
var (
	ErrClientError                = &ResourceError{Kind: KindClientError}
	ErrInvalidLimit               = &ResourceError{Kind: KindInvalidLimit}
	ErrUnsupportedOrderExpression = &ResourceError{Kind: KindUnsupportedOrderExpression}
	ErrInvalidFilters             = &ResourceError{Kind: KindInvalidFilters}
	ErrInvalidPage                = &ResourceError{Kind: KindInvalidPage}
	ErrFiltersUnsupportedInVerb   = &ResourceError{Kind: KindFiltersUnsupportedInVerb}
	ErrAPIError                   = &ResourceError{Kind: KindAPIError}
)

// Static errors for err113 compliance.
var (
	ErrQuotaExceeded        = errors.New("API quota exceeded")
	ErrUnknownClientError   = errors.New("unknown client error")
	ErrEntrypointURLInvalid = errors.New("entrypoint URL is invalid")
	ErrEntrypointRequired   = errors.New("entrypoint is required")
	ErrConfigRequired       = errors.New("config is required")
	ErrNoCredentials        = errors.New("no credentials available to obtain a token")
	ErrUnknownResource      = errors.New("unknown resource")
	ErrUnexpectedResult     = errors.New("unexpected result type")
	ErrMalformedResponse    = errors.New("malformed response payload")
	ErrNotAnObject          = errors.New("JSON value is not an object")
)

// APIStatus returns the HTTP status carried by an ApiError, or 0.
func APIStatus(err error) int {
	resErr := &ResourceError{}
	if errors.As(err, &resErr) && resErr.Kind == KindAPIError {
		return resErr.Code
	}

	return 0
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return APIStatus(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return APIStatus(err) == http.StatusUnauthorized
}

// IsQuotaExceeded checks if the shop rejected the call because the API call
// bucket is empty, either at the transport or as an ApiError.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || APIStatus(err) == http.StatusTooManyRequests
}
