package constants

import "errors"

// Shop configuration errors.
var (
	ErrNoShopsConfigured  = errors.New("no shops configured, use 'dcapi login' to add one")
	ErrShopConfigNotFound = errors.New("shop configuration not found")
	ErrNoRefreshToken     = errors.New("no refresh token available for this shop, please run 'dcapi login' again")
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
)

// Command input errors.
var (
	ErrInvalidFilterFlag   = errors.New("filter must be in key=value form")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrDataRequired        = errors.New("--data flag is required")
	ErrInvalidDataObject   = errors.New("--data must be a JSON object")
)

// File system errors.
var (
	ErrDirectoryTraversalDetected = errors.New("directory traversal detected in file path")
)

// Authentication errors.
var (
	ErrNotAuthenticated = errors.New("not authenticated, use 'dcapi login' first")
)
