package shopclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/dcapi/internal/client"
	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

// New creates a client for the shop described by config. The entrypoint is
// normalized in place, see NormalizeEntrypoint.
func New(ctx context.Context, config *shop.Config) (shop.Client, error) {
	if config == nil {
		return nil, shop.ErrConfigRequired
	}

	if config.Entrypoint == "" {
		return nil, shop.ErrEntrypointRequired
	}

	entrypoint, err := NormalizeEntrypoint(config.Entrypoint)
	if err != nil {
		return nil, err
	}

	config.Entrypoint = entrypoint

	c, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NormalizeEntrypoint trims whitespace and trailing slashes, adds "https://"
// when the scheme is missing and checks that a host is present.
func NormalizeEntrypoint(raw string) (string, error) {
	scheme := "https"
	rest := strings.TrimSpace(raw)

	for _, candidate := range []string{"http", "https"} {
		if trimmed, ok := strings.CutPrefix(rest, candidate+"://"); ok {
			scheme = candidate
			rest = trimmed

			break
		}
	}

	rest = strings.TrimRight(rest, "/")
	if rest == "" {
		return "", fmt.Errorf("%w: %q", shop.ErrEntrypointURLInvalid, raw)
	}

	entrypoint := scheme + "://" + rest

	parsed, err := url.Parse(entrypoint)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shop.ErrEntrypointURLInvalid, err)
	}

	if parsed.Hostname() == "" || parsed.RawQuery != "" || parsed.Fragment != "" {
		return "", fmt.Errorf("%w: %q", shop.ErrEntrypointURLInvalid, raw)
	}

	return entrypoint, nil
}

// NewWithToken creates a client that sends a previously obtained access token.
func NewWithToken(ctx context.Context, entrypoint, token string) (shop.Client, error) {
	return New(ctx, &shop.Config{
		Entrypoint:  entrypoint,
		AccessToken: token,
	})
}

// NewWithAuthCode creates a client that exchanges the authorization code
// delivered when the application was installed.
func NewWithAuthCode(ctx context.Context, entrypoint, clientID, clientSecret, code string) (shop.Client, error) {
	return New(ctx, &shop.Config{
		Entrypoint:   entrypoint,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthCode:     code,
	})
}

// NewWithRefreshToken creates a client that obtains tokens with the
// refresh_token grant.
func NewWithRefreshToken(ctx context.Context, entrypoint, clientID, clientSecret, refreshToken string) (shop.Client, error) {
	return New(ctx, &shop.Config{
		Entrypoint:   entrypoint,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RefreshToken: refreshToken,
	})
}
