package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/dcapi/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrNoValidCredentials = errors.New("no valid credentials available")
	ErrAuthCodeConsumed   = errors.New("authorization code already exchanged")
)

// OAuth2Config configures an OAuth2TokenManager.
type OAuth2Config struct {
	// TokenURL is the shop token endpoint.
	TokenURL     string
	ClientID     string
	ClientSecret string
	// AuthCode is exchanged once with the authorization_code grant.
	AuthCode     string
	AccessToken  string
	RefreshToken string
	// HTTPClient performs token requests. Default: http.DefaultClient.
	HTTPClient *http.Client
}

// OAuth2TokenManager obtains and renews tokens from the shop's OAuth endpoint.
// The shop authenticates the application with HTTP basic auth and issues
// tokens through the authorization_code and refresh_token grants.
type OAuth2TokenManager struct {
	config   *OAuth2Config
	oauth    *oauth2.Config
	store    *TokenStore
	mu       sync.Mutex
	codeUsed bool
}

// NewOAuth2TokenManager creates a manager. An AccessToken in config is used
// until it fails or is refreshed.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	manager := &OAuth2TokenManager{
		config: config,
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  config.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		store: NewTokenStore(),
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{
			AccessToken:  config.AccessToken,
			TokenType:    "bearer",
			RefreshToken: config.RefreshToken,
		})
	}

	return manager
}

// NewShopTokenManager creates a manager for the shop at entrypoint.
func NewShopTokenManager(entrypoint, clientID, clientSecret string) *OAuth2TokenManager {
	return NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     TokenURL(entrypoint),
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// TokenURL returns the token endpoint of the shop at entrypoint.
func TokenURL(entrypoint string) string {
	return strings.TrimSuffix(entrypoint, "/") + constants.OAuthTokenPath
}

// GetToken returns a valid access token, obtaining one if necessary.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have refreshed while we waited.
	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	token, err := m.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

// RefreshToken obtains a new token regardless of the current one's validity.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.fetchToken(ctx)

	return err
}

// SetToken manually sets the access token, keeping the known refresh token.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	refreshToken := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refreshToken = current.RefreshToken
	}

	m.store.Set(&Token{
		AccessToken:  token,
		TokenType:    "bearer",
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}

// Current returns the stored token, or nil.
func (m *OAuth2TokenManager) Current() *Token {
	return m.store.Get()
}

// Exchange trades an authorization code for a token pair.
func (m *OAuth2TokenManager) Exchange(ctx context.Context, code string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.exchange(ctx, code)
}

func (m *OAuth2TokenManager) fetchToken(ctx context.Context) (*Token, error) {
	refreshToken := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refreshToken = current.RefreshToken
	}

	switch {
	case refreshToken != "":
		return m.refresh(ctx, refreshToken)
	case m.config.AuthCode != "" && !m.codeUsed:
		return m.exchange(ctx, m.config.AuthCode)
	case m.config.AuthCode != "":
		return nil, fmt.Errorf("%w: %w", ErrNoValidCredentials, ErrAuthCodeConsumed)
	default:
		return nil, ErrNoValidCredentials
	}
}

func (m *OAuth2TokenManager) refresh(ctx context.Context, refreshToken string) (*Token, error) {
	source := m.oauth.TokenSource(m.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})

	issued, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	return m.save(issued, refreshToken), nil
}

func (m *OAuth2TokenManager) exchange(ctx context.Context, code string) (*Token, error) {
	issued, err := m.oauth.Exchange(m.clientContext(ctx), code)
	if code == m.config.AuthCode {
		m.codeUsed = true
	}

	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	return m.save(issued, ""), nil
}

func (m *OAuth2TokenManager) save(issued *oauth2.Token, previousRefresh string) *Token {
	token := &Token{
		AccessToken:  issued.AccessToken,
		TokenType:    issued.TokenType,
		RefreshToken: issued.RefreshToken,
		ExpiresAt:    issued.Expiry,
	}

	if token.RefreshToken == "" {
		token.RefreshToken = previousRefresh
	}

	if token.TokenType == "" {
		token.TokenType = "bearer"
	}

	if !token.ExpiresAt.IsZero() {
		token.ExpiresIn = int64(time.Until(token.ExpiresAt).Seconds())
	}

	m.store.Set(token)

	return token
}

func (m *OAuth2TokenManager) clientContext(ctx context.Context) context.Context {
	if m.config.HTTPClient == nil {
		return ctx
	}

	return context.WithValue(ctx, oauth2.HTTPClient, m.config.HTTPClient)
}
