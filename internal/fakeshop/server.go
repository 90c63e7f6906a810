// Package fakeshop is an in-memory stand-in for the shop REST API, used by
// client and CLI tests.
package fakeshop

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fivetwenty-io/dcapi/internal/constants"
	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

// Token lifetime reported by the token endpoint, in seconds.
const TokenLifetime = 2592000

// Record is a stored entity.
type Record = map[string]any

// RecordedRequest is a request the server received.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         url.Values
	Body          []byte
	Authorization string
}

// Option configures a Server.
type Option func(*Server)

// WithCredentials sets the application credentials accepted by the token endpoint.
func WithCredentials(clientID, clientSecret string) Option {
	return func(s *Server) {
		s.clientID = clientID
		s.clientSecret = clientSecret
	}
}

// WithAuthCode registers a one-time authorization code.
func WithAuthCode(code string) Option {
	return func(s *Server) {
		s.authCodes[code] = true
	}
}

// WithAccessToken sets the currently valid access token.
func WithAccessToken(token string) Option {
	return func(s *Server) {
		s.accessToken = token
	}
}

// WithRefreshToken sets the currently valid refresh token.
func WithRefreshToken(token string) Option {
	return func(s *Server) {
		s.refreshToken = token
	}
}

// WithQuota enables the call bucket with limit calls.
func WithQuota(limit int) Option {
	return func(s *Server) {
		s.quotaLimit = limit
		s.callsLeft = limit
	}
}

// Server is an in-memory shop. It is safe for concurrent use.
type Server struct {
	router   chi.Router
	registry *shop.Registry

	mu           sync.Mutex
	clientID     string
	clientSecret string
	authCodes    map[string]bool
	accessToken  string
	refreshToken string
	quotaLimit   int
	callsLeft    int
	failStatus   int
	failCount    int
	collections  map[string][]Record
	singles      map[string]Record
	nextID       map[string]int
	requests     []RecordedRequest
}

// New creates a server with all routes registered.
func New(opts ...Option) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		registry:    shop.DefaultRegistry(),
		authCodes:   make(map[string]bool),
		collections: make(map[string][]Record),
		singles:     make(map[string]Record),
		nextID:      make(map[string]int),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.routes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Route(constants.APIBasePath, func(r chi.Router) {
		r.Post("/oauth/token", s.handleToken)

		r.Group(func(r chi.Router) {
			r.Use(s.quota)
			r.Use(s.authenticate)

			r.Get("/{resource}", s.handleGet)
			r.Get("/{resource}/{id}", s.handleGetOne)
			r.Post("/{resource}", s.handleCreate)
			r.Post("/{resource}/*", s.handleCreate)
			r.Put("/{resource}", s.handleUpdate)
			r.Put("/{resource}/{id}", s.handleUpdate)
			r.Delete("/{resource}", s.handleDelete)
			r.Delete("/{resource}/{id}", s.handleDelete)
		})
	})
}

// Seed stores records in a collection, assigning identifiers where missing.
func (s *Server) Seed(resource string, records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		s.insertLocked(resource, copyRecord(record))
	}
}

// SetSingle stores the entity of a single-only resource.
func (s *Server) SetSingle(resource string, record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.singles[resource] = copyRecord(record)
}

// Records returns a copy of a collection.
func (s *Server) Records(resource string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]Record, 0, len(s.collections[resource]))
	for _, record := range s.collections[resource] {
		records = append(records, copyRecord(record))
	}

	return records
}

// Single returns a copy of a single-only resource's entity.
func (s *Server) Single(resource string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyRecord(s.singles[resource])
}

// Requests returns the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]RecordedRequest(nil), s.requests...)
}

// AccessToken returns the currently valid access token.
func (s *Server) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.accessToken
}

// RefreshToken returns the currently valid refresh token.
func (s *Server) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.refreshToken
}

// ExpireAccessToken invalidates the current access token so the next API
// call is answered with 401.
func (s *Server) ExpireAccessToken() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = ""
}

// FailNext answers the next count requests with status.
func (s *Server) FailNext(status, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failStatus = status
	s.failCount = count
}

// Refill resets the call bucket.
func (s *Server) Refill() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callsLeft = s.quotaLimit
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Body:          body,
			Authorization: r.Header.Get("Authorization"),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := 0

		if s.failCount > 0 {
			s.failCount--
			status = s.failStatus
		}
		s.mu.Unlock()

		if status != 0 {
			respondError(w, status, "injected failure")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) quota(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		limit := s.quotaLimit
		exceeded := limit > 0 && s.callsLeft == 0

		if limit > 0 && !exceeded {
			s.callsLeft--
		}

		left := s.callsLeft
		s.mu.Unlock()

		if limit == 0 {
			next.ServeHTTP(w, r)

			return
		}

		w.Header().Set(constants.HeaderAPICalls, strconv.Itoa(left))
		w.Header().Set(constants.HeaderAPILimit, strconv.Itoa(limit))
		w.Header().Set(constants.HeaderAPIBandwidth, "0.01")

		if exceeded {
			respondError(w, http.StatusTooManyRequests, "Call limit exceeded")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		valid := s.accessToken != "" && r.Header.Get("Authorization") == "Bearer "+s.accessToken
		s.mu.Unlock()

		if !valid {
			respondError(w, http.StatusUnauthorized, "Invalid access token")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	clientID, clientSecret, ok := r.BasicAuth()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok || clientID != s.clientID || clientSecret != s.clientSecret {
		respondOAuthError(w, http.StatusUnauthorized, "invalid_client", "Client authentication failed")

		return
	}

	err := r.ParseForm()
	if err != nil {
		respondOAuthError(w, http.StatusBadRequest, "invalid_request", err.Error())

		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		code := r.PostForm.Get("code")
		if !s.authCodes[code] {
			respondOAuthError(w, http.StatusBadRequest, "invalid_grant", "Authorization code doesn't exist or is invalid for the client")

			return
		}

		delete(s.authCodes, code)

	case "refresh_token":
		if s.refreshToken == "" || r.PostForm.Get("refresh_token") != s.refreshToken {
			respondOAuthError(w, http.StatusBadRequest, "invalid_grant", "Invalid refresh token")

			return
		}

	default:
		respondOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "Grant type not supported")

		return
	}

	s.accessToken = randomToken()
	s.refreshToken = randomToken()

	respondJSON(w, http.StatusOK, map[string]any{
		"access_token":  s.accessToken,
		"expires_in":    TokenLifetime,
		"token_type":    "bearer",
		"scope":         "",
		"refresh_token": s.refreshToken,
	})
}

func randomToken() string {
	buf := make([]byte, 20)
	_, _ = rand.Read(buf)

	return hex.EncodeToString(buf)
}

func copyRecord(record Record) Record {
	if record == nil {
		return nil
	}

	copied := make(Record, len(record))
	for key, value := range record {
		copied[key] = value
	}

	return copied
}

// IDField returns the identifier field of a collection, e.g. "product_id"
// for "products".
func IDField(resource string) string {
	name := strings.ReplaceAll(resource, "-", "_")

	switch {
	case strings.HasSuffix(name, "ies"):
		name = strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "s"):
		name = strings.TrimSuffix(name, "s")
	}

	return name + "_id"
}
