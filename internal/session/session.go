// Package session keeps the client side authentication session: an access and refresh
// token pair with the access token expiration, persisted in a key-value Store.
//
// Session renews the access token proactively (timer armed before expiration) and
// reactively (when the API answers 401), and wraps API calls with bearer auth.
package session

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nkiryanov/ytsummarizer/internal/logger"
)

// Keys the session persists in the store
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyExpiresAt    = "expires_at"
)

const (
	DefaultRefreshPath   = "/api/auth/refresh"
	DefaultLoginPath     = "/login"
	DefaultRefreshLeeway = time.Minute
)

// Store is a durable key-value storage the session lives in.
// Deleting a missing key must not fail.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// LoginRedirect is called when the session can't be recovered and user has to log in again
type LoginRedirect func(ctx context.Context, loginURL string)

type Option func(*Session)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.client = c }
}

// Base URL relative request URLs, refresh and login paths are resolved against
func WithBaseURL(u *url.URL) Option {
	return func(s *Session) { s.baseURL = u }
}

func WithRefreshPath(path string) Option {
	return func(s *Session) { s.refreshPath = path }
}

func WithLoginPath(path string) Option {
	return func(s *Session) { s.loginPath = path }
}

// Time source, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithLoginRedirect(fn LoginRedirect) Option {
	return func(s *Session) { s.redirect = fn }
}

// How long before expiration the refresh timer fires
func WithRefreshLeeway(d time.Duration) Option {
	return func(s *Session) { s.leeway = d }
}

type Session struct {
	store Store

	client      *http.Client
	baseURL     *url.URL
	refreshPath string
	loginPath   string
	leeway      time.Duration
	now         func() time.Time
	logger      logger.Logger
	redirect    LoginRedirect

	// Serializes writes of the token keys so they change together
	mu sync.Mutex
	// Bumped by SetTokens and ClearTokens, so refresh started before does not write over them
	epoch uint64

	// Timer and reactive refreshes share one in-flight request
	refreshGroup singleflight.Group

	timerMu  sync.Mutex
	timer    *time.Timer
	timerGen uint64
}

func New(store Store, opts ...Option) *Session {
	s := &Session{
		store:       store,
		client:      http.DefaultClient,
		refreshPath: DefaultRefreshPath,
		loginPath:   DefaultLoginPath,
		leeway:      DefaultRefreshLeeway,
		now:         time.Now,
		logger:      logger.NewNoOpLogger(),
		redirect:    func(context.Context, string) {},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetTokens stores the token pair and computes expiration from now.
// Any previous session is overwritten.
func (s *Session) SetTokens(ctx context.Context, access string, refresh string, expiresIn time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	if err := s.store.Set(ctx, KeyAccessToken, access); err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyRefreshToken, refresh); err != nil {
		return err
	}
	return s.setExpiresAt(ctx, expiresIn)
}

func (s *Session) AccessToken(ctx context.Context) (string, bool) {
	return s.get(ctx, KeyAccessToken)
}

func (s *Session) RefreshToken(ctx context.Context) (string, bool) {
	return s.get(ctx, KeyRefreshToken)
}

// ExpiresAt returns access token expiration if it is known
func (s *Session) ExpiresAt(ctx context.Context) (time.Time, bool) {
	value, ok := s.get(ctx, KeyExpiresAt)
	if !ok {
		return time.Time{}, false
	}

	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		s.logger.Warn("Stored expiration is not a number", "value", value)
		return time.Time{}, false
	}

	return time.UnixMilli(ms), true
}

// ClearTokens removes the session and cancels the refresh timer. Idempotent.
func (s *Session) ClearTokens(ctx context.Context) error {
	s.StopRefreshTimer()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyExpiresAt} {
		if err := s.store.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

// IsTokenExpired is true if expiration is unknown or already passed
func (s *Session) IsTokenExpired(ctx context.Context) bool {
	expiresAt, ok := s.ExpiresAt(ctx)
	if !ok {
		return true
	}

	return s.now().UnixMilli() > expiresAt.UnixMilli()
}

func (s *Session) IsLoggedIn(ctx context.Context) bool {
	_, ok := s.AccessToken(ctx)
	return ok && !s.IsTokenExpired(ctx)
}

// AuthHeaders returns headers for authenticated API call.
// The stored token is used as is, even if it absent or expired.
func (s *Session) AuthHeaders(ctx context.Context) http.Header {
	token, _ := s.AccessToken(ctx)

	h := make(http.Header, 2)
	h.Set("Authorization", "Bearer "+token)
	h.Set("Content-Type", "application/json")
	return h
}

// setExpiresAt has to be called with s.mu held
func (s *Session) setExpiresAt(ctx context.Context, expiresIn time.Duration) error {
	expiresAt := s.now().UnixMilli() + expiresIn.Milliseconds()
	return s.store.Set(ctx, KeyExpiresAt, strconv.FormatInt(expiresAt, 10))
}

func (s *Session) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.epoch
}

// get treats empty values and store errors as absent value
func (s *Session) get(ctx context.Context, key string) (string, bool) {
	value, found, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Error("Failed to read session store", "key", key, "error", err)
		return "", false
	}

	return value, found && value != ""
}

// resolve joins relative reference with base URL if it set
func (s *Session) resolve(ref string) (string, error) {
	if s.baseURL == nil {
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}

	return s.baseURL.ResolveReference(u).String(), nil
}
