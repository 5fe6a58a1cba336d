package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ytsummarizer/internal/apperrors"
)

// Renewal endpoint answering with fn, counts calls
func refreshServer(t *testing.T, calls *atomic.Int32, fn http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fn(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func respondJSON(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

func TestSession_Refresh(t *testing.T) {
	t.Run("refresh ok", func(t *testing.T) {
		var calls atomic.Int32
		var got map[string]string
		srv := refreshServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			respondJSON(w, http.StatusOK, `{"access_token": "x", "expires_in": 60}`)
		})
		clock := newFakeClock()
		s, _ := newTestSession(t, srv, clock)
		require.NoError(t, s.SetTokens(t.Context(), "a", "b", time.Second))
		clock.Add(10 * time.Second)

		ok := s.Refresh(t.Context())

		require.True(t, ok)
		require.EqualValues(t, 1, calls.Load())
		require.Equal(t, map[string]string{"refresh_token": "b"}, got, "refresh token should be sent as payload")

		access, _ := s.AccessToken(t.Context())
		require.Equal(t, "x", access)
		refresh, _ := s.RefreshToken(t.Context())
		require.Equal(t, "b", refresh, "refresh token is kept as is")
		expiresAt, _ := s.ExpiresAt(t.Context())
		require.Equal(t, clock.Now().UnixMilli()+60_000, expiresAt.UnixMilli())
		require.True(t, s.IsLoggedIn(t.Context()))
	})

	t.Run("no refresh token", func(t *testing.T) {
		var calls atomic.Int32
		srv := refreshServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, `{"access_token": "x", "expires_in": 60}`)
		})
		s, _ := newTestSession(t, srv, newFakeClock())

		err := s.RefreshErr(t.Context())

		require.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
		require.False(t, s.Refresh(t.Context()))
		require.EqualValues(t, 0, calls.Load(), "no request should be made without refresh token")
	})

	failures := []struct {
		name string
		code int
		body string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error": "Invalid or expired refresh token"}`},
		{"server error", http.StatusInternalServerError, `{"error": "boom"}`},
		{"not json", http.StatusOK, `<html>`},
		{"no access token", http.StatusOK, `{"expires_in": 60}`},
		{"no expiration", http.StatusOK, `{"access_token": "x"}`},
	}

	for _, tt := range failures {
		t.Run("rejected "+tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := refreshServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
				respondJSON(w, tt.code, tt.body)
			})
			clock := newFakeClock()
			s, _ := newTestSession(t, srv, clock)
			require.NoError(t, s.SetTokens(t.Context(), "a", "b", time.Hour))

			err := s.RefreshErr(t.Context())

			require.ErrorIs(t, err, apperrors.ErrRefreshRejected)
			require.EqualValues(t, 1, calls.Load())

			access, _ := s.AccessToken(t.Context())
			require.Equal(t, "a", access, "access token must stay untouched")
			expiresAt, _ := s.ExpiresAt(t.Context())
			require.Equal(t, clock.Now().Add(time.Hour).UnixMilli(), expiresAt.UnixMilli())
		})
	}

	t.Run("transport failure", func(t *testing.T) {
		var calls atomic.Int32
		srv := refreshServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {})
		s, _ := newTestSession(t, srv, newFakeClock())
		require.NoError(t, s.SetTokens(t.Context(), "a", "b", time.Hour))
		srv.Close()

		ok := s.Refresh(t.Context())

		require.False(t, ok, "transport errors are reported as failure, not panic or error")
		err := s.RefreshErr(t.Context())
		require.Error(t, err)
		require.NotErrorIs(t, err, apperrors.ErrRefreshRejected)
	})

	t.Run("concurrent refreshes share request", func(t *testing.T) {
		var calls atomic.Int32
		entered := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once

		srv := refreshServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
			once.Do(func() { close(entered) })
			<-release
			respondJSON(w, http.StatusOK, `{"access_token": "x", "expires_in": 60}`)
		})
		s, _ := newTestSession(t, srv, newFakeClock())
		require.NoError(t, s.SetTokens(t.Context(), "a", "b", time.Hour))

		const n = 5
		results := make(chan bool, n)
		go func() { results <- s.Refresh(t.Context()) }()
		<-entered

		for range n - 1 {
			go func() { results <- s.Refresh(t.Context()) }()
		}
		time.Sleep(50 * time.Millisecond) // let the rest join the in-flight refresh
		close(release)

		for range n {
			require.True(t, <-results)
		}
		require.EqualValues(t, 1, calls.Load(), "only one refresh request should be made")
	})

	// Server holding the refresh request until release is closed
	blockingServer := func(t *testing.T) (srv *httptest.Server, entered chan struct{}, release chan struct{}) {
		var calls atomic.Int32
		entered = make(chan struct{})
		release = make(chan struct{})
		var once sync.Once

		srv = refreshServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
			once.Do(func() { close(entered) })
			<-release
			respondJSON(w, http.StatusOK, `{"access_token": "new", "expires_in": 60}`)
		})
		return srv, entered, release
	}

	t.Run("logout while refreshing stays logged out", func(t *testing.T) {
		srv, entered, release := blockingServer(t)
		s, store := newTestSession(t, srv, newFakeClock())
		require.NoError(t, s.SetTokens(t.Context(), "a", "b", time.Hour))

		result := make(chan error, 1)
		go func() { result <- s.RefreshErr(t.Context()) }()
		<-entered

		require.NoError(t, s.ClearTokens(t.Context()))
		close(release)

		require.ErrorIs(t, <-result, apperrors.ErrRefreshRejected)
		require.False(t, s.IsLoggedIn(t.Context()), "logout should not be undone by refresh")
		for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyExpiresAt} {
			_, found, err := store.Get(t.Context(), key)
			require.NoError(t, err)
			require.Falsef(t, found, "%s should stay deleted", key)
		}
	})

	t.Run("login while refreshing keeps new tokens", func(t *testing.T) {
		srv, entered, release := blockingServer(t)
		s, _ := newTestSession(t, srv, newFakeClock())
		require.NoError(t, s.SetTokens(t.Context(), "a", "b", time.Hour))

		result := make(chan error, 1)
		go func() { result <- s.RefreshErr(t.Context()) }()
		<-entered

		require.NoError(t, s.SetTokens(t.Context(), "c", "d", time.Hour))
		close(release)

		require.Error(t, <-result)
		access, _ := s.AccessToken(t.Context())
		require.Equal(t, "c", access, "tokens of the new login should be kept")
	})

	t.Run("cancelled caller does not cancel shared refresh", func(t *testing.T) {
		srv, entered, release := blockingServer(t)
		s, _ := newTestSession(t, srv, newFakeClock())
		require.NoError(t, s.SetTokens(t.Context(), "a", "b", time.Hour))

		ctx, cancel := context.WithCancel(t.Context())
		first := make(chan error, 1)
		go func() { first <- s.RefreshErr(ctx) }()
		<-entered

		second := make(chan error, 1)
		go func() { second <- s.RefreshErr(t.Context()) }()
		time.Sleep(50 * time.Millisecond) // let it join the in-flight refresh

		cancel()
		require.ErrorIs(t, <-first, context.Canceled, "cancelled caller should stop waiting")
		close(release)

		require.NoError(t, <-second, "other caller should get the refresh result")
		access, _ := s.AccessToken(t.Context())
		require.Equal(t, "new", access)
	})
}
