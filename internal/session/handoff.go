package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Query parameters an external login hands the tokens over with
const (
	ParamAccessToken  = "access_token"
	ParamRefreshToken = "refresh_token"
	ParamExpiresIn    = "expires_in"
)

// Init starts the session for a page opened at pageURL.
//
// If the URL carries all of access token, refresh token and expiration (in seconds) they
// are stored and the returned URL has these parameters removed. The refresh timer is armed
// if the session is logged in afterwards. The timer lives as long as ctx does.
func (s *Session) Init(ctx context.Context, pageURL *url.URL) (*url.URL, error) {
	cleaned, handedOff, err := s.consumeHandoff(ctx, pageURL)
	if err != nil {
		return pageURL, err
	}
	if handedOff {
		s.logger.Info("Tokens received from login hand-off")
	}

	if s.IsLoggedIn(ctx) {
		s.StartRefreshTimer(ctx)
	}

	return cleaned, nil
}

func (s *Session) consumeHandoff(ctx context.Context, pageURL *url.URL) (*url.URL, bool, error) {
	query := pageURL.Query()
	access := query.Get(ParamAccessToken)
	refresh := query.Get(ParamRefreshToken)
	expires := query.Get(ParamExpiresIn)

	if access == "" || refresh == "" || expires == "" {
		return pageURL, false, nil
	}

	seconds, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return pageURL, false, fmt.Errorf("invalid %s parameter %q: %w", ParamExpiresIn, expires, err)
	}

	if err := s.SetTokens(ctx, access, refresh, time.Duration(seconds)*time.Second); err != nil {
		return pageURL, false, fmt.Errorf("failed to store handed off tokens: %w", err)
	}

	query.Del(ParamAccessToken)
	query.Del(ParamRefreshToken)
	query.Del(ParamExpiresIn)

	cleaned := *pageURL
	cleaned.RawQuery = query.Encode()

	return &cleaned, true, nil
}

// HandoffHandler serves the page external login redirects to.
// Request with hand-off parameters is redirected to the same URL without them
// (so tokens do not stay in browser history); done is called once tokens are stored.
// ctx bounds the refresh timer lifetime.
func (s *Session) HandoffHandler(ctx context.Context, done func(err error)) http.Handler {
	if done == nil {
		done = func(error) {}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cleaned, err := s.Init(ctx, r.URL)
		if err != nil {
			http.Error(w, "Login hand-off failed", http.StatusBadRequest)
			done(err)
			return
		}

		if cleaned != r.URL {
			http.Redirect(w, r, cleaned.RequestURI(), http.StatusSeeOther)
			done(nil)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if s.IsLoggedIn(ctx) {
			_, _ = w.Write([]byte("Logged in. You may close this page.\n"))
			return
		}
		_, _ = w.Write([]byte("Not logged in.\n"))
	})
}
