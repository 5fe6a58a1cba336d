package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nkiryanov/ytsummarizer/internal/apperrors"
)

// RequestOptions describe the API call. Body is kept as bytes so request may be retried.
type RequestOptions struct {
	Method string
	Header http.Header
	Body   []byte
}

// ResponseError is returned for API responses with status code 400 and above (except
// 401 the session deals with itself). JSON body of such response is decoded into out as well.
type ResponseError struct {
	StatusCode int
	Body       []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("api responded with status code %d: %s", e.StatusCode, bytes.TrimSpace(e.Body))
}

// APIRequest makes authenticated API call and decodes JSON response into out (if not nil).
//
// Expired token is refreshed before the call. On 401 the token is refreshed once and the
// call is retried once. If refresh fails, or retried call is still unauthorized, the login
// redirect is called and apperrors.ErrLoginRequired returned.
func (s *Session) APIRequest(ctx context.Context, url string, opts RequestOptions, out any) error {
	if s.IsTokenExpired(ctx) {
		if err := s.RefreshErr(ctx); err != nil {
			return s.loginRequired(ctx, err)
		}
	}

	resp, err := s.send(ctx, url, opts)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)

		if err := s.RefreshErr(ctx); err != nil {
			return s.loginRequired(ctx, err)
		}

		resp, err = s.send(ctx, url, opts)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			discard(resp)
			return s.loginRequired(ctx, errors.New("unauthorized after token refresh"))
		}
	}
	defer resp.Body.Close() // nolint:errcheck

	return s.decode(resp, out)
}

func (s *Session) send(ctx context.Context, target string, opts RequestOptions) (*http.Response, error) {
	endpoint, err := s.resolve(target)
	if err != nil {
		return nil, fmt.Errorf("invalid request url: %w", err)
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Auth headers override the same caller provided ones
	header := opts.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	for key, values := range s.AuthHeaders(ctx) {
		header[key] = values
	}
	req.Header = header

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("API request failed", "method", method, "url", endpoint, "error", err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

func (s *Session) decode(resp *http.Response, out any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)

		// Error answer is still given to the caller if it is JSON
		if out != nil && json.Valid(body) {
			_ = json.Unmarshal(body, out)
		}
		return &ResponseError{StatusCode: resp.StatusCode, Body: body}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	err := json.NewDecoder(resp.Body).Decode(out)
	switch {
	case err == nil, errors.Is(err, io.EOF): // empty body is ok
		return nil
	default:
		s.logger.Error("Failed to decode API response", "status_code", resp.StatusCode, "error", err)
		return fmt.Errorf("failed to decode response: %w", err)
	}
}

func (s *Session) loginRequired(ctx context.Context, cause error) error {
	loginURL, err := s.resolve(s.loginPath)
	if err != nil {
		loginURL = s.loginPath
	}

	s.logger.Warn("Session can't be renewed, login required", "cause", cause)
	s.redirect(ctx, loginURL)

	return fmt.Errorf("%w: %w", apperrors.ErrLoginRequired, cause)
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
