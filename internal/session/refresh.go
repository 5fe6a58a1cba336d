package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nkiryanov/ytsummarizer/internal/apperrors"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   *float64 `json:"expires_in"`
}

// Refresh renews the access token and reports whether it succeeded.
// It never fails with error: look at RefreshErr if the reason matters.
func (s *Session) Refresh(ctx context.Context) bool {
	return s.RefreshErr(ctx) == nil
}

// RefreshErr renews the access token using the stored refresh token.
// Concurrent calls share a single request to the renewal endpoint; it is not cancelled
// with ctx of the caller started it, every caller stops waiting on its own ctx.
// Tokens set or cleared while the request is in flight are kept as they are.
//
// Errors:
//   - apperrors.ErrNoRefreshToken if nothing to refresh with (no request made)
//   - apperrors.ErrRefreshRejected on non 2xx or malformed response
//   - transport error otherwise
func (s *Session) RefreshErr(ctx context.Context) error {
	shared := context.WithoutCancel(ctx)
	ch := s.refreshGroup.DoChan("refresh", func() (any, error) {
		return nil, s.refresh(shared)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) refresh(ctx context.Context) error {
	epoch := s.currentEpoch()
	refreshToken, ok := s.RefreshToken(ctx)
	if !ok {
		return apperrors.ErrNoRefreshToken
	}

	endpoint, err := s.resolve(s.refreshPath)
	if err != nil {
		return fmt.Errorf("invalid refresh endpoint: %w", err)
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Token refresh failed", "error", err)
		return fmt.Errorf("failed to send refresh request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		s.logger.Warn("Token refresh rejected", "status_code", resp.StatusCode)
		return fmt.Errorf("%w: status code %d", apperrors.ErrRefreshRejected, resp.StatusCode)
	}

	var data refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		s.logger.Warn("Failed to decode refresh response", "error", err)
		return fmt.Errorf("%w: %w", apperrors.ErrRefreshRejected, err)
	}
	if data.AccessToken == "" || data.ExpiresIn == nil {
		s.logger.Warn("Refresh response misses access token or expiration")
		return fmt.Errorf("%w: malformed response", apperrors.ErrRefreshRejected)
	}

	expiresIn := time.Duration(*data.ExpiresIn * float64(time.Second))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		s.logger.Info("Session changed while refreshing, refreshed token dropped")
		return fmt.Errorf("%w: session changed while refreshing", apperrors.ErrRefreshRejected)
	}
	if err := s.store.Set(ctx, KeyAccessToken, data.AccessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := s.setExpiresAt(ctx, expiresIn); err != nil {
		return fmt.Errorf("failed to store expiration: %w", err)
	}

	s.logger.Debug("Access token refreshed", "expires_in", expiresIn)
	return nil
}
