package session

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/nkiryanov/ytsummarizer/internal/apperrors"
)

// Ensure tokenSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*tokenSource)(nil)

type tokenSource struct {
	ctx     context.Context
	session *Session
}

// TokenSource adapts the session to oauth2.TokenSource, so it may be used with
// oauth2.NewClient and libraries accepting token sources
func (s *Session) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, session: s}
}

// Token returns the stored access token, refreshing it first if expired
func (t *tokenSource) Token() (*oauth2.Token, error) {
	s := t.session

	if s.IsTokenExpired(t.ctx) {
		if err := s.RefreshErr(t.ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrLoginRequired, err)
		}
	}

	access, ok := s.AccessToken(t.ctx)
	if !ok {
		return nil, apperrors.ErrLoginRequired
	}
	expiresAt, _ := s.ExpiresAt(t.ctx)

	return &oauth2.Token{
		AccessToken: access,
		TokenType:   "Bearer",
		Expiry:      expiresAt,
	}, nil
}
