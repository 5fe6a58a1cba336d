// Package userctx carries the authenticated user down to the handlers
// and back up to middlewares wrapping the authentication (request logger).
package userctx

import (
	"context"

	"github.com/nkiryanov/ytsummarizer/internal/models"
)

type ctxKey int

const (
	userKey ctxKey = iota
	reportKey
)

// Report is filled with the user once the request is authenticated.
// Read it after the request is served.
type Report struct {
	user models.User
	ok   bool
}

func (r *Report) User() (models.User, bool) {
	return r.user, r.ok
}

// WithReport returns context the authenticated user will be reported to
func WithReport(ctx context.Context) (context.Context, *Report) {
	r := &Report{}
	return context.WithValue(ctx, reportKey, r), r
}

// Create a new context with the user
func New(ctx context.Context, u models.User) context.Context {
	if r, ok := ctx.Value(reportKey).(*Report); ok {
		r.user, r.ok = u, true
	}
	return context.WithValue(ctx, userKey, u)
}

// Extract the user from the context
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}
