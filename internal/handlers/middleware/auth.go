package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nkiryanov/ytsummarizer/internal/handlers/render"
	"github.com/nkiryanov/ytsummarizer/internal/handlers/userctx"
	"github.com/nkiryanov/ytsummarizer/internal/models"
)

const bearerScheme = "Bearer "

type authenticator interface {
	Authenticate(ctx context.Context, access string) (models.User, error)
}

// Return access token from 'Authorization: Bearer <token>' header
func accessFromRequest(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerScheme) || !strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		return "", false
	}

	access := strings.TrimSpace(header[len(bearerScheme):])
	return access, access != ""
}

// AuthMiddleware lets only requests with valid access token through
// User the token issued for is set to request context
func AuthMiddleware(a authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := accessFromRequest(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := a.Authenticate(r.Context(), access)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
