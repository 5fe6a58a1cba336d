package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/nkiryanov/ytsummarizer/internal/handlers/userctx"
)

type logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Query parameters never written to the log: login hand-off passes tokens with them
var secretParams = []string{"access_token", "refresh_token"}

type logWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *logWriter) Write(p []byte) (int, error) {
	size, err := w.ResponseWriter.Write(p)
	w.size += size
	return size, err
}

func (w *logWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.status = statusCode
}

// Request URI with token parameters masked
func loggedURI(u *url.URL) string {
	query := u.Query()

	masked := false
	for _, p := range secretParams {
		if query.Has(p) {
			query.Set(p, "***")
			masked = true
		}
	}
	if !masked {
		return u.RequestURI()
	}

	c := *u
	c.RawQuery = query.Encode()
	return c.RequestURI()
}

// LoggerMiddleware logs every served request: server errors at error level,
// client errors at warn, the rest at info. User is logged if request was authenticated.
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx, report := userctx.WithReport(r.Context())
			lw := &logWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(lw, r.WithContext(ctx))

			args := []any{
				"method", r.Method,
				"uri", loggedURI(r.URL),
				"duration", time.Since(start),
				"status", lw.status,
				"size", lw.size,
			}
			if user, ok := report.User(); ok {
				args = append(args, "user", user)
			}

			switch {
			case lw.status >= http.StatusInternalServerError:
				l.Error("HTTP request failed", args...)
			case lw.status >= http.StatusBadRequest:
				l.Warn("HTTP request rejected", args...)
			default:
				l.Info("HTTP request served", args...)
			}
		})
	}
}
