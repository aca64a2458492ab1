// Package admin guards registry, catalog and scan administration routes.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/httputil"
	"compliancehub/pkg/requestcontext"
)

// HeaderName carries the shared administration token.
const HeaderName = "X-Admin-Token"

// RequireAdminToken rejects requests whose X-Admin-Token does not match
// expected. An empty expected token locks every admin route.
func RequireAdminToken(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !matches(r.Header.Get(HeaderName), expected) {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"method", r.Method,
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func matches(got, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
