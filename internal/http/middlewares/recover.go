package middlewares

import (
	"net/http"

	httperrors "github.com/clearline/authd/internal/http/errors"
	"github.com/clearline/authd/internal/observability/logger"
)

// WithRecover turns panics into opaque 500s instead of dropped connections.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("panic recovered",
						logger.String("panic", toString(rec)),
					)
					httperrors.WriteError(w, httperrors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "unknown panic"
}
