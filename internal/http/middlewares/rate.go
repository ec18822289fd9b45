package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	httperrors "github.com/clearline/authd/internal/http/errors"
	"github.com/clearline/authd/internal/metrics"
	"github.com/clearline/authd/internal/observability/logger"
	"github.com/clearline/authd/internal/rate"
)

// RateLimitConfig configures the per-origin limiter middleware.
type RateLimitConfig struct {
	Limiter rate.Limiter

	// TrustProxyHeaders enables X-Forwarded-For as the client key. Only turn
	// this on behind a proxy that strips the header from clients; otherwise
	// the limit is trivially bypassed.
	TrustProxyHeaders bool
}

// clientIP keys the limiter by network origin.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
			parts := strings.Split(xf, ",")
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithRateLimit rejects requests over the window's budget with 429 before
// they reach the handler. A nil limiter disables the middleware.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r, cfg.TrustProxyHeaders)

			res, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				// A broken limiter backend must not take auth down with it.
				logger.From(r.Context()).Warn("rate limiter unavailable, allowing request",
					logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				metrics.RateLimited(r.URL.Path)
				retry := int(res.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				logger.From(r.Context()).Info("rate limit exceeded",
					logger.ClientIP(key),
					logger.Int("hits", int(res.CurrentHits)),
				)
				httperrors.WriteError(w, httperrors.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
