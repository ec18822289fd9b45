package middlewares

import (
	"net/http"
	"time"

	"github.com/clearline/authd/internal/metrics"
	"github.com/clearline/authd/internal/observability/logger"
)

// statusRecorder captures the status code and bytes written.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.status = http.StatusOK
		s.wroteHeader = true
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// WithLogging logs each request and injects a request-scoped logger into the
// context so handlers and services log with request_id/method/path attached.
func WithLogging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := w.Header().Get("X-Request-ID")
			if requestID == "" {
				requestID = GetRequestID(r.Context())
			}

			reqLog := logger.L().With(
				logger.RequestID(requestID),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)

			rec := &statusRecorder{ResponseWriter: w}
			ctx := logger.ToContext(r.Context(), reqLog)
			next.ServeHTTP(rec, r.WithContext(ctx))

			elapsed := time.Since(start)
			metrics.ObserveRequest(r.Method, r.URL.Path, rec.status, elapsed)

			reqLog.Info("request completed",
				logger.Status(rec.status),
				logger.Bytes(rec.bytes),
				logger.DurationMs(elapsed.Milliseconds()),
			)
		})
	}
}
