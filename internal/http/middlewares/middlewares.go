// Package middlewares holds the HTTP middleware chain: request id, logging,
// panic recovery, CORS and rate limiting.
package middlewares

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares in declaration order: the first listed is the
// outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
