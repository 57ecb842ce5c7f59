// Package middleware provides the HTTP middleware stack: request identity,
// panic recovery, request logging, CORS, bearer auth, and rate limiting for
// the write endpoints.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain folds several middleware into one. Order is outermost first:
// Chain(a, b)(h) serves a(b(h)), so a sees the request before b does.
func Chain(mws ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		wrapped := next
		for i := len(mws) - 1; i >= 0; i-- {
			wrapped = mws[i](wrapped)
		}
		return wrapped
	}
}
