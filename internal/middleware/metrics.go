package middleware

import (
	"net/http"
	"time"

	"github.com/reelshelf/backend/internal/observability"
)

// unmatchedRoute labels requests no route pattern accepted, keeping label cardinality bounded.
const unmatchedRoute = "unmatched"

// Metrics records request counts and latencies labelled by the matched route
// pattern. It must wrap the ServeMux directly so the pattern set during routing
// is visible once the request returns.
func Metrics(m *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			m.RecordRequest(r.Method, route, wrapped.Status(), time.Since(start))
		})
	}
}
