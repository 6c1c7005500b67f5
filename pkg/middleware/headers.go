// pkg/middleware/headers.go
package middleware

import (
	"net/http"
)

// SecurityHeaders appends the fixed per-deployment header set to every
// response, rewrites and pass-throughs alike. HSTS only in prod, where TLS
// terminates in front of the edge.
func SecurityHeaders(env string) func(http.Handler) http.Handler {
	hsts := env == "prod"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if hsts {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			}
			next.ServeHTTP(w, r)
		})
	}
}
