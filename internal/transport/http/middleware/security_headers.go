package middleware

import (
	"net/http"
	"strings"
)

// cspDirectives admit Stripe's checkout redirect and script host; the rest
// is same-origin only.
var cspDirectives = []string{
	"default-src 'self'",
	"base-uri 'self'",
	"form-action 'self' https://checkout.stripe.com",
	"frame-ancestors 'none'",
	"object-src 'none'",
	"img-src 'self' data:",
	"style-src 'self' 'unsafe-inline'",
	"script-src 'self' https://js.stripe.com",
	"frame-src https://js.stripe.com",
}

var baseHeaders = map[string]string{
	"X-Content-Type-Options":     "nosniff",
	"X-Frame-Options":            "DENY",
	"Referrer-Policy":            "no-referrer",
	"Permissions-Policy":         "geolocation=(), microphone=(), camera=(), payment=(self)",
	"Content-Security-Policy":    strings.Join(cspDirectives, "; "),
	"Cross-Origin-Opener-Policy": "same-origin",
}

// SecureHeaders sets browser hardening headers. API responses carry tokens
// and pay data, so they are never cached.
func SecureHeaders(isProd bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range baseHeaders {
				h.Set(name, value)
			}
			if strings.HasPrefix(r.URL.Path, "/api/") {
				h.Set("Cache-Control", "no-store")
			}
			if isProd {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			}
			next.ServeHTTP(w, r)
		})
	}
}
