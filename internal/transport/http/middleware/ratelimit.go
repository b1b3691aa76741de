package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"paystub/internal/transport/http/api"
)

const maxKeyBodyBytes = 16 * 1024

// keyFunc extracts the identity a counter is kept for. An empty key skips
// the counter.
type keyFunc func(r *http.Request) string

// counter is a fixed-window request counter per key.
type counter struct {
	name   string
	limit  int
	window time.Duration
	key    keyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	swept   time.Time
}

type bucket struct {
	hits  int
	reset time.Time
}

func newCounter(name string, limit int, window time.Duration, key keyFunc) *counter {
	return &counter{
		name:    name,
		limit:   max(limit, 1),
		window:  window,
		key:     key,
		buckets: map[string]*bucket{},
	}
}

// hit counts one request and reports whether it is over the limit along with
// the values for the rate limit headers.
func (c *counter) hit(key string, now time.Time) (over bool, remaining int, resetIn time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep(now)
	b, ok := c.buckets[key]
	if !ok || !now.Before(b.reset) {
		b = &bucket{reset: now.Add(c.window)}
		c.buckets[key] = b
	}
	b.hits++
	return b.hits > c.limit, max(c.limit-b.hits, 0), b.reset.Sub(now)
}

// sweep drops expired buckets at most once per window so the map does not
// grow with every address that ever called.
func (c *counter) sweep(now time.Time) {
	if now.Sub(c.swept) < c.window {
		return
	}
	for k, b := range c.buckets {
		if !now.Before(b.reset) {
			delete(c.buckets, k)
		}
	}
	c.swept = now
}

// route groups the counters guarding one class of endpoint.
type route struct {
	match    func(method, path string) bool
	counters []*counter
}

// PaymentRateLimit throttles the endpoints that can be used to guess tokens
// or emails, or to open checkout sessions. perMinute is the base budget;
// lookups get a quarter of it and mutations half. Other requests pass
// untouched.
func PaymentRateLimit(perMinute int, window time.Duration) func(http.Handler) http.Handler {
	lookup := max(perMinute/4, 1)
	mutation := max(perMinute/2, 1)
	routes := []route{
		{
			match: postTo("/admin/login", "/payment/success", "/checkout/email"),
			counters: []*counter{
				newCounter("lookup_ip", lookup, window, ipKey),
				newCounter("lookup_email", lookup, window, emailKey),
			},
		},
		{
			match: postTo("/checkout"),
			counters: []*counter{
				newCounter("checkout_ip", mutation, window, ipKey),
			},
		},
		{
			match: isGeneration,
			counters: []*counter{
				newCounter("generate_ip", mutation, window, ipKey),
				newCounter("generate_token", lookup, window, tokenKey),
			},
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := apiPath(r.URL.Path)
			for _, rt := range routes {
				if !rt.match(r.Method, path) {
					continue
				}
				for _, c := range rt.counters {
					if !allow(w, r, c) {
						return
					}
				}
				break
			}
			next.ServeHTTP(w, r)
		})
	}
}

func allow(w http.ResponseWriter, r *http.Request, c *counter) bool {
	key := c.key(r)
	if key == "" {
		return true
	}
	over, remaining, resetIn := c.hit(key, time.Now())
	seconds := int((resetIn + time.Second - 1) / time.Second)

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(c.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(seconds))
	if !over {
		return true
	}
	h.Set("Retry-After", strconv.Itoa(max(seconds, 1)))
	slog.Warn("rate limit exceeded",
		"counter", c.name,
		"path", r.URL.Path,
		"limit", c.limit,
		"requestId", GetRequestID(r.Context()),
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func postTo(paths ...string) func(method, path string) bool {
	return func(method, path string) bool {
		if method != http.MethodPost {
			return false
		}
		for _, p := range paths {
			if path == p {
				return true
			}
		}
		return false
	}
}

func isGeneration(method, path string) bool {
	return method == http.MethodPost && generationToken(path) != ""
}

// generationToken returns {token} of /payroll/{token}, or "" for any other
// path including the preview.
func generationToken(path string) string {
	token, ok := strings.CutPrefix(path, "/payroll/")
	if !ok || token == "" || token == "preview" || strings.Contains(token, "/") {
		return ""
	}
	return token
}

func ipKey(r *http.Request) string {
	return "ip:" + clientIP(r)
}

func tokenKey(r *http.Request) string {
	if token := generationToken(apiPath(r.URL.Path)); token != "" {
		return "token:" + token
	}
	return ""
}

func emailKey(r *http.Request) string {
	if email := bodyField(r, "email"); email != "" {
		return "email:" + strings.ToLower(email)
	}
	return ""
}

// bodyField reads one field from a JSON or form body and leaves the body
// readable for the handler.
func bodyField(r *http.Request, field string) string {
	if r.Body == nil {
		return ""
	}
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return strings.TrimSpace(r.PostForm.Get(field))
	case strings.HasPrefix(contentType, "application/json"):
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBodyBytes))
		if err != nil {
			return ""
		}
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
		var payload map[string]any
		if json.Unmarshal(raw, &payload) != nil {
			return ""
		}
		value, _ := payload[field].(string)
		return strings.TrimSpace(value)
	}
	return ""
}

func apiPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/v1")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}
