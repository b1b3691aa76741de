package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func jsonPost(path, body, remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remote
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPaymentRateLimitLookupByIP(t *testing.T) {
	limited := PaymentRateLimit(4, time.Minute)(noContent())

	rec := serve(limited, jsonPost("/api/v1/payment/success", `{"email":"a@example.com"}`, "203.0.113.10:4444"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected first lookup to pass, got %d", rec.Code)
	}
	rec = serve(limited, jsonPost("/api/v1/payment/success", `{"email":"b@example.com"}`, "203.0.113.10:5555"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second lookup from the same ip to be throttled, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected retry metadata headers")
	}
}

func TestPaymentRateLimitLookupByEmail(t *testing.T) {
	limited := PaymentRateLimit(4, time.Minute)(noContent())

	rec := serve(limited, jsonPost("/api/v1/admin/login", `{"email":"Ops@example.com"}`, "192.0.2.1:1000"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected first login to pass, got %d", rec.Code)
	}
	rec = serve(limited, jsonPost("/api/v1/admin/login", `{"email":"ops@example.com"}`, "192.0.2.2:1000"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected the same email from another ip to be throttled, got %d", rec.Code)
	}
}

func TestPaymentRateLimitWindowReset(t *testing.T) {
	limited := PaymentRateLimit(4, 40*time.Millisecond)(noContent())

	serve(limited, jsonPost("/api/v1/checkout/email", `{"email":"a@example.com"}`, "192.0.2.20:1111"))
	if rec := serve(limited, jsonPost("/api/v1/checkout/email", `{"email":"a@example.com"}`, "192.0.2.20:1111")); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec.Code)
	}

	time.Sleep(50 * time.Millisecond)

	if rec := serve(limited, jsonPost("/api/v1/checkout/email", `{"email":"a@example.com"}`, "192.0.2.20:1111")); rec.Code != http.StatusNoContent {
		t.Fatalf("expected request after window reset to pass, got %d", rec.Code)
	}
}

func TestPaymentRateLimitGeneration(t *testing.T) {
	limited := PaymentRateLimit(4, time.Minute)(noContent())

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/preview", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		if rec := serve(limited, req); rec.Code != http.StatusNoContent {
			t.Fatalf("expected preview request %d to bypass limits, got %d", i+1, rec.Code)
		}
	}

	const path = "/api/v1/payroll/6f1c2f8e-8a51-4d7e-9a4c-2d3b1f0e9a77"
	first := httptest.NewRequest(http.MethodPost, path, nil)
	first.RemoteAddr = "198.51.100.41:9999"
	if rec := serve(limited, first); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first generation to pass, got %d", rec.Code)
	}
	retry := httptest.NewRequest(http.MethodPost, path, nil)
	retry.RemoteAddr = "198.51.100.42:9999"
	if rec := serve(limited, retry); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected the same token to be throttled across ips, got %d", rec.Code)
	}
}

func TestPaymentRateLimitIgnoresReads(t *testing.T) {
	limited := PaymentRateLimit(1, time.Minute)(noContent())
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/cancel", nil)
		if rec := serve(limited, req); rec.Code != http.StatusNoContent {
			t.Fatalf("expected read %d to pass, got %d", i+1, rec.Code)
		}
	}
}

func TestPaymentRateLimitKeepsFormReadable(t *testing.T) {
	limited := PaymentRateLimit(4, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("email") == "" {
			t.Fatalf("form must remain readable, err=%v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/success", strings.NewReader("email=buyer%40example.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "198.51.100.50:1000"
	if rec := serve(limited, req); rec.Code != http.StatusNoContent {
		t.Fatalf("expected form request to pass, got %d", rec.Code)
	}
}

func TestGenerationToken(t *testing.T) {
	tests := map[string]string{
		"/payroll/abc":     "abc",
		"/payroll/preview": "",
		"/payroll/":        "",
		"/payroll/a/b":     "",
		"/checkout":        "",
	}
	for path, want := range tests {
		if got := generationToken(path); got != want {
			t.Fatalf("generationToken(%q) = %q, want %q", path, got, want)
		}
	}
}
