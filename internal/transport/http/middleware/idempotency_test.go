package middleware

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("203.0.113.1", "/api/v1/checkout")
	if a != Fingerprint("203.0.113.1", "/api/v1/checkout") {
		t.Fatal("fingerprint must be stable")
	}
	if a == Fingerprint("203.0.113.2", "/api/v1/checkout") {
		t.Fatal("different clients must differ")
	}
	if Fingerprint("ab", "c") == Fingerprint("a", "bc") {
		t.Fatal("part boundaries must be significant")
	}
}

func TestNilIdempotencyStoreIsDisabled(t *testing.T) {
	var s *IdempotencyStore
	body, err := s.Lookup(context.Background(), "/checkout", "k1", "h")
	if err != nil || body != nil {
		t.Fatalf("nil store should be a no-op, got %v %v", body, err)
	}
	if err := s.Remember(context.Background(), "/checkout", "k1", "h", map[string]string{}); err != nil {
		t.Fatalf("nil store remember: %v", err)
	}
	if n, err := s.Purge(context.Background()); err != nil || n != 0 {
		t.Fatalf("nil store purge: %d %v", n, err)
	}
}

func TestIdempotencyKeyLength(t *testing.T) {
	s := NewIdempotencyStore(&pgxpool.Pool{}, 0)
	_, err := s.Lookup(context.Background(), "/checkout", strings.Repeat("k", maxIdempotencyKeyLen+1), "h")
	if !errors.Is(err, ErrIdempotencyKeyInvalid) {
		t.Fatalf("expected invalid key error, got %v", err)
	}
	if s.ttl != DefaultIdempotencyTTL {
		t.Fatalf("expected default ttl, got %s", s.ttl)
	}
}
