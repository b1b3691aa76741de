package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	IdempotencyHeader     = "Idempotency-Key"
	DefaultIdempotencyTTL = 24 * time.Hour
	maxIdempotencyKeyLen  = 200
)

var (
	ErrIdempotencyConflict   = errors.New("idempotency key was used for a different request")
	ErrIdempotencyKeyInvalid = errors.New("idempotency key is too long")
)

// IdempotencyStore remembers the first response given for (endpoint, key)
// for ttl. A nil store or an empty key disables it.
type IdempotencyStore struct {
	db  *pgxpool.Pool
	ttl time.Duration
	now func() time.Time
}

func NewIdempotencyStore(db *pgxpool.Pool, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{db: db, ttl: ttl, now: time.Now}
}

// Fingerprint identifies what a key was first used for. A key replayed with
// a different fingerprint is a conflict.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s *IdempotencyStore) enabled(key string) bool {
	return s != nil && s.db != nil && key != ""
}

// Lookup returns the remembered response body, or nil when the key is new
// or has expired.
func (s *IdempotencyStore) Lookup(ctx context.Context, endpoint, key, fingerprint string) (json.RawMessage, error) {
	if !s.enabled(key) {
		return nil, nil
	}
	if len(key) > maxIdempotencyKeyLen {
		return nil, ErrIdempotencyKeyInvalid
	}
	var storedHash string
	var body json.RawMessage
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE endpoint = $1 AND key = $2 AND created_at > $3
  `, endpoint, key, s.cutoff()).Scan(&storedHash, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if storedHash != fingerprint {
		return nil, ErrIdempotencyConflict
	}
	return body, nil
}

// Remember stores response under the key. An expired row for the same key
// is overwritten; a live one with another fingerprint is a conflict.
func (s *IdempotencyStore) Remember(ctx context.Context, endpoint, key, fingerprint string, response any) error {
	if !s.enabled(key) {
		return nil
	}
	body, err := json.Marshal(response)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (endpoint, key, request_hash, response_json, created_at)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (endpoint, key)
    DO UPDATE SET request_hash = EXCLUDED.request_hash,
                  response_json = EXCLUDED.response_json,
                  created_at = EXCLUDED.created_at
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
       OR idempotency_keys.created_at <= $6
  `, endpoint, key, fingerprint, body, s.now().UTC(), s.cutoff())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Purge deletes expired keys.
func (s *IdempotencyStore) Purge(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at <= $1`, s.cutoff())
	return tag.RowsAffected(), err
}

func (s *IdempotencyStore) cutoff() time.Time {
	return s.now().UTC().Add(-s.ttl)
}
