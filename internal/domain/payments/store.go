package payments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const tokenColumns = `id, stripe_session_id, checkout_url, payment_intent_id, customer_email_enc,
           is_paid, is_used, created_at, paid_at, used_at, expires_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var intent *string
	err := row.Scan(&rec.ID, &rec.StripeSessionID, &rec.CheckoutURL, &intent, &rec.EmailEnc,
		&rec.IsPaid, &rec.IsUsed, &rec.CreatedAt, &rec.PaidAt, &rec.UsedAt, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrTokenNotFound
	}
	if err != nil {
		return Record{}, err
	}
	if intent != nil {
		rec.PaymentIntentID = *intent
	}
	return rec, nil
}

func (s *Store) CreateToken(ctx context.Context, rec Record) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO payment_tokens (id, stripe_session_id, checkout_url, expires_at)
    VALUES ($1,$2,$3,$4)
  `, rec.ID, rec.StripeSessionID, rec.CheckoutURL, rec.ExpiresAt)
	return err
}

func (s *Store) SetEmail(ctx context.Context, sessionID string, emailEnc []byte, emailHash string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    UPDATE payment_tokens
    SET customer_email_enc = $2, customer_email_hash = $3
    WHERE stripe_session_id = $1
    RETURNING `+tokenColumns, sessionID, emailEnc, emailHash))
	if errors.Is(err, ErrTokenNotFound) {
		return Record{}, ErrSessionNotFound
	}
	return rec, err
}

func (s *Store) MarkPaid(ctx context.Context, sessionID, paymentIntentID string, emailEnc []byte, emailHash string, paidAt time.Time) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    UPDATE payment_tokens
    SET is_paid = true,
        paid_at = COALESCE(paid_at, $2),
        payment_intent_id = NULLIF($3, ''),
        customer_email_enc = COALESCE($4, customer_email_enc),
        customer_email_hash = COALESCE(NULLIF($5, ''), customer_email_hash)
    WHERE stripe_session_id = $1
    RETURNING `+tokenColumns, sessionID, paidAt, paymentIntentID, emailEnc, emailHash))
	if errors.Is(err, ErrTokenNotFound) {
		return Record{}, ErrSessionNotFound
	}
	return rec, err
}

func (s *Store) LatestByEmailHash(ctx context.Context, emailHash string) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+tokenColumns+`
    FROM payment_tokens
    WHERE customer_email_hash = $1
    ORDER BY created_at DESC
    LIMIT 1
  `, emailHash))
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+tokenColumns+`
    FROM payment_tokens
    WHERE id = $1
  `, id))
}

// Claim marks the token used only if it is still paid, unused and unexpired.
func (s *Store) Claim(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payment_tokens
    SET is_used = true, used_at = $2
    WHERE id = $1 AND is_paid AND NOT is_used AND expires_at > $2
  `, id, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Release(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payment_tokens
    SET is_used = false, used_at = NULL
    WHERE id = $1 AND is_used
  `, id)
	return err
}

func (s *Store) ListRecent(ctx context.Context, limit, offset int) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+tokenColumns+`
    FROM payment_tokens
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payment_tokens").Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) PurgeExpiredUnpaid(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM payment_tokens
    WHERE NOT is_paid AND expires_at <= $1
  `, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
