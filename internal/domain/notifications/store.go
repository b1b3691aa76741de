package notifications

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Enqueue(ctx context.Context, msg Message) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO email_outbox (sender, recipient_enc, subject, body, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, msg.From, msg.RecipientEnc, msg.Subject, msg.Body, StatusPending).Scan(&id)
	return id, err
}

func (s *Store) MarkSent(ctx context.Context, id int64, at time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE email_outbox
    SET status = $1, attempts = attempts + 1, sent_at = $2, last_error = NULL
    WHERE id = $3
  `, StatusSent, at, id)
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE email_outbox
    SET status = $1, attempts = attempts + 1, last_error = $2
    WHERE id = $3
  `, StatusFailed, reason, id)
	return err
}

func (s *Store) ListRetryable(ctx context.Context, maxAttempts int, createdAfter time.Time, limit int) ([]Message, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, sender, recipient_enc, subject, body, status, attempts, COALESCE(last_error, ''), created_at
    FROM email_outbox
    WHERE status = $1 AND attempts < $2 AND created_at > $3
    ORDER BY created_at
    LIMIT $4
  `, StatusFailed, maxAttempts, createdAfter, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.From, &m.RecipientEnc, &m.Subject, &m.Body, &m.Status, &m.Attempts, &m.LastError, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
