package privacy

import (
	"context"
	"log/slog"
	"time"
)

type Service struct {
	DB       Execer
	Policies []Policy
	now      func() time.Time
}

func NewService(db Execer, policies []Policy) *Service {
	return &Service{DB: db, Policies: policies, now: time.Now}
}

// Run applies every policy with a positive retention. A failing category is
// logged and the remaining ones still run.
func (s *Service) Run(ctx context.Context) (any, error) {
	now := s.now().UTC()
	affected := make(map[string]int64, len(s.Policies))
	var firstErr error
	for _, p := range s.Policies {
		if p.Retain <= 0 {
			continue
		}
		n, err := ApplyRetention(ctx, s.DB, p.Category, now.Add(-p.Retain))
		affected[p.Category] = n
		if err != nil {
			slog.Warn("retention failed", "category", p.Category, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return affected, firstErr
}

// EraseEmail clears a customer's address from every token found through its
// lookup hash.
func (s *Service) EraseEmail(ctx context.Context, emailHash string) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payment_tokens
    SET customer_email_enc = NULL, customer_email_hash = NULL
    WHERE customer_email_hash = $1
  `, emailHash)
	return tag.RowsAffected(), err
}
