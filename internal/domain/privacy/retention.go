package privacy

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Policy keeps a category's rows for Retain before they are removed or
// stripped of personal data.
type Policy struct {
	Category string
	Retain   time.Duration
}

// ApplyRetention enforces one category against rows older than cutoff.
// Customer emails are cleared in place; the token row stays for reporting.
func ApplyRetention(ctx context.Context, db Execer, category string, cutoff time.Time) (int64, error) {
	switch category {
	case DataCategoryCustomerEmails:
		tag, err := db.Exec(ctx, `
      UPDATE payment_tokens
      SET customer_email_enc = NULL, customer_email_hash = NULL
      WHERE created_at < $1
        AND (customer_email_enc IS NOT NULL OR customer_email_hash IS NOT NULL)
    `, cutoff)
		return tag.RowsAffected(), err
	case DataCategoryOutbox:
		tag, err := db.Exec(ctx, `
      DELETE FROM email_outbox
      WHERE created_at < $1
    `, cutoff)
		return tag.RowsAffected(), err
	case DataCategoryAudit:
		tag, err := db.Exec(ctx, `
      DELETE FROM audit_events
      WHERE created_at < $1
    `, cutoff)
		return tag.RowsAffected(), err
	case DataCategoryJobRuns:
		tag, err := db.Exec(ctx, `
      DELETE FROM job_runs
      WHERE started_at < $1
    `, cutoff)
		return tag.RowsAffected(), err
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
}
