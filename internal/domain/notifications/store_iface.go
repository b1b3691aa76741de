package notifications

import (
	"context"
	"time"
)

type StoreAPI interface {
	Enqueue(ctx context.Context, msg Message) (int64, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	ListRetryable(ctx context.Context, maxAttempts int, createdAfter time.Time, limit int) ([]Message, error)
}
