package payments

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateToken(ctx context.Context, rec Record) error
	SetEmail(ctx context.Context, sessionID string, emailEnc []byte, emailHash string) (Record, error)
	MarkPaid(ctx context.Context, sessionID, paymentIntentID string, emailEnc []byte, emailHash string, paidAt time.Time) (Record, error)
	LatestByEmailHash(ctx context.Context, emailHash string) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Claim(ctx context.Context, id string, now time.Time) (bool, error)
	Release(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit, offset int) ([]Record, error)
	Count(ctx context.Context) (int, error)
	PurgeExpiredUnpaid(ctx context.Context, now time.Time) (int64, error)
}
