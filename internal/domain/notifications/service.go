package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cryptoutil "paystub/internal/platform/crypto"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Service records every outbound email before handing it to the mailer so
// failed deliveries can be retried.
type Service struct {
	store       StoreAPI
	Mailer      Mailer
	crypto      *cryptoutil.Service
	MaxAttempts int
	now         func() time.Time
}

func New(store StoreAPI, mailer Mailer, crypto *cryptoutil.Service) *Service {
	return &Service{
		store:       store,
		Mailer:      mailer,
		crypto:      crypto,
		MaxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}
}

// Send stores the message and attempts one delivery. A delivery error is
// returned after the message is recorded as failed.
func (s *Service) Send(ctx context.Context, from, to, subject, body string) error {
	recipient, err := s.crypto.EncryptString(to)
	if err != nil {
		return fmt.Errorf("seal recipient: %w", err)
	}
	msg := Message{From: from, RecipientEnc: recipient, Subject: subject, Body: body, Status: StatusPending}
	id, err := s.store.Enqueue(ctx, msg)
	if err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	msg.ID = id
	return s.deliver(ctx, msg, to)
}

// RetryFailed re-sends failed messages that are still within their attempt
// budget. It is run by the background job service.
func (s *Service) RetryFailed(ctx context.Context) (any, error) {
	msgs, err := s.store.ListRetryable(ctx, s.MaxAttempts, s.now().Add(-retryMaxAge), retryBatchSize)
	if err != nil {
		return nil, err
	}
	sent := 0
	for _, msg := range msgs {
		to, err := s.crypto.DecryptString(msg.RecipientEnc)
		if err != nil {
			slog.Warn("outbox recipient unreadable", "id", msg.ID, "err", err)
			continue
		}
		if err := s.deliver(ctx, msg, to); err == nil {
			sent++
		}
	}
	return map[string]any{"retried": len(msgs), "sent": sent}, nil
}

func (s *Service) deliver(ctx context.Context, msg Message, to string) error {
	if err := s.Mailer.Send(ctx, msg.From, to, msg.Subject, msg.Body); err != nil {
		reason := err.Error()
		if len(reason) > maxErrorLen {
			reason = reason[:maxErrorLen]
		}
		if markErr := s.store.MarkFailed(ctx, msg.ID, reason); markErr != nil {
			slog.Warn("outbox mark failed", "id", msg.ID, "err", markErr)
		}
		return err
	}
	if err := s.store.MarkSent(ctx, msg.ID, s.now().UTC()); err != nil {
		slog.Warn("outbox mark sent failed", "id", msg.ID, "err", err)
	}
	return nil
}
