package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"paystub/internal/domain/audit"
	cryptoutil "paystub/internal/platform/crypto"
)

type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, successURL, cancelURL string) (CheckoutSession, error)
}

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Auditor interface {
	Record(ctx context.Context, actor, action, entityType, entityID string, details any) error
}

type Options struct {
	Domain    string
	EmailFrom string
	TTL       time.Duration
}

type Service struct {
	store   StoreAPI
	gateway CheckoutGateway
	mailer  Mailer
	crypto  *cryptoutil.Service
	auditor Auditor
	opts    Options
	now     func() time.Time
}

func NewService(store StoreAPI, gateway CheckoutGateway, mailer Mailer, crypto *cryptoutil.Service, auditor Auditor, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	opts.Domain = strings.TrimRight(opts.Domain, "/")
	return &Service{
		store:   store,
		gateway: gateway,
		mailer:  mailer,
		crypto:  crypto,
		auditor: auditor,
		opts:    opts,
		now:     time.Now,
	}
}

// StartCheckout opens a checkout session and persists an unpaid token for it.
func (s *Service) StartCheckout(ctx context.Context) (CheckoutSession, error) {
	session, err := s.gateway.CreateCheckoutSession(ctx,
		s.opts.Domain+"/payment/success?session_id={CHECKOUT_SESSION_ID}",
		s.opts.Domain+"/payment/cancel",
	)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	now := s.now().UTC()
	rec := Record{
		Token: Token{
			ID:              uuid.NewString(),
			StripeSessionID: session.ID,
			CreatedAt:       now,
			ExpiresAt:       now.Add(s.opts.TTL),
		},
		CheckoutURL: session.URL,
	}
	if err := s.store.CreateToken(ctx, rec); err != nil {
		return CheckoutSession{}, err
	}
	return session, nil
}

// AttachEmail stores the buyer email on the session's token and returns the
// checkout URL to redirect to.
func (s *Service) AttachEmail(ctx context.Context, sessionID, email string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrSessionNotFound
	}
	enc, hash, err := s.sealEmail(email)
	if err != nil {
		return "", err
	}
	rec, err := s.store.SetEmail(ctx, sessionID, enc, hash)
	if err != nil {
		return "", err
	}
	return rec.CheckoutURL, nil
}

// CompleteCheckout applies a verified checkout.session.completed event. Other
// events and unpaid sessions are ignored.
func (s *Service) CompleteCheckout(ctx context.Context, evt CheckoutCompleted) (Token, error) {
	if evt.Type != EventCheckoutCompleted || evt.PaymentStatus != PaymentStatusPaid {
		return Token{}, nil
	}
	var enc []byte
	var hash string
	if strings.TrimSpace(evt.CustomerEmail) != "" {
		var err error
		if enc, hash, err = s.sealEmail(evt.CustomerEmail); err != nil {
			slog.Warn("checkout email ignored", "sessionId", evt.SessionID, "err", err)
		}
	}
	rec, err := s.store.MarkPaid(ctx, evt.SessionID, evt.PaymentIntentID, enc, hash, s.now().UTC())
	if err != nil {
		return Token{}, err
	}
	token, err := s.open(rec)
	if err != nil {
		return Token{}, err
	}
	s.audit(ctx, audit.ActionPaymentCompleted, token.ID, map[string]any{
		"sessionId":       evt.SessionID,
		"paymentIntentId": evt.PaymentIntentID,
	})
	s.notify(ctx, token)
	return token, nil
}

// ResolveByEmail returns the newest token bought with the email when it is
// still valid.
func (s *Service) ResolveByEmail(ctx context.Context, email string) (Token, error) {
	_, hash, err := s.sealEmail(email)
	if err != nil {
		return Token{}, err
	}
	rec, err := s.store.LatestByEmailHash(ctx, hash)
	if errors.Is(err, ErrTokenNotFound) {
		return Token{}, ErrTokenInvalid
	}
	if err != nil {
		return Token{}, err
	}
	if !rec.Valid(s.now()) {
		return Token{}, ErrTokenInvalid
	}
	return s.open(rec)
}

// Claim consumes a token. Only one caller can win for a given token.
func (s *Service) Claim(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrTokenInvalid
	}
	ok, err := s.store.Claim(ctx, id, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenInvalid
	}
	s.audit(ctx, audit.ActionTokenClaimed, id, nil)
	return nil
}

// Release gives a claimed token back after a failed generation.
func (s *Service) Release(ctx context.Context, id string) error {
	return s.store.Release(ctx, id)
}

func (s *Service) ListRecent(ctx context.Context, limit, offset int) ([]Token, int, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	records, err := s.store.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Token, 0, len(records))
	for _, rec := range records {
		token, err := s.open(rec)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, token)
	}
	return out, total, nil
}

func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.PurgeExpiredUnpaid(ctx, s.now().UTC())
}

func (s *Service) sealEmail(raw string) ([]byte, string, error) {
	email, err := NormalizeEmail(raw)
	if err != nil {
		return nil, "", err
	}
	enc, err := s.crypto.EncryptString(email)
	if err != nil {
		return nil, "", fmt.Errorf("encrypt email: %w", err)
	}
	return enc, EmailHash(email), nil
}

func (s *Service) open(rec Record) (Token, error) {
	token := rec.Token
	if len(rec.EmailEnc) > 0 {
		email, err := s.crypto.DecryptString(rec.EmailEnc)
		if err != nil {
			return Token{}, fmt.Errorf("decrypt email: %w", err)
		}
		token.CustomerEmail = email
	}
	return token, nil
}

func (s *Service) notify(ctx context.Context, token Token) {
	if s.mailer == nil || token.CustomerEmail == "" {
		return
	}
	body := fmt.Sprintf("Thank you for your payment.\r\n\r\nGenerate your pay stubs here:\r\n%s/payroll/%s\r\n\r\nThe link can be used once and expires at %s.\r\n",
		s.opts.Domain, token.ID, token.ExpiresAt.UTC().Format(time.RFC1123))
	if err := s.mailer.Send(ctx, s.opts.EmailFrom, token.CustomerEmail, "Your payroll link", body); err != nil {
		slog.Warn("payroll link email failed", "tokenId", token.ID, "err", err)
	}
}

func (s *Service) audit(ctx context.Context, action, tokenID string, details any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, "system", action, "payment_token", tokenID, details); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

// NormalizeEmail validates an address and lowercases it.
func NormalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return strings.ToLower(addr.Address), nil
}

func EmailHash(email string) string {
	return cryptoutil.LookupHash(strings.ToLower(strings.TrimSpace(email)))
}
