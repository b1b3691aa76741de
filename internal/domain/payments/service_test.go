package payments

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoutil "paystub/internal/platform/crypto"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]*Record
	hashes  map[string]string
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*Record{}, hashes: map[string]string{}}
}

func (m *memStore) bySession(sessionID string) *Record {
	for _, rec := range m.records {
		if rec.StripeSessionID == sessionID {
			return rec
		}
	}
	return nil
}

func (m *memStore) CreateToken(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = &rec
	return nil
}

func (m *memStore) SetEmail(_ context.Context, sessionID string, enc []byte, hash string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.bySession(sessionID)
	if rec == nil {
		return Record{}, ErrSessionNotFound
	}
	rec.EmailEnc = enc
	m.hashes[rec.ID] = hash
	return *rec, nil
}

func (m *memStore) MarkPaid(_ context.Context, sessionID, intent string, enc []byte, hash string, paidAt time.Time) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.bySession(sessionID)
	if rec == nil {
		return Record{}, ErrSessionNotFound
	}
	rec.IsPaid = true
	if rec.PaidAt == nil {
		rec.PaidAt = &paidAt
	}
	rec.PaymentIntentID = intent
	if enc != nil {
		rec.EmailEnc = enc
	}
	if hash != "" {
		m.hashes[rec.ID] = hash
	}
	return *rec, nil
}

func (m *memStore) LatestByEmailHash(_ context.Context, hash string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *Record
	for id, h := range m.hashes {
		if h != hash {
			continue
		}
		if rec := m.records[id]; latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return Record{}, ErrTokenNotFound
	}
	return *latest, nil
}

func (m *memStore) Get(_ context.Context, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrTokenNotFound
	}
	return *rec, nil
}

func (m *memStore) Claim(_ context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || !rec.Valid(now) {
		return false, nil
	}
	rec.IsUsed = true
	rec.UsedAt = &now
	return true, nil
}

func (m *memStore) Release(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		rec.IsUsed = false
		rec.UsedAt = nil
	}
	return nil
}

func (m *memStore) ListRecent(_ context.Context, limit, offset int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *memStore) PurgeExpiredUnpaid(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.records {
		if !rec.IsPaid && !now.Before(rec.ExpiresAt) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

type fakeGateway struct {
	n   int
	err error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, successURL, cancelURL string) (CheckoutSession, error) {
	if g.err != nil {
		return CheckoutSession{}, g.err
	}
	g.n++
	id := "cs_test_" + string(rune('a'+g.n))
	return CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

type sentMail struct{ from, to, subject, body string }

type fakeMailer struct{ sent []sentMail }

func (f *fakeMailer) Send(_ context.Context, from, to, subject, body string) error {
	f.sent = append(f.sent, sentMail{from, to, subject, body})
	return nil
}

type fakeAuditor struct{ actions []string }

func (f *fakeAuditor) Record(_ context.Context, _, action, _, _ string, _ any) error {
	f.actions = append(f.actions, action)
	return nil
}

type fixture struct {
	svc     *Service
	store   *memStore
	mailer  *fakeMailer
	auditor *fakeAuditor
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	crypto, err := cryptoutil.New("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	f := &fixture{
		store:   newMemStore(),
		mailer:  &fakeMailer{},
		auditor: &fakeAuditor{},
		clock:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.store, &fakeGateway{}, f.mailer, crypto, f.auditor, Options{
		Domain:    "https://stubs.example.com/",
		EmailFrom: "billing@stubs.example.com",
	})
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) paidToken(t *testing.T, email string) Token {
	t.Helper()
	ctx := context.Background()
	session, err := f.svc.StartCheckout(ctx)
	require.NoError(t, err)
	_, err = f.svc.AttachEmail(ctx, session.ID, email)
	require.NoError(t, err)
	token, err := f.svc.CompleteCheckout(ctx, CheckoutCompleted{
		Type:            EventCheckoutCompleted,
		SessionID:       session.ID,
		PaymentStatus:   PaymentStatusPaid,
		PaymentIntentID: "pi_123",
	})
	require.NoError(t, err)
	return token
}

func TestCheckoutFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.StartCheckout(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, session.URL)

	url, err := f.svc.AttachEmail(ctx, session.ID, "Buyer@Example.com")
	require.NoError(t, err)
	assert.Equal(t, session.URL, url)

	_, err = f.svc.ResolveByEmail(ctx, "buyer@example.com")
	assert.ErrorIs(t, err, ErrTokenInvalid, "unpaid token must not resolve")

	token, err := f.svc.CompleteCheckout(ctx, CheckoutCompleted{
		Type:            EventCheckoutCompleted,
		SessionID:       session.ID,
		PaymentStatus:   PaymentStatusPaid,
		PaymentIntentID: "pi_123",
	})
	require.NoError(t, err)
	assert.True(t, token.IsPaid)
	assert.Equal(t, "buyer@example.com", token.CustomerEmail)
	assert.Equal(t, f.clock.Add(DefaultTTL), token.ExpiresAt)

	resolved, err := f.svc.ResolveByEmail(ctx, "BUYER@example.com")
	require.NoError(t, err)
	assert.Equal(t, token.ID, resolved.ID)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "buyer@example.com", f.mailer.sent[0].to)
	assert.Contains(t, f.mailer.sent[0].body, "https://stubs.example.com/payroll/"+token.ID)
	assert.Equal(t, []string{"payment.completed"}, f.auditor.actions)
}

func TestEmailIsEncryptedAtRest(t *testing.T) {
	f := newFixture(t)
	token := f.paidToken(t, "buyer@example.com")

	rec, err := f.store.Get(context.Background(), token.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.EmailEnc)
	assert.NotContains(t, string(rec.EmailEnc), "buyer@example.com")
}

func TestCompleteCheckoutIgnoresUnpaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.StartCheckout(ctx)
	require.NoError(t, err)

	for _, evt := range []CheckoutCompleted{
		{Type: "checkout.session.expired", SessionID: session.ID, PaymentStatus: PaymentStatusPaid},
		{Type: EventCheckoutCompleted, SessionID: session.ID, PaymentStatus: "unpaid"},
	} {
		token, err := f.svc.CompleteCheckout(ctx, evt)
		require.NoError(t, err)
		assert.Empty(t, token.ID)
	}
	assert.Empty(t, f.mailer.sent)
}

func TestCompleteCheckoutUnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CompleteCheckout(context.Background(), CheckoutCompleted{
		Type:          EventCheckoutCompleted,
		SessionID:     "cs_missing",
		PaymentStatus: PaymentStatusPaid,
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCompleteCheckoutAdoptsSessionEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.StartCheckout(ctx)
	require.NoError(t, err)

	token, err := f.svc.CompleteCheckout(ctx, CheckoutCompleted{
		Type:          EventCheckoutCompleted,
		SessionID:     session.ID,
		PaymentStatus: PaymentStatusPaid,
		CustomerEmail: "late@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "late@example.com", token.CustomerEmail)

	_, err = f.svc.ResolveByEmail(ctx, "late@example.com")
	assert.NoError(t, err)
}

func TestClaimIsSingleUse(t *testing.T) {
	f := newFixture(t)
	token := f.paidToken(t, "buyer@example.com")
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.svc.Claim(ctx, token.ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	assert.ErrorIs(t, f.svc.Claim(ctx, token.ID), ErrTokenInvalid)
	_, err := f.svc.ResolveByEmail(ctx, "buyer@example.com")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestReleaseRestoresClaim(t *testing.T) {
	f := newFixture(t)
	token := f.paidToken(t, "buyer@example.com")
	ctx := context.Background()

	require.NoError(t, f.svc.Claim(ctx, token.ID))
	require.NoError(t, f.svc.Release(ctx, token.ID))
	assert.NoError(t, f.svc.Claim(ctx, token.ID))
}

func TestClaimRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Claim(ctx, "not-a-uuid"), ErrTokenInvalid)
	assert.ErrorIs(t, f.svc.Claim(ctx, "6f1c2f8e-8a51-4d7e-9a4c-2d3b1f0e9a77"), ErrTokenInvalid)

	token := f.paidToken(t, "buyer@example.com")
	f.clock = f.clock.Add(DefaultTTL)
	assert.ErrorIs(t, f.svc.Claim(ctx, token.ID), ErrTokenInvalid, "expired token")
}

func TestAttachEmailValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AttachEmail(ctx, "", "a@example.com")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.AttachEmail(ctx, "cs_x", "not an email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = f.svc.AttachEmail(ctx, "cs_x", "a@example.com")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStartCheckoutGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.gateway = &fakeGateway{err: errors.New("stripe down")}
	_, err := f.svc.StartCheckout(context.Background())
	assert.Error(t, err)
	n, _ := f.store.Count(context.Background())
	assert.Zero(t, n)
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartCheckout(ctx)
	require.NoError(t, err)
	paid := f.paidToken(t, "buyer@example.com")

	f.clock = f.clock.Add(DefaultTTL + time.Minute)
	n, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	tokens, total, err := f.svc.ListRecent(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, tokens, 1)
	assert.Equal(t, paid.ID, tokens[0].ID)
	assert.Equal(t, "buyer@example.com", tokens[0].CustomerEmail)
}

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Jane.Doe@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", got)

	for _, bad := range []string{"", "jane", "Jane <jane@example.com>"} {
		_, err := NormalizeEmail(bad)
		assert.ErrorIs(t, err, ErrInvalidEmail, bad)
	}
	assert.Equal(t, EmailHash("a@b.co"), EmailHash(" A@B.CO "))
}
