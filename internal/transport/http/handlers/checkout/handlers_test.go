package checkouthandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystub/internal/domain/payments"
)

type fakePayments struct {
	session   payments.CheckoutSession
	startErr  error
	attached  map[string]string
	attachErr error
	completed []payments.CheckoutCompleted
	complete  func(payments.CheckoutCompleted) (payments.Token, error)
	byEmail   map[string]payments.Token
}

func (f *fakePayments) StartCheckout(context.Context) (payments.CheckoutSession, error) {
	return f.session, f.startErr
}

func (f *fakePayments) AttachEmail(_ context.Context, sessionID, email string) (string, error) {
	if f.attachErr != nil {
		return "", f.attachErr
	}
	if f.attached == nil {
		f.attached = map[string]string{}
	}
	f.attached[sessionID] = email
	return "https://checkout.stripe.com/c/" + sessionID, nil
}

func (f *fakePayments) CompleteCheckout(_ context.Context, evt payments.CheckoutCompleted) (payments.Token, error) {
	f.completed = append(f.completed, evt)
	if f.complete != nil {
		return f.complete(evt)
	}
	return payments.Token{}, nil
}

func (f *fakePayments) ResolveByEmail(_ context.Context, email string) (payments.Token, error) {
	token, ok := f.byEmail[email]
	if !ok {
		return payments.Token{}, payments.ErrTokenInvalid
	}
	return token, nil
}

type fakeParser struct {
	evt payments.CheckoutCompleted
	err error
}

func (p fakeParser) ParseWebhook([]byte, string) (payments.CheckoutCompleted, error) {
	return p.evt, p.err
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Post("/webhook/stripe", h.HandleWebhook)
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestStartCheckoutReturnsSession(t *testing.T) {
	svc := &fakePayments{session: payments.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}}
	router := newRouter(NewHandler(svc, fakeParser{}, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	var data checkoutResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "cs_1", data.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", data.CheckoutURL)
}

func TestStartCheckoutGatewayFailure(t *testing.T) {
	svc := &fakePayments{startErr: errors.New("stripe down")}
	router := newRouter(NewHandler(svc, fakeParser{}, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAttachEmail(t *testing.T) {
	t.Run("json returns checkout url", func(t *testing.T) {
		svc := &fakePayments{}
		router := newRouter(NewHandler(svc, fakeParser{}, nil))
		req := httptest.NewRequest(http.MethodPost, "/checkout/email", strings.NewReader(`{"session_id":"cs_1","email":"a@b.co"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "https://checkout.stripe.com/c/cs_1")
		assert.Equal(t, "a@b.co", svc.attached["cs_1"])
	})

	t.Run("form redirects to checkout", func(t *testing.T) {
		svc := &fakePayments{}
		router := newRouter(NewHandler(svc, fakeParser{}, nil))
		form := url.Values{"session_id": {"cs_2"}, "email": {"c@d.co"}}
		req := httptest.NewRequest(http.MethodPost, "/checkout/email", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "https://checkout.stripe.com/c/cs_2", rec.Header().Get("Location"))
	})

	t.Run("missing fields", func(t *testing.T) {
		router := newRouter(NewHandler(&fakePayments{}, fakeParser{}, nil))
		req := httptest.NewRequest(http.MethodPost, "/checkout/email", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation_error", decode(t, rec).Error.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		svc := &fakePayments{attachErr: payments.ErrInvalidEmail}
		router := newRouter(NewHandler(svc, fakeParser{}, nil))
		req := httptest.NewRequest(http.MethodPost, "/checkout/email", strings.NewReader(`{"session_id":"cs_1","email":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPaymentSuccess(t *testing.T) {
	svc := &fakePayments{byEmail: map[string]payments.Token{
		"paid@example.com": {ID: "tok-1", IsPaid: true, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	router := newRouter(NewHandler(svc, fakeParser{}, nil))

	t.Run("json resolves payroll url", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payment/success", strings.NewReader(`{"email":"paid@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var data struct {
			Token      string `json:"token"`
			PayrollURL string `json:"payrollUrl"`
		}
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
		assert.Equal(t, "tok-1", data.Token)
		assert.Equal(t, "/payroll/tok-1", data.PayrollURL)
	})

	t.Run("json unknown email is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payment/success", strings.NewReader(`{"email":"other@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "token_invalid", decode(t, rec).Error.Code)
	})

	t.Run("form unknown email redirects home", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payment/success", strings.NewReader("email=other%40example.com"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("form redirects to payroll", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payment/success", strings.NewReader("email=paid%40example.com"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/payroll/tok-1", rec.Header().Get("Location"))
	})
}

func TestPaymentCancel(t *testing.T) {
	router := newRouter(NewHandler(&fakePayments{}, fakeParser{}, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment/cancel", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cancelled")
}

func TestWebhook(t *testing.T) {
	completed := payments.CheckoutCompleted{
		Type:          payments.EventCheckoutCompleted,
		SessionID:     "cs_1",
		PaymentStatus: payments.PaymentStatusPaid,
	}

	tests := []struct {
		name     string
		parser   fakeParser
		complete func(payments.CheckoutCompleted) (payments.Token, error)
		want     int
		calls    int
	}{
		{
			name:   "bad signature",
			parser: fakeParser{err: errors.New("signature mismatch")},
			want:   http.StatusBadRequest,
		},
		{
			name:   "completed",
			parser: fakeParser{evt: completed},
			complete: func(payments.CheckoutCompleted) (payments.Token, error) {
				return payments.Token{ID: "tok-1", IsPaid: true}, nil
			},
			want:  http.StatusOK,
			calls: 1,
		},
		{
			name:   "unknown session acknowledged",
			parser: fakeParser{evt: completed},
			complete: func(payments.CheckoutCompleted) (payments.Token, error) {
				return payments.Token{}, payments.ErrSessionNotFound
			},
			want:  http.StatusOK,
			calls: 1,
		},
		{
			name:   "storage failure retried",
			parser: fakeParser{evt: completed},
			complete: func(payments.CheckoutCompleted) (payments.Token, error) {
				return payments.Token{}, errors.New("db down")
			},
			want:  http.StatusInternalServerError,
			calls: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakePayments{complete: tc.complete}
			router := newRouter(NewHandler(svc, tc.parser, nil))
			req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", strings.NewReader(`{}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			assert.Len(t, svc.completed, tc.calls)
		})
	}
}
