package checkouthandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"paystub/internal/domain/payments"
	"paystub/internal/requestctx"
	"paystub/internal/transport/http/api"
	"paystub/internal/transport/http/middleware"
	"paystub/internal/transport/http/shared"
)

const maxWebhookBytes = 64 * 1024

type PaymentService interface {
	StartCheckout(ctx context.Context) (payments.CheckoutSession, error)
	AttachEmail(ctx context.Context, sessionID, email string) (string, error)
	CompleteCheckout(ctx context.Context, evt payments.CheckoutCompleted) (payments.Token, error)
	ResolveByEmail(ctx context.Context, email string) (payments.Token, error)
}

type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (payments.CheckoutCompleted, error)
}

type Handler struct {
	Payments PaymentService
	Webhooks WebhookParser
	Idem     *middleware.IdempotencyStore
}

func NewHandler(payments PaymentService, webhooks WebhookParser, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Payments: payments, Webhooks: webhooks, Idem: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout", h.handleStartCheckout)
	r.Post("/checkout/email", h.handleAttachEmail)
	r.Post("/payment/success", h.handlePaymentSuccess)
	r.Get("/payment/cancel", h.handlePaymentCancel)
}

type checkoutResponse struct {
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
}

func (h *Handler) handleStartCheckout(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	key := r.Header.Get(middleware.IdempotencyHeader)
	fingerprint := middleware.Fingerprint(requestctx.GetClientIP(r.Context()), r.URL.Path)

	stored, err := h.Idem.Lookup(r.Context(), r.URL.Path, key, fingerprint)
	switch {
	case errors.Is(err, middleware.ErrIdempotencyConflict):
		api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), reqID)
		return
	case errors.Is(err, middleware.ErrIdempotencyKeyInvalid):
		api.Fail(w, http.StatusBadRequest, "invalid_idempotency_key", err.Error(), reqID)
		return
	case err != nil:
		slog.Warn("idempotency lookup failed", "requestId", reqID, "err", err)
	}
	if stored != nil {
		var replay checkoutResponse
		if err := json.Unmarshal(stored, &replay); err == nil {
			api.Created(w, replay, reqID)
			return
		}
	}

	session, err := h.Payments.StartCheckout(r.Context())
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	resp := checkoutResponse{SessionID: session.ID, CheckoutURL: session.URL}
	if err := h.Idem.Remember(r.Context(), r.URL.Path, key, fingerprint, resp); err != nil {
		slog.Warn("idempotency save failed", "requestId", reqID, "err", err)
	}
	api.Created(w, resp, reqID)
}

func (h *Handler) handleAttachEmail(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	fields, err := shared.ReadFields(r)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("session_id", fields.Get("session_id"), "is required")
	v.Email("email", fields.Get("email"))
	if v.Reject(w, reqID) {
		return
	}

	url, err := h.Payments.AttachEmail(r.Context(), fields.Get("session_id"), fields.Get("email"))
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	if isFormPost(r) {
		http.Redirect(w, r, url, http.StatusSeeOther)
		return
	}
	api.Success(w, map[string]string{"checkoutUrl": url}, reqID)
}

func (h *Handler) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	fields, err := shared.ReadFields(r)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	token, err := h.Payments.ResolveByEmail(r.Context(), fields.Get("email"))
	if err != nil {
		if isFormPost(r) && errors.Is(err, payments.ErrTokenInvalid) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		shared.WriteError(w, err, reqID)
		return
	}
	payrollURL := "/payroll/" + token.ID
	if isFormPost(r) {
		http.Redirect(w, r, payrollURL, http.StatusSeeOther)
		return
	}
	api.Success(w, map[string]any{
		"token":      token.ID,
		"payrollUrl": payrollURL,
		"expiresAt":  token.ExpiresAt,
	}, reqID)
}

func (h *Handler) handlePaymentCancel(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{
		"status":  "cancelled",
		"message": "the payment was cancelled and nothing was charged",
	}, middleware.GetRequestID(r.Context()))
}

// HandleWebhook receives Stripe events. Unknown sessions are acknowledged so
// Stripe stops retrying; storage failures return 500 so it retries.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "could not read webhook body", reqID)
		return
	}
	evt, err := h.Webhooks.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		slog.Warn("webhook rejected", "requestId", reqID, "err", err)
		api.Fail(w, http.StatusBadRequest, "invalid_signature", "webhook verification failed", reqID)
		return
	}

	token, err := h.Payments.CompleteCheckout(r.Context(), evt)
	switch {
	case errors.Is(err, payments.ErrSessionNotFound):
		slog.Warn("webhook for unknown session", "sessionId", evt.SessionID)
	case err != nil:
		slog.Error("webhook processing failed", "sessionId", evt.SessionID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "webhook_failed", "webhook processing failed", reqID)
		return
	case token.ID != "":
		slog.Info("payment completed", "tokenId", token.ID, "sessionId", evt.SessionID)
	}
	api.Success(w, map[string]bool{"received": true}, reqID)
}

func isFormPost(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}
