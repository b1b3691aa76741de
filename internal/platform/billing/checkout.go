// Package billing adapts Stripe Checkout to the payments workflow.
package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"paystub/internal/domain/payments"
)

var ErrNotConfigured = errors.New("stripe is not configured")

type Gateway struct {
	api           *client.API
	priceID       string
	webhookSecret string
	automaticTax  bool
}

// New returns a gateway for the given keys. A gateway built without a secret
// key still verifies webhooks but cannot open sessions.
func New(secretKey, priceID, webhookSecret string) *Gateway {
	g := &Gateway{priceID: priceID, webhookSecret: webhookSecret, automaticTax: true}
	if secretKey != "" {
		g.api = client.New(secretKey, nil)
	}
	return g
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, successURL, cancelURL string) (payments.CheckoutSession, error) {
	if g.api == nil || g.priceID == "" {
		return payments.CheckoutSession{}, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(g.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		AutomaticTax: &stripe.CheckoutSessionAutomaticTaxParams{
			Enabled: stripe.Bool(g.automaticTax),
		},
	}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return payments.CheckoutSession{}, err
	}
	return payments.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the checkout
// session carried by the event.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (payments.CheckoutCompleted, error) {
	if g.webhookSecret == "" {
		return payments.CheckoutCompleted{}, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return payments.CheckoutCompleted{}, fmt.Errorf("verify webhook: %w", err)
	}
	out := payments.CheckoutCompleted{Type: string(event.Type)}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return payments.CheckoutCompleted{}, fmt.Errorf("decode checkout session: %w", err)
	}
	out.SessionID = session.ID
	out.PaymentStatus = string(session.PaymentStatus)
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		out.CustomerEmail = session.CustomerDetails.Email
	} else {
		out.CustomerEmail = session.CustomerEmail
	}
	return out, nil
}
