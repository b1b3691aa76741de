package payments

import "time"

const (
	DefaultTTL = 24 * time.Hour

	EventCheckoutCompleted = "checkout.session.completed"
	PaymentStatusPaid      = "paid"
)

// Token authorizes exactly one batch generation once it is paid.
type Token struct {
	ID              string     `json:"id"`
	StripeSessionID string     `json:"stripeSessionId"`
	PaymentIntentID string     `json:"paymentIntentId,omitempty"`
	CustomerEmail   string     `json:"customerEmail,omitempty"`
	IsPaid          bool       `json:"isPaid"`
	IsUsed          bool       `json:"isUsed"`
	CreatedAt       time.Time  `json:"createdAt"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	UsedAt          *time.Time `json:"usedAt,omitempty"`
	ExpiresAt       time.Time  `json:"expiresAt"`
}

// Valid reports whether the token may still authorize a generation.
func (t Token) Valid(now time.Time) bool {
	return t.IsPaid && !t.IsUsed && now.Before(t.ExpiresAt)
}

// Record is a stored token with the customer email still encrypted.
type Record struct {
	Token
	CheckoutURL string
	EmailEnc    []byte
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"checkoutUrl"`
}

// CheckoutCompleted is the part of a verified webhook event the workflow uses.
type CheckoutCompleted struct {
	Type            string
	SessionID       string
	PaymentStatus   string
	PaymentIntentID string
	CustomerEmail   string
}
