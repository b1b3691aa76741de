package notifications

import "time"

// Message is one outbound email. The recipient is sealed at rest.
type Message struct {
	ID           int64
	From         string
	RecipientEnc []byte
	Subject      string
	Body         string
	Status       string
	Attempts     int
	LastError    string
	CreatedAt    time.Time
	SentAt       *time.Time
}
