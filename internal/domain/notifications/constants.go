package notifications

import "time"

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

const (
	DefaultMaxAttempts = 5
	retryBatchSize     = 20
	maxErrorLen        = 500
	// retryMaxAge stops retrying messages whose payroll link has likely expired.
	retryMaxAge = 24 * time.Hour
)
