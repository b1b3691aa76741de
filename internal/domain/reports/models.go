package reports

import "time"

// TokenStats counts payment tokens by lifecycle stage.
type TokenStats struct {
	Total   int `json:"total"`
	Paid    int `json:"paid"`
	Used    int `json:"used"`
	Expired int `json:"expiredUnpaid"`
}

// BatchStats counts generation outcomes recorded in the audit log.
type BatchStats struct {
	Generated int `json:"generated"`
	Failed    int `json:"failed"`
}

type Dashboard struct {
	Since          time.Time  `json:"since"`
	Tokens         TokenStats `json:"tokens"`
	Batches        BatchStats `json:"batches"`
	PaymentRate    float64    `json:"paymentRate"`
	RedemptionRate float64    `json:"redemptionRate"`
	FailureRate    float64    `json:"failureRate"`
}

type JobRun struct {
	ID          int64          `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

type JobRunFilter struct {
	JobType string
	Status  string
}
