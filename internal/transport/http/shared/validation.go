package shared

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"paystub/internal/transport/http/api"
)

const DateLayout = "2006-01-02"

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects at most one issue per form field, in the order the
// fields were checked.
type Validator struct {
	issues []ValidationIssue
	seen   map[string]bool
}

func NewValidator() *Validator {
	return &Validator{seen: map[string]bool{}}
}

func (v *Validator) Add(field, reason string) {
	if v.seen[field] || strings.TrimSpace(reason) == "" {
		return
	}
	v.seen[field] = true
	v.issues = append(v.issues, ValidationIssue{Field: field, Reason: reason})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

// PositiveInt parses a base-10 integer greater than zero.
func (v *Validator) PositiveInt(field, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.Add(field, "is required")
		return 0
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		v.Add(field, "must be a whole number")
		return 0
	case n <= 0:
		v.Add(field, "must be positive")
		return 0
	}
	return n
}

// Date checks a required YYYY-MM-DD value and returns it trimmed.
func (v *Validator) Date(field, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.Add(field, "is required")
		return raw
	}
	if _, err := time.Parse(DateLayout, raw); err != nil {
		v.Add(field, "must be a YYYY-MM-DD date")
	}
	return raw
}

func (v *Validator) Email(field, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.Add(field, "is required")
		return
	}
	if addr, err := mail.ParseAddress(raw); err != nil || addr.Address != raw {
		v.Add(field, "must be a valid email address")
	}
}

func (v *Validator) MaxLen(field, value string, limit int) {
	if len(value) > limit {
		v.Add(field, "must be at most "+strconv.Itoa(limit)+" characters")
	}
}

func (v *Validator) HasIssues() bool {
	return len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	return append([]ValidationIssue(nil), v.issues...)
}

// Reject writes a 400 listing every issue and reports whether it did.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": issues}, requestID)
}
