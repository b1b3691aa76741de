package adminhandler

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"paystub/internal/domain/audit"
	"paystub/internal/domain/auth"
	"paystub/internal/domain/payments"
	"paystub/internal/domain/reports"
	"paystub/internal/transport/http/api"
	"paystub/internal/transport/http/middleware"
	"paystub/internal/transport/http/shared"
)

const exportLimit = 10000

type Authenticator interface {
	Login(email, password string) (string, time.Time, error)
}

type TokenLister interface {
	ListRecent(ctx context.Context, limit, offset int) ([]payments.Token, int, error)
}

type AuditLog interface {
	Record(ctx context.Context, actor, action, entityType, entityID string, details any) error
	Count(ctx context.Context, filter audit.Filter) (int, error)
	List(ctx context.Context, filter audit.Filter, limit, offset int) ([]audit.Event, error)
}

type Reporter interface {
	Dashboard(ctx context.Context, window time.Duration) (reports.Dashboard, error)
	JobRuns(ctx context.Context, filter reports.JobRunFilter, limit, offset int) ([]reports.JobRun, int, error)
}

type Eraser interface {
	EraseEmail(ctx context.Context, emailHash string) (int64, error)
}

type Handler struct {
	Auth    Authenticator
	Tokens  TokenLister
	Audit   AuditLog
	Reports Reporter
	Privacy Eraser
	Perms   middleware.PermissionStore
}

func NewHandler(authn Authenticator, tokens TokenLister, auditLog AuditLog, reporter Reporter, eraser Eraser, perms middleware.PermissionStore) *Handler {
	return &Handler{Auth: authn, Tokens: tokens, Audit: auditLog, Reports: reporter, Privacy: eraser, Perms: perms}
}

// RegisterRoutes mounts the authenticated admin routes. The caller applies
// bearer authentication; HandleLogin is mounted separately.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTokensRead, h.Perms)).Get("/tokens", h.handleListTokens)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/audit/events", h.handleListEvents)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/audit/events/export", h.handleExportEvents)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/reports/dashboard", h.handleDashboard)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/jobs/runs", h.handleJobRuns)
		r.With(middleware.RequirePermission(auth.PermPrivacyErase, h.Perms)).Post("/privacy/erase", h.handleEraseEmail)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	token, expiresAt, err := h.Auth.Login(payload.Email, payload.Password)
	switch {
	case errors.Is(err, auth.ErrAdminDisabled):
		api.Fail(w, http.StatusNotFound, "not_found", "admin login is not available", reqID)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		slog.Warn("admin login rejected", "requestId", reqID)
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}
	api.Success(w, map[string]any{"token": token, "expiresAt": expiresAt}, reqID)
}

func (h *Handler) handleListTokens(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	tokens, total, err := h.Tokens.ListRecent(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_list_failed", "failed to list tokens", reqID)
		return
	}
	payments.RedactTokens(tokens, r.URL.Query().Get("reveal") == "true" && middleware.Can(r, h.Perms, auth.PermEmailsReveal))
	api.Page(w, tokens, total, reqID)
}

func filterFromQuery(r *http.Request) audit.Filter {
	q := r.URL.Query()
	return audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
	}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 100, 500)
	filter := filterFromQuery(r)

	total, err := h.Audit.Count(r.Context(), filter)
	if err != nil {
		slog.Warn("audit count failed", "err", err)
	}
	events, err := h.Audit.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	api.Page(w, events, total, reqID)
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Audit.List(r.Context(), filterFromQuery(r), exportLimit, 0)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actor", "action", "entity_type", "entity_id", "request_id", "created_at"}); err != nil {
		slog.Warn("audit export header failed", "err", err)
	}
	for _, evt := range events {
		row := []string{
			strconv.FormatInt(evt.ID, 10),
			evt.Actor,
			evt.Action,
			evt.EntityType,
			evt.EntityID,
			evt.RequestID,
			evt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			slog.Warn("audit export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("audit export flush failed", "err", err)
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var window time.Duration
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			api.Fail(w, http.StatusBadRequest, "invalid_argument", "window must be a positive duration such as 168h", reqID)
			return
		}
		window = parsed
	}
	dashboard, err := h.Reports.Dashboard(r.Context(), window)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build dashboard", reqID)
		return
	}
	api.Success(w, dashboard, reqID)
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	filter := reports.JobRunFilter{
		JobType: r.URL.Query().Get("jobType"),
		Status:  r.URL.Query().Get("status"),
	}
	runs, total, err := h.Reports.JobRuns(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", reqID)
		return
	}
	api.Page(w, runs, total, reqID)
}

type eraseRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleEraseEmail(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload eraseRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	email, err := payments.NormalizeEmail(payload.Email)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	hash := payments.EmailHash(email)
	erased, err := h.Privacy.EraseEmail(r.Context(), hash)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "erase_failed", "failed to erase email", reqID)
		return
	}

	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), "admin:"+user.Email, audit.ActionEmailErased, "customer_email", hash, map[string]any{"tokens": erased}); err != nil {
		slog.Warn("audit record failed", "action", audit.ActionEmailErased, "err", err)
	}
	api.Success(w, map[string]any{"tokens": erased}, reqID)
}
