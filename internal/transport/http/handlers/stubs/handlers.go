package stubshandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"paystub/internal/domain/audit"
	"paystub/internal/domain/payroll"
	"paystub/internal/domain/stubs"
	"paystub/internal/transport/http/api"
	"paystub/internal/transport/http/middleware"
	"paystub/internal/transport/http/shared"
)

const (
	maxFieldLen     = 200
	displayDateForm = "01/02/2006"
)

type Generator interface {
	Plan(req stubs.Request) (stubs.Plan, error)
	Execute(ctx context.Context, plan stubs.Plan) (stubs.Result, error)
}

type TokenClaimer interface {
	Claim(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
}

type Auditor interface {
	Record(ctx context.Context, actor, action, entityType, entityID string, details any) error
}

type Handler struct {
	Stubs  Generator
	Tokens TokenClaimer
	Audit  Auditor
}

func NewHandler(gen Generator, tokens TokenClaimer, auditor Auditor) *Handler {
	return &Handler{Stubs: gen, Tokens: tokens, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/payroll/preview", h.handlePreview)
	r.Post("/payroll/{token}", h.handleGenerate)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	tokenID := chi.URLParam(r, "token")

	req, ok := readRequest(w, r, reqID)
	if !ok {
		return
	}
	plan, err := h.Stubs.Plan(req)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	if len(plan.Range.Paydays) == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_argument", "the date range contains no paydays", reqID)
		return
	}

	if err := h.Tokens.Claim(r.Context(), tokenID); err != nil {
		shared.WriteError(w, err, reqID)
		return
	}

	result, err := h.Stubs.Execute(r.Context(), plan)
	if err != nil {
		if relErr := h.Tokens.Release(r.Context(), tokenID); relErr != nil {
			slog.Error("token release failed", "requestId", reqID, "tokenId", tokenID, "err", relErr)
		}
		h.record(r.Context(), audit.ActionBatchFailed, tokenID, map[string]any{
			"periods": len(plan.Range.Paydays),
			"error":   err.Error(),
		})
		shared.WriteError(w, err, reqID)
		return
	}
	h.record(r.Context(), audit.ActionBatchGenerated, tokenID, map[string]any{
		"documents": len(result.Documents),
		"start":     plan.Range.Start.Format(time.DateOnly),
		"end":       plan.Range.End.Format(time.DateOnly),
	})

	api.Attachment(w, result.Filename, "application/zip", result.Archive, map[string]string{
		"X-Document-Count": strconv.Itoa(len(result.Documents)),
		"X-Request-ID":     reqID,
	})
}

type figuresView struct {
	Gross          string `json:"gross"`
	Federal        string `json:"federalWithholding"`
	SocialSecurity string `json:"socialSecurity"`
	Medicare       string `json:"medicare"`
	TotalDeduction string `json:"totalDeduction"`
	NetPay         string `json:"netPay"`
	Rate           string `json:"rate"`
}

type previewResponse struct {
	Figures      figuresView       `json:"figures"`
	Paydays      []string          `json:"paydays"`
	Documents    []string          `json:"documents"`
	Placeholders map[string]string `json:"placeholders,omitempty"`
}

// handlePreview computes figures and paydays without rendering or claiming.
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	req, ok := readRequest(w, r, reqID)
	if !ok {
		return
	}
	plan, err := h.Stubs.Plan(req)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}

	f := plan.Figures
	resp := previewResponse{
		Figures: figuresView{
			Gross:          payroll.FormatCurrency(f.Gross),
			Federal:        payroll.FormatCurrency(f.Federal),
			SocialSecurity: payroll.FormatCurrency(f.SocialSecurity),
			Medicare:       payroll.FormatCurrency(f.Medicare),
			TotalDeduction: payroll.FormatCurrency(f.TotalDeduction),
			NetPay:         payroll.FormatCurrency(f.NetPay()),
			Rate:           f.Rate.String(),
		},
		Paydays:   make([]string, len(plan.Range.Paydays)),
		Documents: make([]string, len(plan.Range.Paydays)),
	}
	for i, payday := range plan.Range.Paydays {
		resp.Paydays[i] = payday.Format(displayDateForm)
		resp.Documents[i] = stubs.DocumentName(plan.Identity, payday)
	}
	if len(plan.Range.Paydays) > 0 {
		first, err := plan.Placeholders(plan.Range.Paydays[0])
		if err != nil {
			shared.WriteError(w, err, reqID)
			return
		}
		resp.Placeholders = first.Values
	}
	api.Success(w, resp, reqID)
}

// readRequest maps the form field names used by the stub order page.
func readRequest(w http.ResponseWriter, r *http.Request, reqID string) (stubs.Request, bool) {
	fields, err := shared.ReadFields(r)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return stubs.Request{}, false
	}

	v := shared.NewValidator()
	req := stubs.Request{
		AnnualSalary:   v.PositiveInt("anual", fields.Get("anual")),
		PeriodsPerYear: v.PositiveInt("period", fields.Get("period")),
		StartDate:      v.Date("start_period", fields.Get("start_period")),
		EndDate:        v.Date("end_period", fields.Get("end_period")),
		Static: payroll.StaticFields{
			Name:            fields.Get("name"),
			LastName:        fields.Get("last_name"),
			ClientAddress:   fields.Get("client_address"),
			Company:         fields.Get("company"),
			CityState:       fields.Get("city_state"),
			EmployerAddress: fields.Get("address_co"),
			CheckID:         fields.Get("check_id"),
			SSNDigits:       fields.Get("ssn_digits"),
			Dependents:      fields.Get("dependents"),
		},
	}
	for _, name := range []string{"name", "last_name", "client_address", "company", "city_state", "address_co", "check_id", "ssn_digits", "dependents"} {
		v.MaxLen(name, fields.Get(name), maxFieldLen)
	}
	if v.Reject(w, reqID) {
		return stubs.Request{}, false
	}
	return req, true
}

func (h *Handler) record(ctx context.Context, action, tokenID string, details any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(ctx, "token:"+tokenID, action, "payment_token", tokenID, details); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
