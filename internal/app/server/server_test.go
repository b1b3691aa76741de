package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystub/internal/platform/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg := config.Load()
	cfg.DatabaseURL = dsn
	cfg.Converter = config.ConverterNative
	cfg.WorkDir = t.TempDir()
	cfg.TemplatePath = "missing.docx"
	cfg.FrontendDir = t.TempDir()
	cfg.RunMigrations = true

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestHealthAndReadiness(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestPreviewThroughRouter(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{
		"anual":        {"52000"},
		"period":       {"26"},
		"start_period": {"2024-01-05"},
		"end_period":   {"2024-01-19"},
		"name":         {"Ana"},
		"last_name":    {"Lopez"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/preview", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "2,000.00")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGenerateRejectsUnknownToken(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{
		"anual":        {"52000"},
		"period":       {"26"},
		"start_period": {"2024-01-05"},
		"end_period":   {"2024-01-19"},
		"name":         {"Ana"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/00000000-0000-0000-0000-000000000000", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}
