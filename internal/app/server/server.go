package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"paystub/internal/domain/audit"
	"paystub/internal/domain/auth"
	"paystub/internal/domain/notifications"
	"paystub/internal/domain/payments"
	"paystub/internal/domain/payroll"
	"paystub/internal/domain/privacy"
	"paystub/internal/domain/reports"
	"paystub/internal/domain/stubs"
	"paystub/internal/platform/archive"
	"paystub/internal/platform/billing"
	"paystub/internal/platform/config"
	cryptoutil "paystub/internal/platform/crypto"
	"paystub/internal/platform/db"
	"paystub/internal/platform/docx"
	"paystub/internal/platform/email"
	"paystub/internal/platform/jobs"
	"paystub/internal/platform/metrics"
	"paystub/internal/platform/pdfconv"
	"paystub/internal/transport/http/api"
	adminhandler "paystub/internal/transport/http/handlers/admin"
	checkouthandler "paystub/internal/transport/http/handlers/checkout"
	stubshandler "paystub/internal/transport/http/handlers/stubs"
	"paystub/internal/transport/http/middleware"
	"paystub/migrations"
)

const (
	shutdownTimeout   = 15 * time.Second
	staleWorkspaceAge = 3 * time.Hour
)

type App struct {
	Config  config.Config
	DB      *db.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
}

// New connects to the database, applies migrations and wires every service
// behind the HTTP router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	if !crypto.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set; customer emails are stored without encryption")
	}

	templatePath, err := resolveTemplate(cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	collector := metrics.New()
	gateway := billing.New(cfg.StripeSecretKey, cfg.StripePriceID, cfg.StripeWebhookSecret)
	auditSvc := audit.New(pool)
	outbox := notifications.New(notifications.NewStore(pool), email.New(cfg), crypto)
	paymentsSvc := payments.NewService(
		payments.NewStore(pool),
		gateway,
		outbox,
		crypto,
		auditSvc,
		payments.Options{Domain: cfg.Domain, EmailFrom: cfg.EmailFrom, TTL: cfg.TokenTTL},
	)

	pipeline := &stubs.Pipeline{
		Template:       templatePath,
		WorkDir:        cfg.WorkDir,
		Filler:         docx.NewFiller(),
		Converter:      newConverter(cfg),
		Archiver:       archive.NewZipWriter(),
		Workers:        cfg.PipelineWorkers,
		ConvertTimeout: cfg.ConvertTimeout,
	}
	var policy payroll.FormattingPolicy = payroll.PlainFormatting{}
	if cfg.CellFormatting {
		policy = payroll.CellFormatting{}
	}
	stubsSvc := stubs.NewService(pipeline, policy, collector)

	idem := middleware.NewIdempotencyStore(pool, middleware.DefaultIdempotencyTTL)

	jobsSvc := jobs.New(pool)
	jobsSvc.Every(jobs.JobTokenPurge, cfg.TokenSweepInterval, func(ctx context.Context) (any, error) {
		purged, err := paymentsSvc.PurgeExpired(ctx)
		if err != nil {
			return nil, err
		}
		keys, err := idem.Purge(ctx)
		return map[string]any{"purged": purged, "idempotencyKeys": keys}, err
	})
	jobsSvc.Every(jobs.JobEmailRetry, cfg.EmailRetryInterval, outbox.RetryFailed)
	privacySvc := privacy.NewService(pool, []privacy.Policy{
		{Category: privacy.DataCategoryCustomerEmails, Retain: cfg.RetainCustomerEmails},
		{Category: privacy.DataCategoryOutbox, Retain: cfg.RetainOutbox},
		{Category: privacy.DataCategoryAudit, Retain: cfg.RetainAudit},
		{Category: privacy.DataCategoryJobRuns, Retain: cfg.RetainJobRuns},
	})
	jobsSvc.Every(jobs.JobRetention, cfg.RetentionInterval, privacySvc.Run)
	jobsSvc.Every(jobs.JobWorkspaceSweep, cfg.WorkspaceSweepInterval, func(context.Context) (any, error) {
		removed, err := stubs.SweepWorkspaces(cfg.WorkDir, staleWorkspaceAge, time.Now())
		return map[string]any{"removed": removed}, err
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(collector))
	}
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.PaymentRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	checkoutHandler := checkouthandler.NewHandler(
		paymentsSvc,
		gateway,
		idem,
	)
	router.Post("/webhook/stripe", checkoutHandler.HandleWebhook)

	router.Route("/api/v1", func(r chi.Router) {
		checkoutHandler.RegisterRoutes(r)

		stubsHandler := stubshandler.NewHandler(stubsSvc, paymentsSvc, auditSvc)
		stubsHandler.RegisterRoutes(r)

		authSvc := auth.NewService(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecret, auth.DefaultSessionTTL)
		adminHandler := adminhandler.NewHandler(authSvc, paymentsSvc, auditSvc, reports.NewService(reports.NewStore(pool)), privacySvc, auth.StaticPermissions{})
		r.Post("/admin/login", adminHandler.HandleLogin)
		adminHandler.RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{
		Config:  cfg,
		DB:      pool,
		Router:  router,
		Jobs:    jobsSvc,
		Metrics: collector,
	}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("paystub server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func newConverter(cfg config.Config) stubs.Converter {
	if cfg.Converter == config.ConverterNative {
		return pdfconv.NewNative()
	}
	lo := pdfconv.NewLibreOffice(cfg.LibreOfficeBin, cfg.ConvertTimeout)
	if !lo.Available() {
		slog.Warn("libreoffice not found; using native converter", "bin", cfg.LibreOfficeBin)
		return pdfconv.NewNative()
	}
	return lo
}

// resolveTemplate falls back to the built-in sample template outside
// production when the configured file is missing.
func resolveTemplate(cfg config.Config) (string, error) {
	if _, err := os.Stat(cfg.TemplatePath); err == nil {
		return cfg.TemplatePath, nil
	} else if !os.IsNotExist(err) || cfg.IsProduction() {
		return "", fmt.Errorf("template %s: %w", cfg.TemplatePath, err)
	}

	raw, err := docx.SampleTemplate()
	if err != nil {
		return "", fmt.Errorf("sample template: %w", err)
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o700); err != nil {
		return "", fmt.Errorf("sample template: %w", err)
	}
	path := filepath.Join(cfg.WorkDir, "sample_template.docx")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", fmt.Errorf("sample template: %w", err)
	}
	slog.Warn("template not found; using built-in sample", "configured", cfg.TemplatePath, "path", path)
	return path, nil
}
