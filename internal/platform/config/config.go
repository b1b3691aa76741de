package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ConverterLibreOffice = "libreoffice"
	ConverterNative      = "native"
)

type Config struct {
	Addr                   string
	Environment            string
	DatabaseURL            string
	Domain                 string
	FrontendDir            string
	StripeSecretKey        string
	StripeWebhookSecret    string
	StripePriceID          string
	TemplatePath           string
	WorkDir                string
	Converter              string
	LibreOfficeBin         string
	ConvertTimeout         time.Duration
	PipelineWorkers        int
	CellFormatting         bool
	TokenTTL               time.Duration
	DataEncryptionKey      string
	JWTSecret              string
	AdminEmail             string
	AdminPasswordHash      string
	EmailFrom              string
	EmailEnabled           bool
	SMTPHost               string
	SMTPPort               int
	SMTPUser               string
	SMTPPassword           string
	SMTPUseTLS             bool
	RunMigrations          bool
	MaxBodyBytes           int64
	RateLimitPerMinute     int
	TokenSweepInterval     time.Duration
	WorkspaceSweepInterval time.Duration
	EmailRetryInterval     time.Duration
	RetentionInterval      time.Duration
	RetainCustomerEmails   time.Duration
	RetainOutbox           time.Duration
	RetainAudit            time.Duration
	RetainJobRuns          time.Duration
	MetricsEnabled         bool
}

func Load() Config {
	return Config{
		Addr:                   getEnv("APP_ADDR", ":8080"),
		Environment:            getEnv("APP_ENV", "development"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		Domain:                 getEnv("DOMAIN", "http://localhost:8080"),
		FrontendDir:            getEnv("FRONTEND_DIR", "frontend/dist"),
		StripeSecretKey:        getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:    getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceID:          getEnv("STRIPE_PRICE_ID", ""),
		TemplatePath:           getEnv("TEMPLATE_PATH", "templates/base_template.docx"),
		WorkDir:                getEnv("WORK_DIR", os.TempDir()),
		Converter:              strings.ToLower(getEnv("CONVERTER", ConverterLibreOffice)),
		LibreOfficeBin:         getEnv("LIBREOFFICE_BIN", "soffice"),
		ConvertTimeout:         getEnvDuration("CONVERT_TIMEOUT", 2*time.Minute),
		PipelineWorkers:        getEnvInt("PIPELINE_WORKERS", 1),
		CellFormatting:         getEnvBool("CELL_FORMATTING", true),
		TokenTTL:               getEnvDuration("TOKEN_TTL", 24*time.Hour),
		DataEncryptionKey:      getEnv("DATA_ENCRYPTION_KEY", ""),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		AdminEmail:             getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash:      getEnv("ADMIN_PASSWORD_HASH", ""),
		EmailFrom:              getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:           getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               getEnvInt("SMTP_PORT", 587),
		SMTPUser:               getEnv("SMTP_USER", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:             getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:          getEnvBool("RUN_MIGRATIONS", true),
		MaxBodyBytes:           int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:     getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TokenSweepInterval:     getEnvDuration("TOKEN_SWEEP_INTERVAL", time.Hour),
		WorkspaceSweepInterval: getEnvDuration("WORKSPACE_SWEEP_INTERVAL", 15*time.Minute),
		EmailRetryInterval:     getEnvDuration("EMAIL_RETRY_INTERVAL", 10*time.Minute),
		RetentionInterval:      getEnvDuration("RETENTION_INTERVAL", 24*time.Hour),
		RetainCustomerEmails:   getEnvDays("RETENTION_EMAIL_DAYS", 90),
		RetainOutbox:           getEnvDays("RETENTION_OUTBOX_DAYS", 30),
		RetainAudit:            getEnvDays("RETENTION_AUDIT_DAYS", 365),
		RetainJobRuns:          getEnvDays("RETENTION_JOB_RUNS_DAYS", 90),
		MetricsEnabled:         getEnvBool("METRICS_ENABLED", true),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvDays reads a whole number of days. Zero disables the policy.
func getEnvDays(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * 24 * time.Hour
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.TemplatePath) == "" {
		return fmt.Errorf("TEMPLATE_PATH is required")
	}
	if c.Converter != ConverterLibreOffice && c.Converter != ConverterNative {
		return fmt.Errorf("CONVERTER must be %q or %q", ConverterLibreOffice, ConverterNative)
	}
	if c.ConvertTimeout <= 0 {
		return fmt.Errorf("CONVERT_TIMEOUT must be positive")
	}
	if c.PipelineWorkers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if strings.TrimSpace(c.StripeSecretKey) == "" || strings.TrimSpace(c.StripeWebhookSecret) == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET must be set in production")
		}
		if strings.TrimSpace(c.StripePriceID) == "" {
			return fmt.Errorf("STRIPE_PRICE_ID must be set in production")
		}
	}
	if c.AdminEmail != "" && c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH must be set when ADMIN_EMAIL is set")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	for name, d := range map[string]time.Duration{
		"RETENTION_EMAIL_DAYS":    c.RetainCustomerEmails,
		"RETENTION_OUTBOX_DAYS":   c.RetainOutbox,
		"RETENTION_AUDIT_DAYS":    c.RetainAudit,
		"RETENTION_JOB_RUNS_DAYS": c.RetainJobRuns,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
