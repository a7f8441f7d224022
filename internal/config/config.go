package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	RendererPDF  = "pdf"
	RendererHTML = "html"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Database
	DBDriver     string
	DataDir      string
	DatabasePath string
	DatabaseURL  string

	// Files co-located with the database
	AuditLogPath string
	BackupDir    string
	InvoiceDir   string

	// Invoices
	InvoiceRenderer string
	CompanyName     string

	// JWT
	JWTSecret          string
	JWTExpirationHours int

	// Seeding
	SeedPassword string

	// Background Workers
	WorkerCount           int
	StatusRefreshInterval time.Duration

	// Reports
	ReportCacheTTL time.Duration

	// CORS
	AllowedOrigins []string

	// Sentry
	SentryDSN string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DBDriver:              strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DataDir:               dataDir,
		DatabasePath:          getEnv("DATABASE_PATH", filepath.Join(dataDir, "dealership.db")),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		AuditLogPath:          getEnv("AUDIT_LOG_PATH", filepath.Join(dataDir, "audit.log")),
		BackupDir:             getEnv("BACKUP_DIR", filepath.Join(dataDir, "backups")),
		InvoiceDir:            getEnv("INVOICE_DIR", filepath.Join(dataDir, "invoices")),
		InvoiceRenderer:       strings.ToLower(getEnv("INVOICE_RENDERER", RendererPDF)),
		CompanyName:           getEnv("COMPANY_NAME", "Car Dealership"),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		JWTExpirationHours:    getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		SeedPassword:          getEnv("SEED_PASSWORD", ""),
		WorkerCount:           getEnvAsInt("WORKER_COUNT", 2),
		StatusRefreshInterval: getEnvAsDuration("STATUS_REFRESH_INTERVAL", time.Hour),
		ReportCacheTTL:        getEnvAsDuration("REPORT_CACHE_TTL", 2*time.Minute),
		AllowedOrigins:        getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		SentryDSN:             getEnv("SENTRY_DSN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Set default secrets outside production
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}
	if cfg.SeedPassword == "" && !cfg.IsProduction() {
		cfg.SeedPassword = "changeme"
	}

	return cfg, nil
}

// Validate checks combinations that cannot work at runtime
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.InvoiceRenderer != RendererPDF && c.InvoiceRenderer != RendererHTML {
		return fmt.Errorf("unsupported INVOICE_RENDERER %q", c.InvoiceRenderer)
	}

	if c.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET is required in production")
	}

	if c.WorkerCount < 1 {
		c.WorkerCount = 1
	}

	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration reads an environment variable as a time.Duration ("90s", "1h")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
