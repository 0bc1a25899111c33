// Package config loads the shop configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	corenumerator "batteryshop/internal/core/numerator"
	"batteryshop/internal/infrastructure/storage/postgres"
)

// Config holds all runtime parameters. Capability switches live here and are
// injected at startup rather than detected from the database.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	JWTSecret string
	JWTTTL    time.Duration

	DB       DatabaseConfig
	Sale     SaleConfig
	Invoice  InvoiceConfig
	Features FeatureConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	URL              string
	MaxConns         int
	MinConns         int
	IsolationLevel   string
	StatementTimeout time.Duration
}

// SaleConfig tunes the sale transaction.
type SaleConfig struct {
	// PasswordHashCost is the bcrypt cost for default passwords of new customers.
	PasswordHashCost int
}

// InvoiceConfig selects the invoice numbering scheme.
type InvoiceConfig struct {
	Prefix   string
	Strategy string
}

// FeatureConfig toggles optional infrastructure.
type FeatureConfig struct {
	Idempotency    bool
	IdempotencyTTL time.Duration
	Audit          bool
	// AuditCompressThreshold is the payload size in bytes above which audit changes are compressed.
	AuditCompressThreshold int
}

// Load reads configuration from environment variables. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	// Missing .env is fine: production sets real variables.
	_ = godotenv.Load()

	cfg := &Config{
		Env:       getEnv("APP_ENV", "development"),
		Port:      getEnv("APP_PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		JWTSecret: getEnv("JWT_SECRET", ""),
		DB: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       getEnvInt("DB_MAX_CONNS", 10),
			MinConns:       getEnvInt("DB_MIN_CONNS", 2),
			IsolationLevel: strings.ToLower(getEnv("TX_ISOLATION", "read_committed")),
		},
		Sale: SaleConfig{
			PasswordHashCost: getEnvInt("PASSWORD_HASH_COST", 10),
		},
		Invoice: InvoiceConfig{
			Prefix:   getEnv("INVOICE_PREFIX", "INV"),
			Strategy: strings.ToLower(getEnv("INVOICE_STRATEGY", "strict")),
		},
		Features: FeatureConfig{
			Idempotency:            getEnvBool("IDEMPOTENCY_ENABLED", true),
			Audit:                  getEnvBool("AUDIT_ENABLED", true),
			AuditCompressThreshold: getEnvInt("AUDIT_COMPRESS_THRESHOLD", postgres.DefaultCompressThreshold),
		},
	}

	var err error
	if cfg.JWTTTL, err = getEnvDuration("JWT_TTL", "12h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.DB.StatementTimeout, err = getEnvDuration("TX_STATEMENT_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid TX_STATEMENT_TIMEOUT: %w", err)
	}
	if cfg.Features.IdempotencyTTL, err = getEnvDuration("IDEMPOTENCY_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.DB.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if _, err := postgres.ParseIsolationLevel(c.DB.IsolationLevel); err != nil {
		errs = append(errs, fmt.Errorf("TX_ISOLATION: %w", err))
	}
	if c.Invoice.Strategy != "strict" && c.Invoice.Strategy != "scan" {
		errs = append(errs, fmt.Errorf("INVOICE_STRATEGY must be strict or scan, got %q", c.Invoice.Strategy))
	}
	if strings.TrimSpace(c.Invoice.Prefix) == "" {
		errs = append(errs, errors.New("INVOICE_PREFIX must not be blank"))
	}
	if c.DB.MaxConns < 1 || c.DB.MinConns < 0 || c.DB.MinConns > c.DB.MaxConns {
		errs = append(errs, fmt.Errorf("invalid pool size: min %d, max %d", c.DB.MinConns, c.DB.MaxConns))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// PoolConfig returns the connection pool settings.
func (c *Config) PoolConfig() postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(c.DB.URL)
	pc.MaxConns = int32(c.DB.MaxConns)
	pc.MinConns = int32(c.DB.MinConns)
	return pc
}

// TxOptions returns the sale transaction options.
func (c *Config) TxOptions() postgres.TxOptions {
	opts := postgres.DefaultTxOptions()
	level, err := postgres.ParseIsolationLevel(c.DB.IsolationLevel)
	if err != nil {
		level = pgx.ReadCommitted
	}
	opts.IsolationLevel = level
	opts.StatementTimeout = c.DB.StatementTimeout
	return opts
}

// InvoiceNumbering returns the numerator configuration and options.
func (c *Config) InvoiceNumbering() (corenumerator.Config, *corenumerator.Options) {
	return corenumerator.InvoiceConfig(c.Invoice.Prefix),
		&corenumerator.Options{Strategy: corenumerator.ParseStrategy(c.Invoice.Strategy)}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	return time.ParseDuration(getEnv(key, defaultValue))
}
