package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	AutoMigrate        bool
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	AccessTokenTTL     time.Duration
	CORSAllowedOrigins []string

	CartTTL          time.Duration
	CategoryCacheTTL time.Duration
	ReportCacheTTL   time.Duration
	IdempotencyTTL   time.Duration
	DefaultTaxRate   decimal.Decimal
	CurrencySymbol   string
	StoreTimezone    string

	ImportMaxBytes      int64
	ImportStatusTTL     time.Duration
	ImportLockTTL       time.Duration
	ImportTaskTimeout   time.Duration
	ImportErrorLimit    int
	WorkerConcurrency   int
	SignInRateLimit     string
	ImportRateLimit     string
	GlobalRatePerMinute int
}

// Load reads the process environment, after merging an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return build(source{k})
}

// LoadForTests builds a Config from values alone, ignoring the process environment.
func LoadForTests(values map[string]string) (*Config, error) {
	k := koanf.New(".")
	for key, value := range values {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}
	return build(source{k})
}

// MustLoad panics when Load fails.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func build(src source) (*Config, error) {
	taxRate, err := decimal.NewFromString(src.str("DEFAULT_TAX_RATE", "0"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_TAX_RATE: %w", err)
	}

	cfg := &Config{
		AppEnv:             src.str("APP_ENV", "development"),
		Port:               src.str("PORT", "8080"),
		DatabaseURL:        src.str("DATABASE_URL", ""),
		RedisURL:           src.str("REDIS_URL", ""),
		AutoMigrate:        src.flag("AUTO_MIGRATE"),
		JWTSecret:          src.str("JWT_SECRET", ""),
		JWTIssuer:          src.str("JWT_ISSUER", "pos-api"),
		JWTAudience:        src.str("JWT_AUDIENCE", "pos-clients"),
		AccessTokenTTL:     src.dur("ACCESS_TOKEN_TTL", 12*time.Hour),
		CORSAllowedOrigins: src.list("CORS_ALLOWED_ORIGINS"),

		CartTTL:          src.dur("CART_TTL", 12*time.Hour),
		CategoryCacheTTL: src.dur("CATEGORY_CACHE_TTL", 10*time.Minute),
		ReportCacheTTL:   src.dur("REPORT_CACHE_TTL", 5*time.Minute),
		IdempotencyTTL:   src.dur("IDEMPOTENCY_TTL", 24*time.Hour),
		DefaultTaxRate:   taxRate,
		CurrencySymbol:   src.str("CURRENCY_SYMBOL", "₹"),
		StoreTimezone:    src.str("STORE_TIMEZONE", ""),

		ImportMaxBytes:      src.positive("IMPORT_MAX_BYTES", 5<<20),
		ImportStatusTTL:     src.dur("IMPORT_STATUS_TTL", 24*time.Hour),
		ImportLockTTL:       src.dur("IMPORT_LOCK_TTL", 15*time.Minute),
		ImportTaskTimeout:   src.dur("IMPORT_TASK_TIMEOUT", 30*time.Minute),
		ImportErrorLimit:    int(src.positive("IMPORT_ERROR_DISPLAY_LIMIT", 20)),
		WorkerConcurrency:   int(src.positive("WORKER_CONCURRENCY", 4)),
		SignInRateLimit:     src.str("SIGNIN_RATE_LIMIT", "10-M"),
		ImportRateLimit:     src.str("IMPORT_RATE_LIMIT", "30-H"),
		GlobalRatePerMinute: int(src.positive("GLOBAL_RATE_LIMIT_PER_MIN", 600)),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.DefaultTaxRate.IsNegative() || cfg.DefaultTaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, errors.New("DEFAULT_TAX_RATE must be between 0 and 100")
	}

	if cfg.StoreTimezone != "" {
		if _, err := time.LoadLocation(cfg.StoreTimezone); err != nil {
			return nil, fmt.Errorf("STORE_TIMEZONE: %w", err)
		}
	}

	return cfg, nil
}

// Location resolves StoreTimezone, falling back to the process zone.
func (c *Config) Location() *time.Location {
	if c.StoreTimezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.StoreTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// source reads trimmed values from koanf with per-key fallbacks. Malformed values
// fall back silently; only the checks in build fail loudly.
type source struct {
	k *koanf.Koanf
}

func (s source) str(key, fallback string) string {
	if v := strings.TrimSpace(s.k.String(key)); v != "" {
		return v
	}
	return fallback
}

func (s source) dur(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s.str(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (s source) positive(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(s.str(key, ""), 10, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func (s source) flag(key string) bool {
	switch strings.ToLower(s.str(key, "")) {
	case "1", "t", "true", "yes", "on":
		return true
	}
	return false
}

func (s source) list(key string) []string {
	var out []string
	for _, part := range strings.Split(s.str(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
