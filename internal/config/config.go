package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AuthModeDevelopment = "development"
	AuthModeJWT         = "jwt"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
	StoreRedis    = "redis"

	VerifyHTTP    = "http"
	VerifyOffline = "offline"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	AuthMode       string `mapstructure:"AUTH_MODE"`
	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL    string `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`

	RecordStore string `mapstructure:"RECORD_STORE"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	VerifyCache       string        `mapstructure:"VERIFY_CACHE"`
	VerifyMode        string        `mapstructure:"VERIFY_MODE"`
	VerifyTimeout     time.Duration `mapstructure:"VERIFY_TIMEOUT"`
	VerifyTTL         time.Duration `mapstructure:"VERIFY_TTL"`
	VerifyConcurrency int           `mapstructure:"VERIFY_CONCURRENCY"`
	VerifyRPS         float64       `mapstructure:"VERIFY_RPS"`
	TrustedDomains    []string      `mapstructure:"TRUSTED_DOMAINS"`

	CatalogFile    string `mapstructure:"CATALOG_FILE"`
	SeriesTracking bool   `mapstructure:"SERIES_TRACKING"`

	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	TLSEnabled     bool          `mapstructure:"TLS_ENABLED"`
	TLSCertFile    string        `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string        `mapstructure:"TLS_KEY_FILE"`
}

var defaults = map[string]interface{}{
	"PORT":               "8000",
	"ENV":                "development",
	"LOG_LEVEL":          "info",
	"AUTH_MODE":          "",
	"RECORD_STORE":       StoreMemory,
	"DB_MAX_CONNS":       20,
	"DB_MIN_CONNS":       2,
	"VERIFY_CACHE":       StoreMemory,
	"VERIFY_MODE":        VerifyOffline,
	"VERIFY_TIMEOUT":     "3s",
	"VERIFY_TTL":         "168h",
	"VERIFY_CONCURRENCY": 4,
	"VERIFY_RPS":         5,
	"SERIES_TRACKING":    false,
	"CORS_ORIGINS":       "http://localhost:3000",
	"RATE_LIMIT_RPS":     20,
	"RATE_LIMIT_BURST":   40,
	"REQUEST_TIMEOUT":    "30s",
	"BODY_LIMIT":         "256K",
}

var envKeys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"AUTH_MODE", "AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL", "AUTH_SIGNING_KEY",
	"RECORD_STORE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"VERIFY_CACHE", "VERIFY_MODE", "VERIFY_TIMEOUT", "VERIFY_TTL", "VERIFY_CONCURRENCY",
	"VERIFY_RPS", "TRUSTED_DOMAINS",
	"CATALOG_FILE", "SERIES_TRACKING",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT", "BODY_LIMIT",
	"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

// Load reads the environment and an optional .env file in the working
// directory. It does not validate; call Validate before serving.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for _, k := range envKeys {
		v.BindEnv(k)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	cfg.TrustedDomains = splitList(cfg.TrustedDomains)
	return cfg, nil
}

// splitList accepts either an already split list or a single comma
// separated entry, trimming blanks.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns AUTH_MODE when set. Otherwise development
// environments get the dev identity and everything else requires JWTs.
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return AuthModeDevelopment
	}
	return AuthModeJWT
}

// Validate checks the combination of settings before the server starts.
func (c *Config) Validate() error {
	switch mode := c.ResolvedAuthMode(); mode {
	case AuthModeDevelopment:
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=development is not allowed when ENV=production")
		}
	case AuthModeJWT:
		if c.AuthSigningKey == "" && c.AuthIssuer == "" && c.AuthJWKSURL == "" {
			return fmt.Errorf("AUTH_MODE=jwt needs AUTH_ISSUER, AUTH_JWKS_URL or AUTH_SIGNING_KEY")
		}
		if c.IsProduction() && c.AuthSigningKey != "" {
			return fmt.Errorf("AUTH_SIGNING_KEY is for development only; use AUTH_ISSUER or AUTH_JWKS_URL in production")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeDevelopment, AuthModeJWT, mode)
	}

	switch c.RecordStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when RECORD_STORE=postgres")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("RECORD_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.RecordStore)
	}

	switch c.VerifyCache {
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when VERIFY_CACHE=redis")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("VERIFY_CACHE must be %q or %q, got %q", StoreMemory, StoreRedis, c.VerifyCache)
	}

	if c.VerifyMode != VerifyHTTP && c.VerifyMode != VerifyOffline {
		return fmt.Errorf("VERIFY_MODE must be %q or %q, got %q", VerifyHTTP, VerifyOffline, c.VerifyMode)
	}
	if c.VerifyTTL <= 0 {
		return fmt.Errorf("VERIFY_TTL must be positive, got %s", c.VerifyTTL)
	}
	if c.VerifyTimeout <= 0 {
		return fmt.Errorf("VERIFY_TIMEOUT must be positive, got %s", c.VerifyTimeout)
	}
	if c.VerifyConcurrency < 1 {
		return fmt.Errorf("VERIFY_CONCURRENCY must be at least 1, got %d", c.VerifyConcurrency)
	}

	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
