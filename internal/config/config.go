package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/DmytroLysenko1/Store/pkg/config"
	"github.com/DmytroLysenko1/Store/pkg/tracing"
)

// Credential modes.
const (
	// CredentialPassthrough relays the customer's own bearer token.
	CredentialPassthrough = "passthrough"
	// CredentialCache exchanges the customer's token for a downstream one
	// and caches it until shortly before it expires.
	CredentialCache = "cache"
)

// Credential stores, used in cache mode.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort              int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	RequestTimeoutSeconds int `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"30"`

	// Downstream services
	CatalogueServiceURL string `env:"CATALOGUE_SERVICE_URL" envDefault:"http://localhost:8081"`
	CataloguePathPrefix string `env:"CATALOGUE_PATH_PREFIX" envDefault:"/catalogue-api"`
	CatalogueTimeoutMs  int    `env:"CATALOGUE_TIMEOUT_MS" envDefault:"3000"`
	FeedbackServiceURL  string `env:"FEEDBACK_SERVICE_URL" envDefault:"http://localhost:8084"`
	FeedbackPathPrefix  string `env:"FEEDBACK_PATH_PREFIX" envDefault:"/feedback-api"`
	FeedbackTimeoutMs   int    `env:"FEEDBACK_TIMEOUT_MS" envDefault:"3000"`

	// Retries of idempotent downstream calls
	HTTPMaxRetries      int `env:"HTTP_MAX_RETRIES" envDefault:"2"`
	HTTPRetryWaitMinMs  int `env:"HTTP_RETRY_WAIT_MIN_MS" envDefault:"100"`
	HTTPRetryWaitMaxMs  int `env:"HTTP_RETRY_WAIT_MAX_MS" envDefault:"1000"`
	HTTPMaxConnsPerHost int `env:"HTTP_MAX_CONNS_PER_HOST" envDefault:"100"`

	// Circuit breaker settings for downstream service calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Inbound authentication
	JWTSecret string `env:"JWT_SECRET"`

	// Credential relayed to downstream services
	CredentialMode        string `env:"CREDENTIAL_MODE" envDefault:"passthrough"`
	CredentialStore       string `env:"CREDENTIAL_STORE" envDefault:"memory"`
	CredentialSkewSeconds int    `env:"CREDENTIAL_SKEW_SECONDS" envDefault:"30"`

	// OAuth2 token exchange, used in cache mode
	TokenURL               string `env:"TOKEN_URL"`
	TokenClientID          string `env:"TOKEN_CLIENT_ID"`
	TokenClientSecret      string `env:"TOKEN_CLIENT_SECRET"`
	TokenAudience          string `env:"TOKEN_AUDIENCE"`
	TokenScope             string `env:"TOKEN_SCOPE"`
	TokenDefaultTTLSeconds int    `env:"TOKEN_DEFAULT_TTL_SECONDS" envDefault:"300"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka. No brokers disables activity events.
	KafkaBrokers          []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaPublishTimeoutMs int      `env:"KAFKA_PUBLISH_TIMEOUT_MS" envDefault:"2000"`

	Tracing tracing.Config `envPrefix:"OTEL_"`

	// Rate limiting per customer. Zero disables it.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	for name, rawURL := range map[string]string{
		"CATALOGUE_SERVICE_URL": c.CatalogueServiceURL,
		"FEEDBACK_SERVICE_URL":  c.FeedbackServiceURL,
	} {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}
	if c.CatalogueTimeoutMs <= 0 || c.FeedbackTimeoutMs <= 0 {
		return fmt.Errorf("downstream timeouts must be positive")
	}
	if c.HTTPMaxRetries < 0 {
		return fmt.Errorf("HTTP_MAX_RETRIES must not be negative, got %d", c.HTTPMaxRetries)
	}

	switch c.CredentialMode {
	case CredentialPassthrough:
	case CredentialCache:
		if c.TokenURL == "" {
			return fmt.Errorf("TOKEN_URL is required when CREDENTIAL_MODE is %s", CredentialCache)
		}
		if _, err := url.ParseRequestURI(c.TokenURL); err != nil {
			return fmt.Errorf("invalid TOKEN_URL %q: %w", c.TokenURL, err)
		}
		if c.CredentialStore != StoreMemory && c.CredentialStore != StoreRedis {
			return fmt.Errorf("CREDENTIAL_STORE must be %s or %s, got %q", StoreMemory, StoreRedis, c.CredentialStore)
		}
	default:
		return fmt.Errorf("CREDENTIAL_MODE must be %s or %s, got %q", CredentialPassthrough, CredentialCache, c.CredentialMode)
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.Tracing.SampleRate)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %f", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	return nil
}

// UsesRedis reports whether the credential cache is kept in Redis.
func (c *Config) UsesRedis() bool {
	return c.CredentialMode == CredentialCache && c.CredentialStore == StoreRedis
}

func (c *Config) CatalogueTimeout() time.Duration {
	return time.Duration(c.CatalogueTimeoutMs) * time.Millisecond
}

func (c *Config) FeedbackTimeout() time.Duration {
	return time.Duration(c.FeedbackTimeoutMs) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) KafkaPublishTimeout() time.Duration {
	return time.Duration(c.KafkaPublishTimeoutMs) * time.Millisecond
}
