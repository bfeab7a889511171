package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "/catalogue-api", cfg.CataloguePathPrefix)
	assert.Equal(t, "/feedback-api", cfg.FeedbackPathPrefix)
	assert.Equal(t, CredentialPassthrough, cfg.CredentialMode)
	assert.Equal(t, 3*time.Second, cfg.CatalogueTimeout())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, "storefront", cfg.Tracing.ServiceName)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CATALOGUE_SERVICE_URL", "http://catalogue:8080")
	t.Setenv("FEEDBACK_TIMEOUT_MS", "750")
	t.Setenv("CREDENTIAL_MODE", "cache")
	t.Setenv("CREDENTIAL_STORE", "redis")
	t.Setenv("TOKEN_URL", "http://auth:9000/token")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://catalogue:8080", cfg.CatalogueServiceURL)
	assert.Equal(t, 750*time.Millisecond, cfg.FeedbackTimeout())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.UsesRedis())
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "otel-collector:4318", cfg.Tracing.OTLPEndpoint)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET is required"},
		{"bad port", map[string]string{"STOREFRONT_HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"bad catalogue url", map[string]string{"CATALOGUE_SERVICE_URL": "catalogue"}, "invalid CATALOGUE_SERVICE_URL"},
		{"zero timeout", map[string]string{"FEEDBACK_TIMEOUT_MS": "0"}, "timeouts must be positive"},
		{"unknown mode", map[string]string{"CREDENTIAL_MODE": "magic"}, "CREDENTIAL_MODE must be"},
		{"cache without token url", map[string]string{"CREDENTIAL_MODE": "cache"}, "TOKEN_URL is required"},
		{
			"unknown store",
			map[string]string{"CREDENTIAL_MODE": "cache", "TOKEN_URL": "http://auth/token", "CREDENTIAL_STORE": "disk"},
			"CREDENTIAL_STORE must be",
		},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "1.5"}, "OTEL_SAMPLE_RATE"},
		{"negative rate limit", map[string]string{"RATE_LIMIT_RPS": "-1"}, "RATE_LIMIT_RPS"},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}, "RATE_LIMIT_BURST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
