package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-0123456789"

func TestNewJWTConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_EXPIRATION_HOURS", "")
	t.Setenv("JWT_ISSUER", "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, testSecret, cfg.Secret)
	assert.Equal(t, 8, cfg.ExpirationHours)
	assert.Equal(t, "resume-analyzer", cfg.Issuer)
	assert.Equal(t, 8*time.Hour, cfg.Expiration())
}

func TestNewJWTConfig_Custom(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_EXPIRATION_HOURS", "48")
	t.Setenv("JWT_ISSUER", "hr-portal")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.ExpirationHours)
	assert.Equal(t, "hr-portal", cfg.Issuer)
}

func TestNewJWTConfig_Errors(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		expiration string
		contains   string
	}{
		{name: "missing secret", secret: "", contains: "JWT_SECRET is required"},
		{name: "short secret", secret: "short", contains: "at least 16"},
		{name: "not a number", secret: testSecret, expiration: "soon", contains: "invalid JWT_EXPIRATION_HOURS"},
		{name: "zero hours", secret: testSecret, expiration: "0", contains: "between 1 and 168"},
		{name: "too long", secret: testSecret, expiration: "500", contains: "between 1 and 168"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("JWT_EXPIRATION_HOURS", tt.expiration)

			cfg, err := NewJWTConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
