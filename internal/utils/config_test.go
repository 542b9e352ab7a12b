package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_NAME", "receipts")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("AWS_S3_BUCKET", "receipts-bucket")
	t.Setenv("AWS_S3_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY", "AKIA")
	t.Setenv("AWS_SECRET_KEY", "shh")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoadConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
		assert.Equal(t, 24, cfg.SessionTTLHours)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("APP_PORT", "3000")
		t.Setenv("SESSION_TTL_HOURS", "48")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "3000", cfg.AppPort)
		assert.Equal(t, 48, cfg.SessionTTLHours)
	})

	t.Run("missing required key fails fast", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("JWT_SECRET", "")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("non-numeric session ttl fails fast", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SESSION_TTL_HOURS", "soon")

		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
