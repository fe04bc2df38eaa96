package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "STORE_DRIVER", "EVENTS_DRIVER", "LLM_PROVIDER", "JWT_SECRET", "TRACKING_CODE_PREFIX", "SESSION_IDLE_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "none", cfg.EventsDriver)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "CS", cfg.TrackingCodePrefix)
	assert.Equal(t, SessionIdleTimeout, cfg.SessionIdleTimeout)
	assert.NotEmpty(t, cfg.JWTSecret, "a development secret is filled in")
	assert.Contains(t, cfg.DatabaseURL, "dbname=cybershield")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("EVENTS_DRIVER", "mqtt")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "mqtt", cfg.EventsDriver)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_UpperCasesTrackingPrefix(t *testing.T) {
	t.Setenv("TRACKING_CODE_PREFIX", "cyb")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "CYB", cfg.TrackingCodePrefix)
}

func TestLoad_RejectsUnknownDrivers(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load()

	assert.Error(t, err)
}

func TestGetEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "twelve")
	t.Setenv("SOME_DURATION", "-3s")

	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))
	assert.Equal(t, time.Second, getEnvDuration("SOME_DURATION", time.Second))
}
