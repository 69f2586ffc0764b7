package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpires)
}

func TestLoadTokenTTLOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_TTL_HOURS", "72")

	cfg := Load()

	assert.Equal(t, 72*time.Hour, cfg.TokenExpires)
}

func TestLoadTokenTTLMalformed(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_TTL_HOURS", "soon")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.TokenExpires)
}
