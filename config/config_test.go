package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TARGET_URL", "https://loja.com/grid")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.CheckEvery)
	assert.Equal(t, 24, cfg.RestockWindowHours)
	assert.Equal(t, "sqlite", cfg.StateBackend)
	assert.Equal(t, "./items.db", cfg.DatabasePath)
	assert.Equal(t, "seen_items.json", cfg.StateFile)
	assert.Equal(t, 5*time.Minute, cfg.CheckInterval())
	assert.Equal(t, 24*time.Hour, cfg.RestockWindow())
}

func TestLoadSobrescreve(t *testing.T) {
	t.Setenv("TARGET_URL", "https://loja.com/grid")
	t.Setenv("CHECK_EVERY", "60")
	t.Setenv("RESTOCK_WINDOW_HOURS", "48")
	t.Setenv("STATE_BACKEND", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.CheckInterval())
	assert.Equal(t, 48*time.Hour, cfg.RestockWindow())
	assert.Equal(t, "json", cfg.StateBackend)
}

func TestEmailFromCaiNoUsuarioSMTP(t *testing.T) {
	t.Setenv("SMTP_USER", "user@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", cfg.EmailFrom)
}

func TestValidate(t *testing.T) {
	t.Run("sem TARGET_URL falha", func(t *testing.T) {
		cfg := &Config{CheckEvery: 300}
		assert.Error(t, cfg.Validate())
	})

	t.Run("intervalo inválido falha", func(t *testing.T) {
		cfg := &Config{TargetURL: "https://loja.com/grid", CheckEvery: 0}
		assert.Error(t, cfg.Validate())
	})

	t.Run("configuração mínima passa", func(t *testing.T) {
		cfg := &Config{TargetURL: "https://loja.com/grid", CheckEvery: 300}
		assert.NoError(t, cfg.Validate())
	})
}
