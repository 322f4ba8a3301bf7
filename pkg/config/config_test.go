package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOANBOOK_PASSPHRASE", "open sesame")
	t.Setenv("LOANBOOK_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "loanbook.db", cfg.DatabasePath)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOANBOOK_PASSPHRASE", "open sesame")
	t.Setenv("LOANBOOK_JWT_SECRET", "test-secret")
	t.Setenv("LOANBOOK_ADDR", ":9999")
	t.Setenv("LOANBOOK_DB", "/tmp/other.db")
	t.Setenv("LOANBOOK_TOKEN_TTL_SECONDS", "60")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, time.Minute, cfg.TokenTTL)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("LOANBOOK_PASSPHRASE", "")
	t.Setenv("LOANBOOK_JWT_SECRET", "test-secret")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("LOANBOOK_PASSPHRASE", "open sesame")
	t.Setenv("LOANBOOK_JWT_SECRET", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestBadTTLFallsBack(t *testing.T) {
	t.Setenv("LOANBOOK_PASSPHRASE", "open sesame")
	t.Setenv("LOANBOOK_JWT_SECRET", "test-secret")
	t.Setenv("LOANBOOK_TOKEN_TTL_SECONDS", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
}
