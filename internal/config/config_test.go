package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "postgres://localhost/processos")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Notificacoes.Retention)
	assert.True(t, cfg.Notificacoes.CleanupEnabled)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, "America/Sao_Paulo", cfg.Location.String())
}

func TestLoadRejectsShortSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "curto")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadParsesOrigins(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ALLOW_ORIGINS", " https://painel.exemplo.gov.br , *.exemplo.gov.br,,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://painel.exemplo.gov.br", "*.exemplo.gov.br"}, cfg.AllowOrigins)
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("NOTIFICACOES_RETENCAO", "sete dias")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadTrustProxy(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TrustProxy)

	t.Setenv("TRUST_PROXY", "talvez")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUST_PROXY")
}
