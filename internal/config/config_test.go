package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "ticketlogger.db", cfg.DBDSN)
	assert.Equal(t, "memory", cfg.SessionStore)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 120, cfg.RateLimit)
	assert.Equal(t, 5, cfg.LoginRateLimit)
}

func TestRateLimitEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RATE_LIMIT", "30")
	t.Setenv("LOGIN_RATE_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.RateLimit)
	assert.Equal(t, 5, cfg.LoginRateLimit)
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	yml := `
port: "9090"
db_dsn: "from-file.db"
upload_path: "${TL_TEST_UPLOADS}"
session_store: redis
redis_db: 3
github:
  client_id: gh-id
  client_secret: gh-secret
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TL_TEST_UPLOADS", "/srv/uploads")
	t.Setenv("DB_DSN", "from-env.db")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("OAUTH_REDIRECT_BASE", "https://tickets.example/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "from-env.db", cfg.DBDSN)
	assert.Equal(t, "/srv/uploads", cfg.UploadPath)
	assert.Equal(t, "redis", cfg.SessionStore)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "gh-id", cfg.GitHub.ClientID)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "https://tickets.example", cfg.OAuthRedirectBase)
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	t.Setenv("PORT", "")
	cfg, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
	assert.Equal(t, "8080", cfg.Port)
}
