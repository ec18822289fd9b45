package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.App.Env)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, "authd", cfg.JWT.Issuer)
	require.Equal(t, "1h", cfg.Auth.ResetTTL)
	require.Equal(t, 8, cfg.Auth.Password.MinLength)
	require.True(t, cfg.Rate.Enabled)
	require.Equal(t, 3, cfg.Rate.Forgot.Limit)
	require.Equal(t, "15m", cfg.Rate.Forgot.Window)
	require.Equal(t, "memory", cfg.Rate.Backend)
	require.False(t, cfg.Server.TrustProxyHeaders)
}

func TestLoadFile(t *testing.T) {
	p := writeFile(t, `
app:
  env: prod
server:
  addr: ":9090"
  trust_proxy_headers: true
storage:
  driver: postgres
  dsn: postgres://localhost/authd
auth:
  admin_secret: s3cret
  reset_ttl: 30m
rate:
  enabled: false
  forgot:
    limit: 5
    window: 10m
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.App.Env)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.True(t, cfg.Server.TrustProxyHeaders)
	require.Equal(t, "postgres", cfg.Storage.Driver)
	require.Equal(t, "s3cret", cfg.Auth.AdminSecret)
	require.Equal(t, "30m", cfg.Auth.ResetTTL)
	require.False(t, cfg.Rate.Enabled)
	require.Equal(t, 5, cfg.Rate.Forgot.Limit)

	// Untouched fields still get their defaults.
	require.Equal(t, "authd", cfg.JWT.Issuer)
	require.Equal(t, 8, cfg.Auth.Password.MinLength)
}

func TestEnvOverridesFile(t *testing.T) {
	p := writeFile(t, `
server:
  addr: ":9090"
auth:
  admin_secret: from-file
`)
	t.Setenv("AUTHD_ADDR", ":7070")
	t.Setenv("AUTHD_ADMIN_SECRET", "from-env")

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, "from-env", cfg.Auth.AdminSecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	p := writeFile(t, "{not yaml: [")
	_, err := Load(p)
	require.Error(t, err)
}

func TestDuration(t *testing.T) {
	require.Equal(t, 30*time.Minute, Duration("30m", time.Hour))
	require.Equal(t, time.Hour, Duration("", time.Hour))
	require.Equal(t, time.Hour, Duration("garbage", time.Hour))
	require.Equal(t, time.Hour, Duration("-5m", time.Hour))
}
