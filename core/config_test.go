package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_EnvDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "env-secret")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, "env-secret", cfg.SecretKey)
	require.Equal(t, 60, cfg.AccessTokenExpireMinutes)
	require.True(t, cfg.BootstrapSuperuser)
	require.NoError(t, cfg.Validate())
}

func TestValidate_MissingSecretIsFatal(t *testing.T) {
	cfg := Config{AccessTokenExpireMinutes: 60}
	require.Error(t, cfg.Validate())

	cfg.SecretKey = "s"
	cfg.AccessTokenExpireMinutes = 0
	require.Error(t, cfg.Validate())

	cfg.AccessTokenExpireMinutes = 30
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "8080"
secret_key: file-secret
access_token_expire_minutes: 15
bootstrap_superuser: false
allowed_origins:
  - https://admin.example.com
`), 0o600))

	t.Setenv("SECRET_KEY", "env-secret")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	// File values win over env values; absent keys keep env/defaults.
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "file-secret", cfg.SecretKey)
	require.Equal(t, 15, cfg.AccessTokenExpireMinutes)
	require.False(t, cfg.BootstrapSuperuser)
	require.Equal(t, []string{"https://admin.example.com"}, cfg.AllowedOrigins)
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [broken"), 0o600))

	t.Setenv("CONFIG_FILE", path)
	_, err := Load()
	require.Error(t, err)
}

func TestParseCSV(t *testing.T) {
	require.Nil(t, parseCSV(""))
	require.Equal(t, []string{"a", "b"}, parseCSV(" a , b ,"))
}
