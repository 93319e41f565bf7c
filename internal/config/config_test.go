package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("MARKETPLACE_BASE_URL", "")
	path := writeConfig(t, "marketplace:\n  base_url: https://api.jinnar.test\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":4001", cfg.Server.Address)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 50, cfg.Search.RadiusKm)
	assert.Equal(t, 50, cfg.Search.Limit)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 3, cfg.Search.MinLength)
	assert.Equal(t, 8*time.Second, cfg.SuggestTimeout())
	assert.Equal(t, 10*time.Second, cfg.LocationTimeout())
	assert.Equal(t, 5*time.Minute, cfg.LocationMaxAge())
	assert.Equal(t, 30*24*time.Hour, cfg.LogRetention())
	assert.NotEmpty(t, cfg.Server.AllowedOrigins)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9000"
database:
  driver: mysql
marketplace:
  base_url: https://api.jinnar.test
search:
  radius_km: 25
`)
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("SEARCH_RADIUS_KM", "10")
	t.Setenv("ALLOWED_ORIGINS", "https://jinnar.test, https://www.jinnar.test")
	t.Setenv("MARKETPLACE_BASE_URL", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Search.RadiusKm)
	assert.Equal(t, []string{"https://jinnar.test", "https://www.jinnar.test"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing marketplace url", func(t *testing.T) {
		t.Setenv("MARKETPLACE_BASE_URL", "")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("bad int env", func(t *testing.T) {
		t.Setenv("MARKETPLACE_BASE_URL", "https://api.jinnar.test")
		t.Setenv("SEARCH_LIMIT", "many")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.ErrorContains(t, err, "SEARCH_LIMIT")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("MARKETPLACE_BASE_URL", "https://api.jinnar.test")
		t.Setenv("DB_DRIVER", "sqlite")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.ErrorContains(t, err, "sqlite")
	})
}
