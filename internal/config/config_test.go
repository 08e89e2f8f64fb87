package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lifeos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LIFEOS_SECRET", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("PORT", "")
	t.Setenv("LIFEOS_ADDR", "")
	t.Setenv("LIFEOS_TZ", "")

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "lifeos.db", cfg.Database.Path)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "0 7 * * *", cfg.Schedule.Digest)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Error(t, cfg.Validate(), "secret is required")
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
database:
  path: /tmp/life.db
auth:
  secret: file-secret-0123456789
  token_ttl: 24h
schedule:
  timezone: Europe/Moscow
health:
  steps: 8000
log:
  level: debug
  dev: true
`)
	t.Setenv("LIFEOS_ADDR", "")
	t.Setenv("PORT", "7070")
	t.Setenv("DB_PATH", "")
	t.Setenv("LIFEOS_SECRET", "")
	t.Setenv("LIFEOS_TZ", "")
	t.Setenv("TG_TOKEN", "123:abc")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "/tmp/life.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, 8000, cfg.Health.Steps)
	assert.Equal(t, 8, cfg.Health.WaterGlasses)
	assert.True(t, cfg.Log.Dev)
	assert.Equal(t, "Europe/Moscow", cfg.Location().String())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFixedOffsetZone(t *testing.T) {
	t.Setenv("LIFEOS_TZ", "UTC+3")
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	_, offset := time.Date(2024, 2, 19, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, 3*3600, offset)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [oops"))
	assert.Error(t, err)

	t.Setenv("LIFEOS_TZ", "Mars/Olympus")
	_, err = Load(writeConfig(t, ""))
	assert.Error(t, err)
}
