package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(backendURLEnv, "")
	t.Setenv(storeDriverEnv, "")
	t.Setenv(apiKeysEnv, "")

	cfg := Load("")

	assert.Equal(t, 20, cfg.Feed.Limit)
	assert.Equal(t, StoreREST, cfg.Store.Driver)
	assert.Len(t, cfg.Sources, 11)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
	assert.False(t, cfg.Notifications.Telegram.Enabled())
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
logging:
  level: warn
backend:
  baseUrl: http://file.local/api
  timeout: 3s
store:
  driver: Postgres
  dsn: postgres://file
feed:
  limit: 5
sources:
  - name: abstracts
  - name: careers
    childPath: /careers/{id}/apps
scheduler:
  timezone: Europe/Berlin
notifications:
  telegram:
    botToken: file-token
    chatId: "42"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	t.Setenv(backendURLEnv, "http://env.local/api")
	t.Setenv(apiKeysEnv, " a , ,b ")
	t.Setenv(storeDriverEnv, "")

	cfg := Load(path)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "http://env.local/api", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Feed.Limit)
	assert.Equal(t, 8*time.Second, cfg.Feed.SourceTimeout)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "/careers/{id}/apps", cfg.Sources[1].ChildPath)
	assert.Equal(t, []string{"a", "b"}, cfg.HTTP.APIKeys)
	assert.True(t, cfg.Notifications.Telegram.Enabled())
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
}

func TestLoadUnreadableFileKeepsDefaults(t *testing.T) {
	t.Setenv(backendURLEnv, "")
	t.Setenv(storeDriverEnv, "")

	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, "https://api.example.org/api", cfg.Backend.BaseURL)
	assert.Equal(t, StoreREST, cfg.Store.Driver)
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("feed: [unterminated"))
	assert.Error(t, err)
}

func TestUnknownTimezoneFallsBack(t *testing.T) {
	cfg := defaultConfig()
	cfg.Scheduler.Timezone = "Mars/Olympus"
	cfg.bindTimezone()
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}
