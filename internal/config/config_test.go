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
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 3, cfg.Dashboard.HomeLimit)
	assert.Equal(t, 50, cfg.Dashboard.AdminLimit)
	assert.Equal(t, "5 0 * * *", cfg.Worker.StatusSweepCron)
	assert.Equal(t, 5*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadConfigFileAndSecrets(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: 9090
database:
  host: db.internal
  password: from-file
store: mongo
dashboard:
  admin_limit: 20
timezone: Asia/Kolkata
`)
	t.Setenv("HEALTHMATE_DB_PASSWORD", "from-env")
	t.Setenv("HEALTHMATE_JWT_SECRET", "jwt-secret")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "jwt-secret", cfg.JWT.Secret)
	assert.Equal(t, StoreMongo, cfg.Store)
	assert.Equal(t, 20, cfg.Dashboard.AdminLimit)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "store: sqlite\n"))
	assert.ErrorContains(t, err, "invalid store")

	_, err = LoadConfig(writeConfig(t, "timezone: Mars/Olympus\n"))
	assert.ErrorContains(t, err, "invalid timezone")
}
