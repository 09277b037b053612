package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 8181
  mode: debug
database:
  host: pg.internal
  user: costs
  password: secret
  db_name: ipcost
calculation:
  data_source: postgres
  max_jurisdictions: 5
  cache_ttl: 30m
  include_tax: true
redis:
  enabled: true
  addr: cache:6379
log:
  level: debug
  format: console
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeFile(t, "ipcost.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.Equal(t, DefaultDBPort, cfg.Database.Port)
	assert.Equal(t, DataSourcePostgres, cfg.Calculation.DataSource)
	assert.Equal(t, 5, cfg.Calculation.MaxJurisdictions)
	assert.Equal(t, 30*time.Minute, cfg.Calculation.CacheTTL)
	assert.True(t, cfg.Calculation.IncludeTax)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("IPCOST_SERVER_PORT", "9999")
	t.Setenv("IPCOST_CALCULATION_MAX_JURISDICTIONS", "7")
	t.Setenv("IPCOST_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(writeFile(t, "ipcost.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Calculation.MaxJurisdictions)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_EmptyPathUsesEnv(t *testing.T) {
	t.Setenv("IPCOST_NARRATIVE_PROVIDER", "gemini")
	t.Setenv("IPCOST_NARRATIVE_API_KEY", "k")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, NarrativeGemini, cfg.Narrative.Provider)
	assert.Equal(t, DefaultGeminiModel, cfg.Narrative.Model)
	assert.Equal(t, DataSourceFile, cfg.Calculation.DataSource)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "bad.yaml", "log:\n  level: loud\n"))
	assert.ErrorContains(t, err, "validation failed")

	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "IPCOST_TEST_DOTENV=from-file\n")
	t.Setenv("IPCOST_TEST_DOTENV", "")
	os.Unsetenv("IPCOST_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "from-file", os.Getenv("IPCOST_TEST_DOTENV"))
}

//Personal.AI order the ending
