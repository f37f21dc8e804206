package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("IMPORT_SKIP_EXISTING", "true")
	t.Setenv("IMPORT_OBJECT_KEY", "batches/2025-01.json")
	t.Setenv("IMPORT_PUSHGATEWAY_URL", "http://pushgateway:9091")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.True(t, cfg.Import.SkipExisting)
	assert.Equal(t, "batches/2025-01.json", cfg.Import.ObjectKey)
	assert.Equal(t, "http://pushgateway:9091", cfg.Import.PushgatewayURL)
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "IMPORT_FILE", "IMPORT_REPORT_PREFIX", "DB_HOST", "MINIO_ENDPOINT", "CORS_ALLOW_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "data/Analytics_Test_Data.json", cfg.Import.File)
	assert.Equal(t, "import-reports", cfg.Import.ReportPrefix)
	assert.Equal(t, "*", cfg.CORSAllowOrigins)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.MinIO.Enabled())
}

func TestAppConfig_Location(t *testing.T) {
	loc, err := (&AppConfig{Timezone: "Europe/Berlin"}).Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	loc, err = (&AppConfig{}).Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	_, err = (&AppConfig{Timezone: "Mars/Olympus"}).Location()
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
