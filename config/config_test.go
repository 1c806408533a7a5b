package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithoutEnvFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5, cfg.Listing.PageSize)
	assert.True(t, cfg.Listing.FeePushdown)
	assert.Equal(t, 5*time.Second, cfg.Listing.QueryTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Listing.SessionTTL)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.Equal(t, []string{"*"}, cfg.App.CORSOrigins)
}

func TestLoadConfig_EnvFileAndEnvironment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "APP_PORT=9090\nAPP_CORS_ORIGINS=https://a.example, https://b.example\nDB_NAME=doctors\nLISTING_FEE_PUSHDOWN=false\nLISTING_QUERY_TIMEOUT=2s\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	t.Setenv("DB_NAME", "from_env")

	cfg, err := loadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSOrigins)
	assert.Equal(t, "from_env", cfg.DB.Name)
	assert.False(t, cfg.Listing.FeePushdown)
	assert.Equal(t, 2*time.Second, cfg.Listing.QueryTimeout)
}

func TestLoadConfig_InvalidPageSizeFallsBack(t *testing.T) {
	t.Setenv("LISTING_PAGE_SIZE", "0")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Listing.PageSize)
}
