package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riya-shete/csv-analyzer/internal/config"
	"github.com/riya-shete/csv-analyzer/internal/models"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Database.URL = "sqlite://:memory:"
	cfg.Database.MaxConnections = 1
	cfg.Database.MaxIdleConnections = 1
	return cfg
}

func setupDatabase(t *testing.T) {
	require.NoError(t, Initialize(testConfig()))
	t.Cleanup(func() {
		require.NoError(t, Close())
		db = nil
	})
}

func TestInitialize_SQLite(t *testing.T) {
	setupDatabase(t)

	assert.NotNil(t, GetDB())
	assert.True(t, IsConnected())
	assert.NoError(t, HealthCheck())
}

func TestMigrate(t *testing.T) {
	setupDatabase(t)

	require.NoError(t, Migrate(&models.Report{}))
	assert.True(t, GetDB().Migrator().HasTable(&models.Report{}))
}

func TestMigrate_NotInitialized(t *testing.T) {
	assert.Error(t, Migrate(&models.Report{}))
}

func TestIsConnected_NotInitialized(t *testing.T) {
	assert.False(t, IsConnected())
}

func TestHealthCheck_NotInitialized(t *testing.T) {
	assert.Error(t, HealthCheck())
}
