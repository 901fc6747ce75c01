package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_NAME", "benangmas")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("XENDIT_APIKEY", "xnd_test_key")
	t.Setenv("SECRET_KEY", "admin-secret")
	t.Setenv("STORE_NAME", "")

	cfg := LoadConfig()

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "postgres", cfg.DBUser)
	assert.Equal(t, "benangmas", cfg.DBName)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "xnd_test_key", cfg.XenditSecretKey)
	assert.Equal(t, "admin-secret", cfg.AdminSecretKey)
	assert.Equal(t, "Benangmas Atelier", cfg.StoreName)
}

func TestLoadConfig_StoreNameOverride(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("STORE_NAME", "Rumah Kebaya")

	cfg := LoadConfig()
	assert.Equal(t, "Rumah Kebaya", cfg.StoreName)
}
