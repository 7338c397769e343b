package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredStorageEnv(t *testing.T) {
	t.Helper()
	t.Setenv("S3_BUCKET_NAME", "groovz-test")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("S3_ACCESS_KEY_ID", "minio")
	t.Setenv("S3_SECRET_ACCESS_KEY", "minio123")
}

func TestLoadConfigDevelopmentDefaults(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadConfigParsesOrigins(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("ALLOWED_ORIGINS", " https://groovz.app , https://admin.groovz.app ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://groovz.app", "https://admin.groovz.app"}, cfg.AllowedOrigins)
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	setRequiredStorageEnv(t)

	t.Setenv("PORT", "not-a-number")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("PORT", "80")
	_, err = LoadConfig()
	assert.Error(t, err, "ports below 1024 are rejected")
}

func TestLoadConfigRequiresStorageSettings(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("S3_BUCKET_NAME", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigProductionRequiresSecrets(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("ADMIN_SECRET_KEY", "")
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("ADMIN_SECRET_KEY", "prod-admin")
	t.Setenv("DATABASE_URL", "")
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://prod")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}
