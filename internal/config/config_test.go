package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "APP_ENVIRONMENT", "DATABASE_HOST", "IMPORT_MAXUPLOADSIZEMB", "STORAGE_MODE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "local", cfg.Storage.Mode)
	assert.Equal(t, int64(10), cfg.Import.MaxUploadSizeMB)
	assert.True(t, cfg.Import.ArchiveSources)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 60, cfg.RateLimit.DealerRequestsPerMinute)
	assert.Contains(t, cfg.CORS.ExposedHeaders, "X-Request-ID")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("IMPORT_MAXUPLOADSIZEMB", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, int64(25), cfg.Import.MaxUploadSizeMB)
	assert.Equal(t, int64(25<<20), cfg.Import.MaxUploadBytes())
}

func TestDurations(t *testing.T) {
	db := DatabaseConfig{ConnMaxLifetime: 300}
	assert.Equal(t, 5*time.Minute, db.ConnMaxLifetimeDuration())

	srv := ServerConfig{ReadTimeout: 30, WriteTimeout: 45, RequestTimeout: 60}
	assert.Equal(t, 30*time.Second, srv.ReadTimeoutDuration())
	assert.Equal(t, 45*time.Second, srv.WriteTimeoutDuration())
	assert.Equal(t, time.Minute, srv.RequestTimeoutDuration())
}

func TestConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "require"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=require", d.ConnectionString())
}

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecretOrEnv(_ context.Context, secretName, _ string) (string, error) {
	if v, ok := f[secretName]; ok {
		return v, nil
	}
	return "", errors.New("secret not found")
}

func TestApplySecrets(t *testing.T) {
	t.Setenv("DATABASE_SSLMODE", "require")

	cfg := &Config{Database: DatabaseConfig{Host: "localhost", User: "local"}}
	err := applySecrets(context.Background(), cfg, fakeSecrets{
		"POSTGRES-MAIN-HOST":        "pg.example.net",
		"POSTGRES-MAIN-PASSWORD":    "vault-pass",
		"storage-connection-string": "DefaultEndpointsProtocol=https",
	})
	require.NoError(t, err)

	assert.Equal(t, "pg.example.net", cfg.Database.Host)
	assert.Equal(t, "local", cfg.Database.User, "missing secret keeps configured value")
	assert.Equal(t, "vault-pass", cfg.Database.Password)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "DefaultEndpointsProtocol=https", cfg.Storage.CloudConnectionString)
}

func TestApplySecrets_PasswordRequired(t *testing.T) {
	cfg := &Config{}
	err := applySecrets(context.Background(), cfg, fakeSecrets{})
	assert.Error(t, err)
}

func TestLoadWithSecrets_VaultDisabled(t *testing.T) {
	t.Setenv("USE_AZURE_KEY_VAULT", "")
	t.Setenv("DATABASE_PASSWORD", "env-pass")

	cfg, err := LoadWithSecrets(context.Background(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "env-pass", cfg.Database.Password)
}

func TestLoadWithSecrets_VaultIgnoredOutsideDeployedEnvironments(t *testing.T) {
	t.Setenv("USE_AZURE_KEY_VAULT", "true")
	t.Setenv("APP_ENVIRONMENT", "development")

	_, err := LoadWithSecrets(context.Background(), zap.NewNop())
	assert.NoError(t, err)
}
