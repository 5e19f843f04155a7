package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "local")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, 4*1024*1024, cfg.BodyLimitBytes())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, _, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_S3RequiresCredentials(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "")

	_, _, err := Load()
	require.Error(t, err)
}

func TestLoad_UnknownStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "ftp")

	_, _, err := Load()
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@db/x"}
	assert.Equal(t, "postgres://u:p@db/x", cfg.DSN())

	cfg = &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "x", DBPort: "5433", DBTimeZone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=x port=5433 sslmode=disable TimeZone=UTC", cfg.DSN())
}
