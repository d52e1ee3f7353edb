package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"SAFEWORK_APP_NAME":          os.Getenv("SAFEWORK_APP_NAME"),
		"SAFEWORK_APP_ENV":           os.Getenv("SAFEWORK_APP_ENV"),
		"SAFEWORK_APP_PORT":          os.Getenv("SAFEWORK_APP_PORT"),
		"SAFEWORK_DATABASE_HOST":     os.Getenv("SAFEWORK_DATABASE_HOST"),
		"SAFEWORK_DATABASE_PORT":     os.Getenv("SAFEWORK_DATABASE_PORT"),
		"SAFEWORK_DATABASE_PASSWORD": os.Getenv("SAFEWORK_DATABASE_PASSWORD"),
		"SAFEWORK_JWT_SECRET":        os.Getenv("SAFEWORK_JWT_SECRET"),
		"SAFEWORK_COOKIE_SECURE":     os.Getenv("SAFEWORK_COOKIE_SECURE"),
		"SAFEWORK_COOKIE_SAME_SITE":  os.Getenv("SAFEWORK_COOKIE_SAME_SITE"),
		"SAFEWORK_ADMIN_USERNAME":    os.Getenv("SAFEWORK_ADMIN_USERNAME"),
		"SAFEWORK_ADMIN_PASSWORD":    os.Getenv("SAFEWORK_ADMIN_PASSWORD"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "safework-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "safework", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 12*time.Hour, cfg.JWT.Expiration)
		assert.Equal(t, "safework", cfg.JWT.Issuer)
		assert.Equal(t, "safework_session", cfg.Cookie.Name)
		assert.Equal(t, "lax", cfg.Cookie.SameSite)
		assert.Equal(t, 64, cfg.Stream.ClientBufferSize)
		assert.Equal(t, "admin", cfg.Admin.Username)
		assert.Equal(t, "admin123", cfg.Admin.Password)
	})

	t.Run("environment variables override defaults", func(t *testing.T) {
		clearEnv()
		os.Setenv("SAFEWORK_APP_PORT", "9090")
		os.Setenv("SAFEWORK_DATABASE_HOST", "db.internal")
		os.Setenv("SAFEWORK_ADMIN_USERNAME", "root")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, "root", cfg.Admin.Username)
	})

	t.Run("rejects invalid same site policy", func(t *testing.T) {
		clearEnv()
		os.Setenv("SAFEWORK_COOKIE_SAME_SITE", "whatever")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("same site none requires secure cookie", func(t *testing.T) {
		clearEnv()
		os.Setenv("SAFEWORK_COOKIE_SAME_SITE", "none")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	envKeys := []string{
		"SAFEWORK_APP_ENV",
		"SAFEWORK_JWT_SECRET",
		"SAFEWORK_DATABASE_PASSWORD",
		"SAFEWORK_COOKIE_SECURE",
		"SAFEWORK_ADMIN_PASSWORD",
	}
	originalEnv := map[string]string{}
	for _, k := range envKeys {
		originalEnv[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	setProductionBase := func() {
		os.Setenv("SAFEWORK_APP_ENV", "production")
		os.Setenv("SAFEWORK_JWT_SECRET", "a-production-secret-of-32-chars-min!")
		os.Setenv("SAFEWORK_DATABASE_PASSWORD", "dbpass")
		os.Setenv("SAFEWORK_COOKIE_SECURE", "true")
		os.Setenv("SAFEWORK_ADMIN_PASSWORD", "not-the-default")
	}

	t.Run("accepts complete production config", func(t *testing.T) {
		setProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
		assert.Equal(t, "json", cfg.Log.Format)
	})

	t.Run("rejects missing jwt secret", func(t *testing.T) {
		setProductionBase()
		os.Unsetenv("SAFEWORK_JWT_SECRET")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects short jwt secret", func(t *testing.T) {
		setProductionBase()
		os.Setenv("SAFEWORK_JWT_SECRET", "short")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects insecure cookie", func(t *testing.T) {
		setProductionBase()
		os.Setenv("SAFEWORK_COOKIE_SECURE", "false")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects default admin password", func(t *testing.T) {
		setProductionBase()
		os.Unsetenv("SAFEWORK_ADMIN_PASSWORD")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "safework",
		Password: "p@ss/word",
		DBName:   "safework",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()

	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "sslmode=disable")
	// Special characters must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", cfg.Addr())
}
