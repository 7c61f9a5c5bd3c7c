package config_test

import (
	"testing"
	"time"

	"github.com/intellibotic/bot-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 8080, cfg.App.Port)

	assert.Equal(t, 30, cfg.Auth.TokenExpiryMinutes)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenExpiry())

	assert.Equal(t, "local", cfg.Mirror.Mode)
	assert.Equal(t, "./bots", cfg.Mirror.LocalBasePath)

	assert.True(t, cfg.Jobs.ReconcileEnabled)
	assert.Equal(t, "@every 1h", cfg.Jobs.ReconcileCron)

	assert.True(t, cfg.Static.Enabled)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Contains(t, cfg.RateLimit.WhitelistPaths, "/health")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "env-admin")
	t.Setenv("ADMIN_PASSWORD", "env-password")
	t.Setenv("JWT_SECRET_KEY", "env-secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "env-admin", cfg.Auth.AdminUsername)
	assert.Equal(t, "env-password", cfg.Auth.AdminPassword)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Auth: config.AuthConfig{
				AdminUsername:      "admin",
				AdminPassword:      "s3cret",
				JWTSecret:          "signing-key",
				TokenExpiryMinutes: 30,
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing username", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.AdminUsername = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing password", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.AdminPassword = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.JWTSecret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive expiry", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.TokenExpiryMinutes = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Name:     "intellibotic",
		User:     "app",
		Password: "pw",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=app password=pw dbname=intellibotic sslmode=disable",
		cfg.ConnectionString(),
	)
}
