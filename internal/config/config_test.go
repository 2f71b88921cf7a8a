package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pharmat_session", cfg.Session.CookieName)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL())
	assert.Equal(t, 6, cfg.OTP.Digits)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL())
	assert.Equal(t, "postgres", cfg.OTP.Store)
	assert.Equal(t, DevSessionSecret, cfg.Session.Secret)
	assert.True(t, cfg.Session.UsingDevSecret)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoad_DevFallbackDefaultsByEnvironment(t *testing.T) {
	t.Setenv("RESEND_API_KEY", "")
	t.Setenv("OTP_DEV_FALLBACK", "")

	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_SECRET", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.OTP.DevFallback)

	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "a-real-production-secret")
	cfg, err = Load()
	require.NoError(t, err)
	assert.False(t, cfg.OTP.DevFallback)

	t.Setenv("APP_ENV", "development")
	t.Setenv("OTP_DEV_FALLBACK", "false")
	cfg, err = Load()
	require.NoError(t, err)
	assert.False(t, cfg.OTP.DevFallback)
}

func TestValidate_ProductionRejectsDevSecret(t *testing.T) {
	cfg := validConfig()
	cfg.App.Env = "Production"
	cfg.Session.Secret = DevSessionSecret

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestValidate_ProductionRejectsDevFallback(t *testing.T) {
	cfg := validConfig()
	cfg.App.Env = "production"
	cfg.OTP.DevFallback = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTP_DEV_FALLBACK")
}

func TestValidate_ProductionWithSecret(t *testing.T) {
	cfg := validConfig()
	cfg.App.Env = "production"

	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.Session.UsingDevSecret)
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"digits too small", func(c *Config) { c.OTP.Digits = 3 }, "OTP_DIGITS"},
		{"digits too large", func(c *Config) { c.OTP.Digits = 10 }, "OTP_DIGITS"},
		{"zero session ttl", func(c *Config) { c.Session.TTLSeconds = 0 }, "SESSION_TTL_SECONDS"},
		{"zero code ttl", func(c *Config) { c.OTP.TTLMinutes = 0 }, "OTP_TTL_MINUTES"},
		{"unknown store", func(c *Config) { c.OTP.Store = "memcached" }, "OTP_STORE"},
		{"empty cookie name", func(c *Config) { c.Session.CookieName = "" }, "SESSION_COOKIE_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOTPConfig_WindowFallsBackToTTL(t *testing.T) {
	o := OTPConfig{TTLMinutes: 7}
	assert.Equal(t, 7*time.Minute, o.Window())

	o.SendLimitWindow = 3
	assert.Equal(t, 3*time.Minute, o.Window())
}

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Env: "development"},
		Session: SessionConfig{Secret: "s3cr3t-value", TTLSeconds: 3600, CookieName: "pharmat_session"},
		OTP:     OTPConfig{Digits: 6, TTLMinutes: 10, Store: "redis"},
	}
}
