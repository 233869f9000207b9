package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, int64(100000), cfg.Shop.FreeShippingThreshold)
	assert.Equal(t, int64(5000), cfg.Shop.FlatShippingCost)
	assert.Equal(t, "transferencia", cfg.Shop.DefaultPaymentMethod)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "2d")
	t.Setenv("SHOP_FLAT_SHIPPING_COST", "7000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, int64(7000), cfg.Shop.FlatShippingCost)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSAllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_ShortSecretRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_EmailNeedsHost(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Email.Enabled = true
	cfg.Email.SMTPHost = ""
	assert.Error(t, cfg.Validate())
}

func TestShippingFor(t *testing.T) {
	cfg := &Config{Shop: ShopConfig{FreeShippingThreshold: 100000, FlatShippingCost: 5000}}

	assert.Equal(t, int64(5000), cfg.ShippingFor(40000))
	assert.Equal(t, int64(5000), cfg.ShippingFor(99999))
	assert.Equal(t, int64(0), cfg.ShippingFor(100000))
	assert.Equal(t, int64(0), cfg.ShippingFor(250000))
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION_MIN", "90m")
	t.Setenv("TEST_DURATION_BAD", "soon")

	assert.Equal(t, 90*time.Minute, getEnvAsDuration("TEST_DURATION_MIN", time.Second))
	assert.Equal(t, time.Second, getEnvAsDuration("TEST_DURATION_BAD", time.Second))
	assert.Equal(t, time.Second, getEnvAsDuration("TEST_DURATION_UNSET", time.Second))
}
