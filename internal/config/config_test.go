package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}))

	assert.Equal(t, "paypal", cfg.PaymentProvider)
	assert.Equal(t, 10, cfg.Identity.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Identity.InitialDelay)
	assert.Equal(t, time.Second, cfg.Identity.RetryDelay)
	assert.Equal(t, 30*time.Minute, cfg.Attribution.Window)
	assert.False(t, cfg.Charge.DedupPerSession)
	assert.Equal(t, "https://api-m.sandbox.paypal.com", cfg.Paypal.BaseApiURL)
}

func TestConfig_Overrides(t *testing.T) {
	var cfg Config
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"PAYMENT_PROVIDER":         "braintree",
		"IDENTITY_MAX_ATTEMPTS":    "4",
		"IDENTITY_RETRY_DELAY":     "250ms",
		"ATTRIBUTION_WINDOW":       "1h",
		"CHARGE_DEDUP_PER_SESSION": "true",
		"BRAINTREE_MERCHANT_ID":    "m-1",
		"RATE_LIMIT_RPS":           "2.5",
	}}))

	assert.Equal(t, "braintree", cfg.PaymentProvider)
	assert.Equal(t, 4, cfg.Identity.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Identity.RetryDelay)
	assert.Equal(t, time.Hour, cfg.Attribution.Window)
	assert.True(t, cfg.Charge.DedupPerSession)
	assert.Equal(t, "m-1", cfg.BrainTree.MerchantID)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
}
