package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "psyconnect-api", cfg.App.Name)
	assert.Equal(t, int64(1140), cfg.Billing.CommissionBps)
	assert.Equal(t, int64(1525), cfg.Billing.RetentionBps)
	assert.Equal(t, "America/Santiago", cfg.Report.Timezone)
	assert.Equal(t, 5, cfg.RateLimit.WaitlistRequestsPerMinute)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	t.Run("zero waitlist rate", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_WAITLIST_RPM", "0")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RATE_LIMIT_WAITLIST_RPM")
	})

	t.Run("negative waitlist rate", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_WAITLIST_RPM", "-3")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RATE_LIMIT_WAITLIST_RPM")
	})

	t.Run("commission out of range", func(t *testing.T) {
		t.Setenv("BILLING_COMMISSION_BPS", "12000")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BILLING_COMMISSION_BPS")
	})

	t.Run("unknown timezone", func(t *testing.T) {
		t.Setenv("REPORT_TIMEZONE", "Mars/Olympus")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REPORT_TIMEZONE")
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})
}
