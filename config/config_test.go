package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"TAX_RATE", "WEEKLY_DUE_DAYS", "MONTHLY_DUE_DAYS", "MINUTES_PER_KM",
		"ZONE_MIN_SIZE", "ZONE_MAX_COUNT", "OTP_TTL_SECONDS", "SCHEDULER_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, 0.05, cfg.TaxRate)
	assert.Equal(t, 7, cfg.WeeklyDueDays)
	assert.Equal(t, 30, cfg.MonthlyDueDays)
	assert.Equal(t, 3.0, cfg.MinutesPerKm)
	assert.Equal(t, 3, cfg.ZoneMinSize)
	assert.Equal(t, 5, cfg.ZoneMaxCount)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.True(t, cfg.SchedulerEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TAX_RATE", "0.12")
	t.Setenv("MINUTES_PER_KM", "2.5")
	t.Setenv("ZONE_MAX_COUNT", "8")
	t.Setenv("OTP_TTL_SECONDS", "120")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("DEPOT_LAT", "13.05")

	cfg := Load()
	assert.Equal(t, 0.12, cfg.TaxRate)
	assert.Equal(t, 2.5, cfg.MinutesPerKm)
	assert.Equal(t, 8, cfg.ZoneMaxCount)
	assert.Equal(t, 2*time.Minute, cfg.OTPTTL)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, 13.05, cfg.DepotLat)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("TAX_RATE", "five percent")
	t.Setenv("ZONE_MAX_COUNT", "many")

	cfg := Load()
	assert.Equal(t, 0.05, cfg.TaxRate)
	assert.Equal(t, 5, cfg.ZoneMaxCount)
}
