package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config collects every deployment-tunable constant. Values come from the
// environment with sensible defaults so a bare dev setup runs without a .env.
type Config struct {
	// Billing
	TaxRate        float64 // applied to invoice subtotals
	WeeklyDueDays  int     // invoice due window for weekly cycles
	MonthlyDueDays int     // invoice due window for monthly cycles

	// Routing
	MinutesPerKm float64 // travel-time heuristic
	DepotLat     float64
	DepotLon     float64
	ZoneMinSize  int // zones smaller than this are merge candidates
	ZoneMaxCount int // rebalancing target

	// OTP
	OTPTTL         time.Duration
	OTPMaxAttempts int

	// Scheduler (24h clock, process-local time)
	RouteGenHour      int // nightly route generation for the next day
	ExpansionHour     int // subscription-to-delivery expansion
	InvoiceHour       int // weekly/monthly invoice batches
	OverdueHour       int // overdue invoice marking
	CleanupHour       int // old route/stop cleanup
	CleanupRetainDays int
	SchedulerEnabled  bool
}

// Load reads the environment. main loads the optional .env file before
// calling this, so file-based tunables are already visible here.
func Load() Config {
	return Config{
		TaxRate:        envFloat("TAX_RATE", 0.05),
		WeeklyDueDays:  envInt("WEEKLY_DUE_DAYS", 7),
		MonthlyDueDays: envInt("MONTHLY_DUE_DAYS", 30),

		MinutesPerKm: envFloat("MINUTES_PER_KM", 3.0),
		DepotLat:     envFloat("DEPOT_LAT", 12.9716),
		DepotLon:     envFloat("DEPOT_LON", 77.5946),
		ZoneMinSize:  envInt("ZONE_MIN_SIZE", 3),
		ZoneMaxCount: envInt("ZONE_MAX_COUNT", 5),

		OTPTTL:         time.Duration(envInt("OTP_TTL_SECONDS", 300)) * time.Second,
		OTPMaxAttempts: envInt("OTP_MAX_ATTEMPTS", 3),

		RouteGenHour:      envInt("ROUTE_GEN_HOUR", 20),
		ExpansionHour:     envInt("EXPANSION_HOUR", 19),
		InvoiceHour:       envInt("INVOICE_HOUR", 1),
		OverdueHour:       envInt("OVERDUE_HOUR", 2),
		CleanupHour:       envInt("CLEANUP_HOUR", 3),
		CleanupRetainDays: envInt("CLEANUP_RETAIN_DAYS", 90),
		SchedulerEnabled:  envBool("SCHEDULER_ENABLED", true),
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
