// Package middleware provides HTTP middleware components for the Fletcher API.
package middleware

import (
	"time"

	"github.com/fletcher-oaas/fletcher/internal/config"
)

// Config holds rate limiter configuration.
//
// Rate limits specify requests per second (RPS) for three tiers:
//   - Global: Applied to all requests
//   - Per-service: Applied to authenticated requests
//   - Unauthenticated: Applied to requests without service ID
//
// Burst capacity allows temporary bursts above sustained rate.
// If burst fields are 0, they are computed automatically as 2 × rate.
type Config struct {
	// Rate limits (requests per second)
	GlobalRPS  int // Default: 100
	ServiceRPS int // Default: 50
	UnAuthRPS  int // Default: 10

	// Optional burst capacity overrides (0 = compute automatically as 2 × rate) using computeBurstCapacity()
	GlobalBurst  int // Default: 0 (computed as 2 × GlobalRPS = 200)
	ServiceBurst int // Default: 0 (computed as 2 × ServiceRPS = 100)
	UnAuthBurst  int // Default: 0 (computed as 2 × UnAuthRPS = 20)

	// Memory cleanup configuration
	CleanupInterval time.Duration // Default: 5 minutes
	IdleTimeout     time.Duration // Default: 1 hour
	MaxServices     int           // Default: 10,000
}

// LoadConfig loads middleware config from environment variables with fallback to defaults.
//
// Default burst capacity: 2 × rate (allows 2-second burst)
// Default cleanup: every 5 minutes, removes services idle >1 hour
// Default max services: 10,000 (a warning is logged once the number of
// tracked services reaches 80% of it; no hard cap is enforced).
func LoadConfig() *Config {
	return &Config{
		// Rate limits
		GlobalRPS:  config.GetEnvInt("FLETCHER_GLOBAL_RPS", defaultGlobalRPS),
		ServiceRPS: config.GetEnvInt("FLETCHER_SERVICE_RPS", defaultServiceRPS),
		UnAuthRPS:  config.GetEnvInt("FLETCHER_UNAUTH_RPS", defaultUnAuthRPS),

		// Burst overrides (0 = auto-compute)
		GlobalBurst:  config.GetEnvInt("FLETCHER_GLOBAL_BURST", 0),
		ServiceBurst: config.GetEnvInt("FLETCHER_SERVICE_BURST", 0),
		UnAuthBurst:  config.GetEnvInt("FLETCHER_UNAUTH_BURST", 0),

		// Cleanup configuration
		CleanupInterval: config.GetEnvDuration(
			"FLETCHER_RATE_LIMIT_CLEANUP_INTERVAL", rateLimiterCleanupInterval,
		),
		IdleTimeout: config.GetEnvDuration("FLETCHER_RATE_LIMIT_IDLE_TIMEOUT", rateLimiterIdleTimeout),
		MaxServices: config.GetEnvInt("FLETCHER_RATE_LIMIT_MAX_SERVICES", maxServices),
	}
}
