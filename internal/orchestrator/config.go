package orchestrator

import "time"

// Config tunes an Orchestrator's worker pool, timeouts, and the
// optional features (caching, webhook, monitoring) layered on top.
type Config struct {
	MaxConcurrentRequests int
	RequestTimeout        time.Duration
	RetryCount            int
	RetryDelay            time.Duration
	RateLimitPerSecond    float64
	EnableMonitoring      bool
	EnableCaching         bool
	CacheTTL              time.Duration
	WebhookURL            string
	CustomHeaders         map[string]string

	CacheSweepInterval    time.Duration
	MonitorTickInterval   time.Duration
	HealthSnapshotPath    string
	HealthSnapshotInterval time.Duration
}

// DefaultConfig mirrors the documented configuration defaults (§6).
func DefaultConfig() Config {
	return Config{
		MaxConcurrentRequests: 50,
		RequestTimeout:        30 * time.Second,
		RetryCount:            3,
		RetryDelay:            time.Second,
		RateLimitPerSecond:    100,
		EnableMonitoring:      true,
		EnableCaching:         true,
		CacheTTL:              time.Hour,
		CacheSweepInterval:    300 * time.Second,
		MonitorTickInterval:   30 * time.Second,
		HealthSnapshotInterval: 60 * time.Second,
	}
}
