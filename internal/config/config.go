// Package config loads the Orchestrator's runtime configuration (§6 /
// §7) from defaults, an optional YAML file, and REQFLUX_-prefixed
// environment variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/reqflux/reqflux/internal/orchestrator"
)

// HistoryBackend selects the history sink implementation (component 4.K).
type HistoryBackend string

const (
	HistoryBackendNone     HistoryBackend = "none"
	HistoryBackendMemory   HistoryBackend = "memory"
	HistoryBackendSQLite   HistoryBackend = "sqlite"
	HistoryBackendPostgres HistoryBackend = "postgres"
)

// Config is the top-level configuration document.
type Config struct {
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	History      HistoryConfig      `mapstructure:"history"`
	Log          LogConfig          `mapstructure:"log"`
	Admin        AdminConfig        `mapstructure:"admin"`
}

// OrchestratorConfig mirrors orchestrator.Config's recognized fields (§6).
type OrchestratorConfig struct {
	MaxConcurrentRequests  int               `mapstructure:"max_concurrent_requests"`
	RequestTimeout         time.Duration     `mapstructure:"request_timeout"`
	RetryCount             int               `mapstructure:"retry_count"`
	RetryDelay             time.Duration     `mapstructure:"retry_delay"`
	RateLimitPerSecond     float64           `mapstructure:"rate_limit_per_second"`
	EnableMonitoring       bool              `mapstructure:"enable_monitoring"`
	EnableCaching          bool              `mapstructure:"enable_caching"`
	CacheTTL               time.Duration     `mapstructure:"cache_ttl"`
	WebhookURL             string            `mapstructure:"webhook_url"`
	CustomHeaders          map[string]string `mapstructure:"custom_headers"`
	CacheSweepInterval     time.Duration     `mapstructure:"cache_sweep_interval"`
	MonitorTickInterval    time.Duration     `mapstructure:"monitor_tick_interval"`
	HealthSnapshotPath     string            `mapstructure:"health_snapshot_path"`
	HealthSnapshotInterval time.Duration     `mapstructure:"health_snapshot_interval"`
}

// HistoryConfig selects and configures the history sink (component 4.K).
type HistoryConfig struct {
	Backend        HistoryBackend `mapstructure:"backend"`
	DSN            string         `mapstructure:"dsn"`
	MemoryCapacity int            `mapstructure:"memory_capacity"`
}

// LogConfig mirrors the teacher's logging defaults.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AdminConfig controls the admin/status HTTP surface (component 4.L).
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads defaults, then configPath if non-empty, then
// REQFLUX_-prefixed environment variables, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("reqflux")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("orchestrator.max_concurrent_requests", 50)
	v.SetDefault("orchestrator.request_timeout", "30s")
	v.SetDefault("orchestrator.retry_count", 3)
	v.SetDefault("orchestrator.retry_delay", "1s")
	v.SetDefault("orchestrator.rate_limit_per_second", 100)
	v.SetDefault("orchestrator.enable_monitoring", true)
	v.SetDefault("orchestrator.enable_caching", true)
	v.SetDefault("orchestrator.cache_ttl", "3600s")
	v.SetDefault("orchestrator.webhook_url", "")
	v.SetDefault("orchestrator.cache_sweep_interval", "300s")
	v.SetDefault("orchestrator.monitor_tick_interval", "30s")
	v.SetDefault("orchestrator.health_snapshot_path", "")
	v.SetDefault("orchestrator.health_snapshot_interval", "60s")

	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.memory_capacity", 1000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)

	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.addr", ":8090")
}

// Validate rejects configurations that ConfigError-class failures (§7)
// would otherwise surface only once the orchestrator starts.
func (c *Config) Validate() error {
	if c.Orchestrator.MaxConcurrentRequests <= 0 {
		return fmt.Errorf("orchestrator.max_concurrent_requests must be positive")
	}
	if c.Orchestrator.RetryCount < 0 {
		return fmt.Errorf("orchestrator.retry_count cannot be negative")
	}
	if c.Orchestrator.RateLimitPerSecond <= 0 {
		return fmt.Errorf("orchestrator.rate_limit_per_second must be positive")
	}
	if c.Orchestrator.WebhookURL != "" {
		u, err := url.Parse(c.Orchestrator.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("orchestrator.webhook_url is malformed: %q", c.Orchestrator.WebhookURL)
		}
	}

	switch c.History.Backend {
	case HistoryBackendNone, HistoryBackendMemory:
	case HistoryBackendSQLite, HistoryBackendPostgres:
		if c.History.DSN == "" {
			return fmt.Errorf("history.dsn is required for backend %q", c.History.Backend)
		}
	default:
		return fmt.Errorf("invalid history.backend: %q", c.History.Backend)
	}

	if c.Admin.Enabled && c.Admin.Addr == "" {
		return fmt.Errorf("admin.addr cannot be empty when admin.enabled is true")
	}

	return nil
}

// ToOrchestratorConfig converts the parsed document into the shape
// orchestrator.New expects.
func (c *Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		MaxConcurrentRequests:  c.Orchestrator.MaxConcurrentRequests,
		RequestTimeout:         c.Orchestrator.RequestTimeout,
		RetryCount:             c.Orchestrator.RetryCount,
		RetryDelay:             c.Orchestrator.RetryDelay,
		RateLimitPerSecond:     c.Orchestrator.RateLimitPerSecond,
		EnableMonitoring:       c.Orchestrator.EnableMonitoring,
		EnableCaching:          c.Orchestrator.EnableCaching,
		CacheTTL:               c.Orchestrator.CacheTTL,
		WebhookURL:             c.Orchestrator.WebhookURL,
		CustomHeaders:          c.Orchestrator.CustomHeaders,
		CacheSweepInterval:     c.Orchestrator.CacheSweepInterval,
		MonitorTickInterval:    c.Orchestrator.MonitorTickInterval,
		HealthSnapshotPath:     c.Orchestrator.HealthSnapshotPath,
		HealthSnapshotInterval: c.Orchestrator.HealthSnapshotInterval,
	}
}
