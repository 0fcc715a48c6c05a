package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_MatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 50, cfg.MaxConcurrentRequests)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.RetryCount)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 100.0, cfg.RateLimitPerSecond)
	assert.True(t, cfg.EnableMonitoring)
	assert.True(t, cfg.EnableCaching)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
}

func TestNew_FillsDefaultsForNilDependencies(t *testing.T) {
	o := New(DefaultConfig(), nil, nil, nil, nil)
	assert.NotNil(t, o.queue)
	assert.NotNil(t, o.transport)
	assert.NotNil(t, o.builder)
	assert.NotNil(t, o.logger)
}

func TestNew_RetryPolicyFallsBackWhenConfigZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetryCount = 0
	cfg.RetryDelay = 0
	o := New(cfg, nil, nil, nil, nil)

	assert.Equal(t, 3, o.retryPolicy.MaxAttempts)
	assert.Equal(t, time.Second, o.retryPolicy.BaseDelay)
}
