package resilience

import (
	"sync"
	"time"

	"github.com/reqflux/reqflux/internal/domain"
)

// BreakerConfig tunes the per-endpoint circuit breaker.
type BreakerConfig struct {
	FailureThreshold int
	CoolDown         time.Duration
	HalfOpenQuota    int
}

// DefaultBreakerConfig mirrors the documented defaults: threshold 5,
// cool-down 60s, half-open success quota 3 (closes after >3, i.e. on
// the 4th consecutive half-open success).
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, CoolDown: 60 * time.Second, HalfOpenQuota: 3}
}

// breaker is the state machine for a single endpoint. Consults and
// updates are serialized by its own mutex; no lock is ever held across
// a transport call.
type breaker struct {
	mu              sync.Mutex
	state           domain.BreakerStatus
	failureCount    int
	successCount    int
	openedAt        time.Time
	cfg             BreakerConfig
}

// Registry tracks one breaker per endpoint. Endpoint keys are URLs
// with the query string stripped.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*breaker
	cfg      BreakerConfig
}

// NewRegistry builds an empty registry; breakers are created lazily on
// first consult for an endpoint.
func NewRegistry(cfg BreakerConfig) *Registry {
	return &Registry{breakers: make(map[string]*breaker), cfg: cfg}
}

func (r *Registry) get(endpoint string) *breaker {
	r.mu.RLock()
	b, ok := r.breakers[endpoint]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.breakers[endpoint]; ok {
		return b
	}
	b = &breaker{state: domain.BreakerClosed, cfg: r.cfg}
	r.breakers[endpoint] = b
	return b
}

// Allow reports whether a request to endpoint may be attempted. A
// consult against an open breaker past its cool-down transitions it to
// half_open and allows the probe through.
func (r *Registry) Allow(endpoint string) bool {
	b := r.get(endpoint)
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case domain.BreakerClosed, domain.BreakerHalfOpen:
		return true
	case domain.BreakerOpen:
		if time.Since(b.openedAt) >= b.cfg.CoolDown {
			b.state = domain.BreakerHalfOpen
			b.successCount = 0
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess registers a successful send against endpoint.
func (r *Registry) RecordSuccess(endpoint string) {
	b := r.get(endpoint)
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case domain.BreakerClosed:
		b.failureCount = 0
	case domain.BreakerHalfOpen:
		b.successCount++
		if b.successCount > b.cfg.HalfOpenQuota {
			b.state = domain.BreakerClosed
			b.failureCount = 0
			b.successCount = 0
		}
	}
}

// RecordFailure registers a failed send against endpoint.
func (r *Registry) RecordFailure(endpoint string) {
	b := r.get(endpoint)
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case domain.BreakerClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.state = domain.BreakerOpen
			b.openedAt = time.Now()
		}
	case domain.BreakerHalfOpen:
		b.state = domain.BreakerOpen
		b.openedAt = time.Now()
		b.successCount = 0
	}
}

// State returns the current state of the breaker for endpoint, without
// mutating it (a closed breaker is implied for an endpoint never seen).
func (r *Registry) State(endpoint string) domain.BreakerStatus {
	b := r.get(endpoint)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns endpoint -> state for every endpoint the registry
// has observed, used by the orchestrator's get_status.
func (r *Registry) Snapshot() map[string]domain.BreakerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.BreakerStatus, len(r.breakers))
	for endpoint, b := range r.breakers {
		b.mu.Lock()
		out[endpoint] = b.state
		b.mu.Unlock()
	}
	return out
}
