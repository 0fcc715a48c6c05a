package resilience

import "errors"

// ErrCircuitOpen names a send rejected because the endpoint's breaker
// is open. The orchestrator does not return it: it reports the
// rejection as the result error "Circuit breaker open" and skips the
// retry loop, so no transport attempt is spent.
var ErrCircuitOpen = errors.New("circuit breaker open")

// ErrRetriesExhausted names the outcome of retry_count failed attempts.
// The orchestrator does not return or wrap it: it reports the outcome
// as the result error "All retry attempts failed: <last error>".
var ErrRetriesExhausted = errors.New("all retry attempts failed")
