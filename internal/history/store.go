// Package history implements the optional History Sink (component
// 4.K): a fire-and-forget audit trail of terminal outcomes, never
// consulted by the hot path. The config loader selects the in-memory
// ring by default; backend "none" selects NoopStore.
package history

import (
	"context"

	"github.com/reqflux/reqflux/internal/domain"
)

// Store persists HistoryRecords. Implementations must treat write
// failures as logged-only (HistorySinkError disposition, §7); the
// orchestrator never blocks or retries on a Store error beyond what
// the implementation itself logs.
type Store interface {
	Record(ctx context.Context, rec domain.HistoryRecord) error
	Close() error
}

// NoopStore discards every record; the default when no sink is
// configured.
type NoopStore struct{}

func (NoopStore) Record(context.Context, domain.HistoryRecord) error { return nil }
func (NoopStore) Close() error                                       { return nil }
