package history

import (
	"context"
	"sync"

	"github.com/reqflux/reqflux/internal/domain"
)

const defaultRingCapacity = 1000

// MemoryStore is a bounded ring buffer, the same bounded-FIFO
// discipline the DLQ uses — a process-local audit trail with no
// durability guarantee across restarts.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	records  []domain.HistoryRecord
}

// NewMemoryStore builds a ring holding up to capacity records (0 uses
// the default of 1000).
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultRingCapacity
	}
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) Record(_ context.Context, rec domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) >= s.capacity {
		s.records = s.records[1:]
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Records returns a copy of the current ring contents, oldest first.
func (s *MemoryStore) Records() []domain.HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.HistoryRecord, len(s.records))
	copy(out, s.records)
	return out
}
