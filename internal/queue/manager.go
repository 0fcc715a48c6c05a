// Package queue implements the priority Queue Manager (component
// 4.E): a min-heap ordered by (priority, enqueue sequence), a bounded
// dead-letter queue, optional partitions, and optional persistence.
package queue

import (
	"container/heap"
	"log/slog"
	"sync"
	"time"

	"github.com/reqflux/reqflux/internal/domain"
)

const (
	defaultCapacity    = 1000
	defaultDLQCapacity = 100
	defaultExpiry      = time.Hour
)

// Config tunes a Manager's capacity and expiry horizon.
type Config struct {
	Capacity    int
	DLQCapacity int
	Expiry      time.Duration
	PersistPath string
}

// DefaultConfig returns the documented defaults: capacity 1000 (an
// implementation choice left open by the spec; the queue-full
// invariant is what matters, not the specific number), DLQ capacity
// 100, expiry horizon 3600s.
func DefaultConfig() Config {
	return Config{Capacity: defaultCapacity, DLQCapacity: defaultDLQCapacity, Expiry: defaultExpiry}
}

// Stats is a point-in-time snapshot of queue counters, mirroring the
// original's get_stats().
type Stats struct {
	TotalEnqueued    int64
	TotalDequeued    int64
	TotalFailed      int64
	TotalExpired     int64
	CurrentSize      int
	DLQSize          int
	ProcessingCount  int
	Partitions       map[string]int
	PartitionCounts  map[string]int64
	OldestItemAgeSec float64
	HasOldestItem    bool
}

// Manager is the mutually-exclusive owner of the live queue state: the
// global heap, per-partition heaps sharing the same item pointers, the
// in-flight set, and the DLQ. Every exported operation is serialized
// under a single mutex.
type Manager struct {
	logger *slog.Logger
	cfg    Config

	mu              sync.Mutex
	main            itemHeap
	partitions      map[string]*itemHeap
	partitionLimits map[string]int
	items           map[string]*domain.QueueItem
	inFlight        map[string]time.Time
	dlq             []domain.DeadLetterEntry

	nextSeq int64

	totalEnqueued   int64
	totalDequeued   int64
	totalFailed     int64
	totalExpired    int64
	partitionCounts map[string]int64
}

// NewManager builds an empty Manager. If cfg.PersistPath is set, the
// caller should follow up with Load to restore a prior snapshot.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultCapacity
	}
	if cfg.DLQCapacity <= 0 {
		cfg.DLQCapacity = defaultDLQCapacity
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = defaultExpiry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:          logger,
		cfg:             cfg,
		partitions:      make(map[string]*itemHeap),
		partitionLimits: make(map[string]int),
		items:           make(map[string]*domain.QueueItem),
		inFlight:        make(map[string]time.Time),
		partitionCounts: make(map[string]int64),
	}
}

// Add inserts item into the global heap and, if it carries a partition
// tag, into that partition's own heap as well — both heaps hold the
// same *domain.QueueItem pointer, inserted exactly once per structure.
func (m *Manager) Add(item *domain.QueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.main) >= m.cfg.Capacity {
		m.sweepExpiredLocked()
		if len(m.main) >= m.cfg.Capacity {
			return ErrQueueFull
		}
	}

	if item.Partition != "" {
		if limit, ok := m.partitionLimits[item.Partition]; ok {
			if int(m.partitionCounts[item.Partition]) >= limit {
				return ErrPartitionFull
			}
		}
	}

	item.SetSeq(m.nextSeq)
	m.nextSeq++

	heap.Push(&m.main, item)
	m.items[item.ItemID] = item

	if item.Partition != "" {
		ph, ok := m.partitions[item.Partition]
		if !ok {
			ph = &itemHeap{}
			heap.Init(ph)
			m.partitions[item.Partition] = ph
		}
		heap.Push(ph, item)
		m.partitionCounts[item.Partition]++
	}

	m.totalEnqueued++
	return nil
}

// Get pops the highest-priority live item, optionally scoped to a
// partition. Items older than the expiry horizon are discarded and
// counted expired rather than returned; the search continues to the
// next item. Returns (nil, nil) when nothing eligible is queued.
func (m *Manager) Get(partition string) (*domain.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := &m.main
	usingPartition := false
	if partition != "" {
		ph, ok := m.partitions[partition]
		if !ok {
			return nil, nil
		}
		target = ph
		usingPartition = true
	}

	for target.Len() > 0 {
		item := heap.Pop(target).(*domain.QueueItem)

		if usingPartition {
			m.partitionCounts[partition]--
			if i := indexOf(m.main, item.ItemID); i >= 0 {
				removeItem(&m.main, i)
			}
		} else if item.Partition != "" {
			if ph, ok := m.partitions[item.Partition]; ok {
				if i := indexOf(*ph, item.ItemID); i >= 0 {
					removeItem(ph, i)
				}
				m.partitionCounts[item.Partition]--
			}
		}

		if time.Since(item.EnqueuedAt) > m.cfg.Expiry {
			m.totalExpired++
			delete(m.items, item.ItemID)
			continue
		}

		delete(m.items, item.ItemID)
		m.inFlight[item.ItemID] = time.Now()
		m.totalDequeued++
		return item, nil
	}
	return nil, nil
}

// Peek returns the n smallest live items by dequeue order, without
// removing them.
func (m *Manager) Peek(n int) []*domain.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return nSmallest(m.main, n)
}

// Remove excises item_id from every structure it may appear in:
// the global heap, its partition heap, and in-flight tracking.
func (m *Manager) Remove(itemID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(itemID)
}

func (m *Manager) removeLocked(itemID string) bool {
	item, ok := m.items[itemID]
	if !ok {
		if _, inFlight := m.inFlight[itemID]; inFlight {
			delete(m.inFlight, itemID)
			return true
		}
		return false
	}

	if i := indexOf(m.main, itemID); i >= 0 {
		removeItem(&m.main, i)
	}
	if item.Partition != "" {
		if ph, ok := m.partitions[item.Partition]; ok {
			if i := indexOf(*ph, itemID); i >= 0 {
				removeItem(ph, i)
				m.partitionCounts[item.Partition]--
			}
		}
	}
	delete(m.items, itemID)
	delete(m.inFlight, itemID)
	return true
}

// MarkCompleted clears in-flight tracking for an item that reached a
// terminal outcome (success, or failure that did not requeue).
func (m *Manager) MarkCompleted(itemID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, itemID)
}

// Requeue increments item's retry count; past three retries it is
// promoted to the DLQ with reason, otherwise it is reinserted at
// min(priority+1, LOW).
func (m *Manager) Requeue(item *domain.QueueItem, reason string) error {
	m.mu.Lock()
	delete(m.inFlight, item.ItemID)
	m.mu.Unlock()

	item.RetryCount++
	if item.RetryCount > 3 {
		return m.AddToDLQ(domain.DeadLetterEntry{
			Descriptor: item.Descriptor,
			ItemID:     item.ItemID,
			Reason:     "Max retries exceeded: " + reason,
			AdmittedAt: time.Now(),
			Priority:   item.Priority,
			Partition:  item.Partition,
			Metadata:   item.Metadata,
		})
	}

	item.Priority = item.Priority.Demote()
	item.EnqueuedAt = time.Now()
	return m.Add(item)
}

// AddToDLQ admits entry to the bounded FIFO dead-letter queue, evicting
// the oldest entry on overflow.
func (m *Manager) AddToDLQ(entry domain.DeadLetterEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.dlq) >= m.cfg.DLQCapacity {
		m.dlq = m.dlq[1:]
	}
	m.dlq = append(m.dlq, entry)
	m.totalFailed++
	m.logger.Warn("item moved to dead-letter queue", "item_id", entry.ItemID, "reason", entry.Reason)
	return nil
}

// DLQItems returns a copy of the current dead-letter queue.
func (m *Manager) DLQItems() []domain.DeadLetterEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DeadLetterEntry, len(m.dlq))
	copy(out, m.dlq)
	return out
}

// ReplayDLQItem removes the entry at index from the DLQ and
// re-enqueues it at NORMAL priority with retry count reset.
func (m *Manager) ReplayDLQItem(index int) (*domain.QueueItem, error) {
	m.mu.Lock()
	if index < 0 || index >= len(m.dlq) {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	entry := m.dlq[index]
	m.dlq = append(m.dlq[:index], m.dlq[index+1:]...)
	m.mu.Unlock()

	item := &domain.QueueItem{
		ItemID:     entry.ItemID,
		Priority:   domain.PriorityNormal,
		Partition:  entry.Partition,
		EnqueuedAt: time.Now(),
		RetryCount: 0,
		Descriptor: entry.Descriptor,
		Metadata:   entry.Metadata,
	}
	if err := m.Add(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Size returns the number of live items in the global heap.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.main)
}

// PartitionSize returns the number of live items tagged with
// partition.
func (m *Manager) PartitionSize(partition string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ph, ok := m.partitions[partition]; ok {
		return ph.Len()
	}
	return 0
}

// SetPartitionLimit sets the maximum live occupancy for partition.
func (m *Manager) SetPartitionLimit(partition string, limit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partitionLimits[partition] = limit
}

// InFlightCount returns the number of items currently checked out to
// a worker.
func (m *Manager) InFlightCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inFlight)
}

// StuckInFlight returns item ids that have been in-flight longer than
// maxAge, used by the Monitor Facade's stuck-request detection.
func (m *Manager) StuckInFlight(maxAge time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var stuck []string
	for id, startedAt := range m.inFlight {
		if now.Sub(startedAt) > maxAge {
			stuck = append(stuck, id)
		}
	}
	return stuck
}

// Clear empties the global and partition heaps and the live, in-flight
// and partition-occupancy tracking. The DLQ, partition limits and
// cumulative counters are kept.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.main = nil
	m.partitions = make(map[string]*itemHeap)
	m.partitionCounts = make(map[string]int64)
	m.items = make(map[string]*domain.QueueItem)
	m.inFlight = make(map[string]time.Time)
}

// Stats returns a snapshot of queue counters and occupancy.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	partitions := make(map[string]int, len(m.partitions))
	for name, ph := range m.partitions {
		partitions[name] = ph.Len()
	}
	partitionCounts := make(map[string]int64, len(m.partitionCounts))
	for k, v := range m.partitionCounts {
		partitionCounts[k] = v
	}

	st := Stats{
		TotalEnqueued:   m.totalEnqueued,
		TotalDequeued:   m.totalDequeued,
		TotalFailed:     m.totalFailed,
		TotalExpired:    m.totalExpired,
		CurrentSize:     len(m.main),
		DLQSize:         len(m.dlq),
		ProcessingCount: len(m.inFlight),
		Partitions:      partitions,
		PartitionCounts: partitionCounts,
	}
	if len(m.main) > 0 {
		oldest := m.main[0].EnqueuedAt
		for _, it := range m.main {
			if it.EnqueuedAt.Before(oldest) {
				oldest = it.EnqueuedAt
			}
		}
		st.OldestItemAgeSec = time.Since(oldest).Seconds()
		st.HasOldestItem = true
	}
	return st
}

// ExportedMetrics is the snapshot ExportMetrics returns: priority and
// age-bucket distributions over the live queue, throughput counters,
// and per-partition occupancy.
type ExportedMetrics struct {
	Size                int
	CapacityUsed        float64
	PriorityDistribution map[string]int
	AgeDistribution      map[string]int
	DLQSize              int
	ProcessingCount      int
	TotalEnqueued        int64
	TotalDequeued        int64
	TotalFailed          int64
	TotalExpired         int64
	PartitionMetrics     map[string]PartitionMetric
}

// PartitionMetric is one partition's occupancy/limit entry in
// ExportedMetrics. TotalProcessed carries the partition's live
// occupancy counter (incremented on Add, decremented when an item
// leaves the partition), not a cumulative count of processed items.
type PartitionMetric struct {
	Size           int
	Limit          int
	HasLimit       bool
	TotalProcessed int64
}

func (m *Manager) ExportMetrics() ExportedMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	priorityDist := map[string]int{}
	ageDist := map[string]int{"<1m": 0, "1-5m": 0, "5-30m": 0, ">30m": 0}
	now := time.Now()

	for _, item := range m.main {
		priorityDist[item.Priority.String()]++
		age := now.Sub(item.EnqueuedAt)
		switch {
		case age < time.Minute:
			ageDist["<1m"]++
		case age < 5*time.Minute:
			ageDist["1-5m"]++
		case age < 30*time.Minute:
			ageDist["5-30m"]++
		default:
			ageDist[">30m"]++
		}
	}

	partitionMetrics := make(map[string]PartitionMetric, len(m.partitions))
	for name, ph := range m.partitions {
		limit, hasLimit := m.partitionLimits[name]
		partitionMetrics[name] = PartitionMetric{
			Size:           ph.Len(),
			Limit:          limit,
			HasLimit:       hasLimit,
			TotalProcessed: m.partitionCounts[name],
		}
	}

	capacityUsed := 0.0
	if m.cfg.Capacity > 0 {
		capacityUsed = float64(len(m.main)) / float64(m.cfg.Capacity)
	}

	return ExportedMetrics{
		Size:                 len(m.main),
		CapacityUsed:         capacityUsed,
		PriorityDistribution: priorityDist,
		AgeDistribution:      ageDist,
		DLQSize:              len(m.dlq),
		ProcessingCount:      len(m.inFlight),
		TotalEnqueued:        m.totalEnqueued,
		TotalDequeued:        m.totalDequeued,
		TotalFailed:          m.totalFailed,
		TotalExpired:         m.totalExpired,
		PartitionMetrics:     partitionMetrics,
	}
}

// sweepExpiredLocked removes every item past the expiry horizon from
// the global heap and any partition heap it belongs to. Called with m
// already locked. Permitted as a periodic sweep per design note (d):
// expiry is otherwise only checked on pop.
func (m *Manager) sweepExpiredLocked() {
	now := time.Now()
	var expired []string
	for _, item := range m.main {
		if now.Sub(item.EnqueuedAt) > m.cfg.Expiry {
			expired = append(expired, item.ItemID)
		}
	}
	for _, id := range expired {
		m.removeLocked(id)
		m.totalExpired++
	}
}

// Sweep runs an expiry sweep outside of Add, for the orchestrator's
// periodic maintenance tasks.
func (m *Manager) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepExpiredLocked()
}

var _ = heap.Interface(&itemHeap{})
