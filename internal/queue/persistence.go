package queue

import (
	"container/heap"
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/reqflux/reqflux/internal/domain"
)

func init() {
	// Descriptor.Body, Metadata, and JWTClaims hold interface{} values;
	// gob needs each concrete type found in them registered. These are
	// the types a JSON decode produces.
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register("")
	gob.Register(float64(0))
	gob.Register(true)
}

// snapshot is the opaque on-disk representation of a Manager: the
// queue snapshot, DLQ, statistics, and partition heaps, gob-encoded
// and written via the temp-file-then-rename discipline so a reader
// never observes a partial file.
type snapshot struct {
	Items           []persistedItem
	DLQ             []domain.DeadLetterEntry
	PartitionLimits map[string]int
	TotalEnqueued   int64
	TotalDequeued   int64
	TotalFailed     int64
	TotalExpired    int64
	PartitionCounts map[string]int64
	NextSeq         int64
}

type persistedItem struct {
	ItemID     string
	Priority   domain.Priority
	Partition  string
	EnqueuedAt time.Time
	RetryCount int
	Descriptor domain.RequestDescriptor
	Metadata   map[string]any
	Seq        int64
}

// Persist serializes the current queue state to cfg.PersistPath using
// a temp file followed by an atomic rename. A failure here is logged
// by the caller and never blocks queue operations (PersistenceError).
func (m *Manager) Persist() error {
	if m.cfg.PersistPath == "" {
		return nil
	}

	m.mu.Lock()
	snap := snapshot{
		DLQ:             append([]domain.DeadLetterEntry(nil), m.dlq...),
		PartitionLimits: copyIntMap(m.partitionLimits),
		TotalEnqueued:   m.totalEnqueued,
		TotalDequeued:   m.totalDequeued,
		TotalFailed:     m.totalFailed,
		TotalExpired:    m.totalExpired,
		PartitionCounts: copyInt64Map(m.partitionCounts),
		NextSeq:         m.nextSeq,
	}
	snap.Items = make([]persistedItem, 0, len(m.main))
	for _, item := range m.main {
		descriptor := item.Descriptor
		if descriptor.Auth != nil && descriptor.Auth.CustomHandler != nil {
			// Closures cannot survive a restart (gob skips func-typed
			// fields), so the handler is cleared on the persisted copy.
			authCopy := *descriptor.Auth
			authCopy.CustomHandler = nil
			descriptor.Auth = &authCopy
		}
		snap.Items = append(snap.Items, persistedItem{
			ItemID:     item.ItemID,
			Priority:   item.Priority,
			Partition:  item.Partition,
			EnqueuedAt: item.EnqueuedAt,
			RetryCount: item.RetryCount,
			Descriptor: descriptor,
			Metadata:   item.Metadata,
			Seq:        item.Seq(),
		})
	}
	m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.cfg.PersistPath), 0o755); err != nil {
		return err
	}

	tmpPath := m.cfg.PersistPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, m.cfg.PersistPath)
}

// Load restores queue state from cfg.PersistPath, reheapifying the
// global and partition heaps. A missing file is not an error.
func (m *Manager) Load() error {
	if m.cfg.PersistPath == "" {
		return nil
	}
	f, err := os.Open(m.cfg.PersistPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.main = make(itemHeap, 0, len(snap.Items))
	m.items = make(map[string]*domain.QueueItem, len(snap.Items))
	m.partitions = make(map[string]*itemHeap)
	m.partitionCounts = copyInt64Map(snap.PartitionCounts)
	m.partitionLimits = copyIntMap(snap.PartitionLimits)
	m.dlq = append([]domain.DeadLetterEntry(nil), snap.DLQ...)
	m.totalEnqueued = snap.TotalEnqueued
	m.totalDequeued = snap.TotalDequeued
	m.totalFailed = snap.TotalFailed
	m.totalExpired = snap.TotalExpired
	m.nextSeq = snap.NextSeq

	for _, pi := range snap.Items {
		item := &domain.QueueItem{
			ItemID:     pi.ItemID,
			Priority:   pi.Priority,
			Partition:  pi.Partition,
			EnqueuedAt: pi.EnqueuedAt,
			RetryCount: pi.RetryCount,
			Descriptor: pi.Descriptor,
			Metadata:   pi.Metadata,
		}
		item.SetSeq(pi.Seq)
		m.main = append(m.main, item)
		m.items[item.ItemID] = item

		if item.Partition != "" {
			ph, ok := m.partitions[item.Partition]
			if !ok {
				ph = &itemHeap{}
				m.partitions[item.Partition] = ph
			}
			*ph = append(*ph, item)
		}
	}
	heap.Init(&m.main)
	for _, ph := range m.partitions {
		heap.Init(ph)
	}

	m.logger.Info("loaded queue from persistent storage", "items", len(m.main))
	return nil
}

func copyIntMap(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyInt64Map(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
