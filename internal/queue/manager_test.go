package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqflux/reqflux/internal/domain"
)

func newItem(id string, p domain.Priority) *domain.QueueItem {
	return &domain.QueueItem{ItemID: id, Priority: p, EnqueuedAt: time.Now()}
}

func TestManager_GetOrdersByPriorityThenFIFO(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)

	require.NoError(t, m.Add(newItem("low", domain.PriorityLow)))
	require.NoError(t, m.Add(newItem("critical", domain.PriorityCritical)))
	require.NoError(t, m.Add(newItem("normal-1", domain.PriorityNormal)))
	require.NoError(t, m.Add(newItem("normal-2", domain.PriorityNormal)))

	order := []string{}
	for i := 0; i < 4; i++ {
		item, err := m.Get("")
		require.NoError(t, err)
		order = append(order, item.ItemID)
	}
	assert.Equal(t, []string{"critical", "normal-1", "normal-2", "low"}, order)
}

func TestManager_GetOnEmptyQueueReturnsNilNil(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	item, err := m.Get("")
	assert.NoError(t, err)
	assert.Nil(t, item)
}

func TestManager_AddRejectsWhenQueueFull(t *testing.T) {
	m := NewManager(Config{Capacity: 1, DLQCapacity: 10, Expiry: time.Hour}, nil)
	require.NoError(t, m.Add(newItem("a", domain.PriorityNormal)))
	err := m.Add(newItem("b", domain.PriorityNormal))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestManager_AddSweepsExpiredBeforeRejecting(t *testing.T) {
	m := NewManager(Config{Capacity: 1, DLQCapacity: 10, Expiry: time.Millisecond}, nil)
	expired := newItem("old", domain.PriorityNormal)
	expired.EnqueuedAt = time.Now().Add(-time.Hour)
	require.NoError(t, m.Add(expired))

	require.NoError(t, m.Add(newItem("new", domain.PriorityNormal)))
	assert.Equal(t, 1, m.Size())
}

func TestManager_PartitionLimitEnforced(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	m.SetPartitionLimit("tenant-a", 1)

	a := newItem("a1", domain.PriorityNormal)
	a.Partition = "tenant-a"
	require.NoError(t, m.Add(a))

	b := newItem("a2", domain.PriorityNormal)
	b.Partition = "tenant-a"
	assert.ErrorIs(t, m.Add(b), ErrPartitionFull)
}

func TestManager_GetScopedToPartitionLeavesOthersInMain(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	a := newItem("a", domain.PriorityNormal)
	a.Partition = "p1"
	b := newItem("b", domain.PriorityNormal)
	require.NoError(t, m.Add(a))
	require.NoError(t, m.Add(b))

	got, err := m.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ItemID)
	assert.Equal(t, 1, m.Size())
	assert.Equal(t, 0, m.PartitionSize("p1"))
}

func TestManager_ExpiredItemSkippedAndCounted(t *testing.T) {
	m := NewManager(Config{Capacity: 10, DLQCapacity: 10, Expiry: time.Millisecond}, nil)
	expired := newItem("old", domain.PriorityCritical)
	expired.EnqueuedAt = time.Now().Add(-time.Hour)
	fresh := newItem("fresh", domain.PriorityLow)

	require.NoError(t, m.Add(expired))
	require.NoError(t, m.Add(fresh))

	item, err := m.Get("")
	require.NoError(t, err)
	assert.Equal(t, "fresh", item.ItemID)
	assert.Equal(t, int64(1), m.Stats().TotalExpired)
}

func TestManager_RequeueDemotesPriorityAndReinserts(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	item := newItem("a", domain.PriorityHigh)
	require.NoError(t, m.Add(item))
	got, err := m.Get("")
	require.NoError(t, err)

	require.NoError(t, m.Requeue(got, "transient failure"))
	assert.Equal(t, domain.PriorityNormal, got.Priority)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, 1, m.Size())
}

func TestManager_RequeuePastThreeRetriesGoesToDLQ(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	item := newItem("a", domain.PriorityLow)
	item.RetryCount = 3
	require.NoError(t, m.Add(item))
	got, err := m.Get("")
	require.NoError(t, err)

	require.NoError(t, m.Requeue(got, "fatal"))
	assert.Len(t, m.DLQItems(), 1)
}

func TestManager_DLQIsBoundedFIFO(t *testing.T) {
	m := NewManager(Config{Capacity: 100, DLQCapacity: 2, Expiry: time.Hour}, nil)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.AddToDLQ(domain.DeadLetterEntry{ItemID: id}))
	}
	dlq := m.DLQItems()
	require.Len(t, dlq, 2)
	assert.Equal(t, "b", dlq[0].ItemID)
	assert.Equal(t, "c", dlq[1].ItemID)
}

func TestManager_ReplayDLQItemReenqueuesAtNormal(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	require.NoError(t, m.AddToDLQ(domain.DeadLetterEntry{ItemID: "a", Priority: domain.PriorityLow}))

	item, err := m.ReplayDLQItem(0)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityNormal, item.Priority)
	assert.Empty(t, m.DLQItems())
	assert.Equal(t, 1, m.Size())
}

func TestManager_ReplayDLQItemOutOfRangeFails(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	_, err := m.ReplayDLQItem(0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_RemoveClearsLiveAndInFlight(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	require.NoError(t, m.Add(newItem("a", domain.PriorityNormal)))
	assert.True(t, m.Remove("a"))
	assert.False(t, m.Remove("a"))
}

func TestManager_MarkCompletedClearsInFlight(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	require.NoError(t, m.Add(newItem("a", domain.PriorityNormal)))
	_, err := m.Get("")
	require.NoError(t, err)
	assert.Equal(t, 1, m.InFlightCount())

	m.MarkCompleted("a")
	assert.Equal(t, 0, m.InFlightCount())
}

func TestManager_StuckInFlightDetectsOldEntries(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	require.NoError(t, m.Add(newItem("a", domain.PriorityNormal)))
	_, err := m.Get("")
	require.NoError(t, err)

	assert.Empty(t, m.StuckInFlight(time.Hour))
	assert.Equal(t, []string{"a"}, m.StuckInFlight(-time.Second))
}

func TestManager_PeekDoesNotRemove(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	require.NoError(t, m.Add(newItem("a", domain.PriorityNormal)))

	peeked := m.Peek(5)
	assert.Len(t, peeked, 1)
	assert.Equal(t, 1, m.Size())
}

func TestManager_ClearEmptiesEverything(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	require.NoError(t, m.Add(newItem("a", domain.PriorityNormal)))
	m.Clear()
	assert.Equal(t, 0, m.Size())
}

func TestManager_ExportMetricsBucketsByPriorityAndAge(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	require.NoError(t, m.Add(newItem("a", domain.PriorityHigh)))

	metrics := m.ExportMetrics()
	assert.Equal(t, 1, metrics.PriorityDistribution["HIGH"])
	assert.Equal(t, 1, metrics.AgeDistribution["<1m"])
}

func TestManager_SweepRemovesOnlyExpired(t *testing.T) {
	m := NewManager(Config{Capacity: 100, DLQCapacity: 10, Expiry: time.Millisecond}, nil)
	old := newItem("old", domain.PriorityNormal)
	old.EnqueuedAt = time.Now().Add(-time.Hour)
	require.NoError(t, m.Add(old))

	m.Sweep()
	assert.Equal(t, 0, m.Size())
	assert.Equal(t, int64(1), m.Stats().TotalExpired)
}
