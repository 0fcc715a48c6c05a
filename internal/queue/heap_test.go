package queue

import (
	"container/heap"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/reqflux/reqflux/internal/domain"
)

func TestItemHeap_OrdersByPriorityThenSeq(t *testing.T) {
	h := &itemHeap{}
	heap.Init(h)

	items := []*domain.QueueItem{
		{ItemID: "low", Priority: domain.PriorityLow},
		{ItemID: "critical-2", Priority: domain.PriorityCritical},
		{ItemID: "critical-1", Priority: domain.PriorityCritical},
	}
	items[1].SetSeq(5)
	items[2].SetSeq(1)
	for _, it := range items {
		heap.Push(h, it)
	}

	first := heap.Pop(h).(*domain.QueueItem)
	second := heap.Pop(h).(*domain.QueueItem)
	third := heap.Pop(h).(*domain.QueueItem)

	assert.Equal(t, "critical-1", first.ItemID)
	assert.Equal(t, "critical-2", second.ItemID)
	assert.Equal(t, "low", third.ItemID)
}

func TestIndexOf_FindsAndMisses(t *testing.T) {
	h := itemHeap{{ItemID: "a"}, {ItemID: "b"}}
	assert.Equal(t, 1, indexOf(h, "b"))
	assert.Equal(t, -1, indexOf(h, "z"))
}

func TestRemoveItem_PreservesHeapInvariant(t *testing.T) {
	h := &itemHeap{}
	heap.Init(h)
	for i, id := range []string{"a", "b", "c"} {
		it := &domain.QueueItem{ItemID: id, Priority: domain.PriorityNormal}
		it.SetSeq(int64(i))
		heap.Push(h, it)
	}

	idx := indexOf(*h, "b")
	removeItem(h, idx)

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, -1, indexOf(*h, "b"))
}

func TestNSmallest_ReturnsOrderedWithoutMutating(t *testing.T) {
	h := itemHeap{}
	for i, id := range []string{"c", "a", "b"} {
		it := &domain.QueueItem{ItemID: id, Priority: domain.PriorityNormal, EnqueuedAt: time.Now()}
		it.SetSeq(int64(i))
		h = append(h, it)
	}
	heap.Init(&h)

	top2 := nSmallest(h, 2)
	assert.Len(t, top2, 2)
	assert.Equal(t, 3, h.Len())
}

func TestNSmallest_ClampsToLength(t *testing.T) {
	h := itemHeap{{ItemID: "a"}}
	heap.Init(&h)
	out := nSmallest(h, 10)
	assert.Len(t, out, 1)
}

func TestNSmallest_ZeroOrEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, nSmallest(itemHeap{{ItemID: "a"}}, 0))
	assert.Nil(t, nSmallest(itemHeap{}, 5))
}
