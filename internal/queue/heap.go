package queue

import (
	"container/heap"

	"github.com/reqflux/reqflux/internal/domain"
)

// itemHeap orders QueueItems by (priority, enqueue sequence): lower
// priority value first, ties broken by earlier sequence (FIFO within
// a priority level). It implements container/heap.Interface.
type itemHeap []*domain.QueueItem

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].Seq() < h[j].Seq()
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) {
	*h = append(*h, x.(*domain.QueueItem))
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// removeItem removes the item at index i from h, preserving the heap
// invariant. Used by Remove and by partition/expiry cleanup where an
// item must be excised from the middle of the heap.
func removeItem(h *itemHeap, i int) {
	heap.Remove(h, i)
}

// indexOf returns the index of the item with the given id, or -1.
func indexOf(h itemHeap, itemID string) int {
	for i, it := range h {
		if it.ItemID == itemID {
			return i
		}
	}
	return -1
}

// nSmallest returns the n smallest items in h by heap order, without
// mutating h. O(n log n) via a throwaway copy.
func nSmallest(h itemHeap, n int) []*domain.QueueItem {
	if n <= 0 || len(h) == 0 {
		return nil
	}
	cp := make(itemHeap, len(h))
	copy(cp, h)
	heap.Init(&cp)

	if n > len(cp) {
		n = len(cp)
	}
	out := make([]*domain.QueueItem, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, heap.Pop(&cp).(*domain.QueueItem))
	}
	return out
}
