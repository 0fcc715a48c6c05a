package orchestrator

import (
	"sync"

	"github.com/reqflux/reqflux/internal/domain"
)

// BatchCallback receives every item's terminal result once the whole
// batch it was submitted with has completed.
type BatchCallback func(results []domain.Result)

// batchTracker is the genuine completion signal Open Question (b)
// asks for: a set of outstanding item ids, shrunk as each one's
// terminal result is recorded, firing callback exactly once when the
// last one lands. The source this is grounded on instead busy-waits
// with no signal at all; a mutex-guarded set fixes that without
// polling.
type batchTracker struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	callback BatchCallback
	results  []domain.Result
	fired    bool
}

func newBatchTracker(itemIDs []string, callback BatchCallback) *batchTracker {
	pending := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		pending[id] = struct{}{}
	}
	return &batchTracker{pending: pending, callback: callback}
}

// complete records result as terminal for its item id. Once every id
// registered at construction has completed, the batch callback fires
// exactly once with every collected result.
func (t *batchTracker) complete(result domain.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.pending[result.ItemID]; !ok {
		return
	}
	delete(t.pending, result.ItemID)
	t.results = append(t.results, result)

	if len(t.pending) == 0 && !t.fired && t.callback != nil {
		t.fired = true
		results := append([]domain.Result(nil), t.results...)
		go t.callback(results)
	}
}
