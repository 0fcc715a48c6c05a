package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqflux/reqflux/internal/builder"
	"github.com/reqflux/reqflux/internal/domain"
	"github.com/reqflux/reqflux/internal/queue"
	"github.com/reqflux/reqflux/internal/transport"
)

func newTestOrchestrator(handler func(*domain.BuiltRequest) (*transport.Response, error)) (*Orchestrator, *fakeTransport) {
	cfg := testConfig()
	cfg.RetryCount = 2
	ft := &fakeTransport{handler: handler}
	o := New(cfg, queue.NewManager(queue.DefaultConfig(), nil), ft, builder.New(nil), nil)
	return o, ft
}

func buildItem(t *testing.T, o *Orchestrator, url string, callback domain.ResultCallback) *domain.QueueItem {
	t.Helper()
	built, err := o.builder.Build(domain.RequestDescriptor{URL: url})
	require.NoError(t, err)
	return &domain.QueueItem{ItemID: queue.Fingerprint(domain.RequestDescriptor{URL: url}), Built: built, Callback: callback, Priority: domain.PriorityNormal}
}

func TestProcessItem_SuccessDeliversResultAndRecordsMetrics(t *testing.T) {
	o, ft := newTestOrchestrator(alwaysOK)
	var got domain.Result
	item := buildItem(t, o, "https://example.com/ok", func(r domain.Result) { got = r })

	o.processItem(context.Background(), item)

	assert.True(t, got.Success)
	assert.Equal(t, 1, ft.calls())
	assert.Equal(t, float64(1), o.collector.Counter("requests.completed"))
}

func TestProcessItem_RetriesOnFailureThenSucceeds(t *testing.T) {
	attempt := 0
	handler := func(req *domain.BuiltRequest) (*transport.Response, error) {
		attempt++
		if attempt < 2 {
			return &transport.Response{StatusCode: 500}, nil
		}
		return &transport.Response{StatusCode: 200}, nil
	}
	o, ft := newTestOrchestrator(handler)
	var got domain.Result
	item := buildItem(t, o, "https://example.com/flaky", func(r domain.Result) { got = r })

	o.processItem(context.Background(), item)

	assert.True(t, got.Success)
	assert.Equal(t, 2, ft.calls())
}

func TestProcessItem_ExhaustsRetriesAndRequeues(t *testing.T) {
	handler := func(req *domain.BuiltRequest) (*transport.Response, error) {
		return nil, errors.New("connection refused")
	}
	o, _ := newTestOrchestrator(handler)
	var got domain.Result
	item := buildItem(t, o, "https://example.com/down", func(r domain.Result) { got = r })

	o.processItem(context.Background(), item)

	assert.False(t, got.Success)
	assert.Equal(t, 1, item.RetryCount)
	assert.Equal(t, float64(1), o.collector.Counter("requests.failed"))
}

func TestProcessItem_CircuitOpenSkipsTransport(t *testing.T) {
	o, ft := newTestOrchestrator(alwaysOK)
	item := buildItem(t, o, "https://example.com/blocked", nil)

	for i := 0; i < 10; i++ {
		o.breakers.RecordFailure(item.Built.Endpoint())
	}

	o.processItem(context.Background(), item)
	assert.Equal(t, 0, ft.calls())
}

func TestProcessItem_CallbackPanicIsIsolated(t *testing.T) {
	o, _ := newTestOrchestrator(alwaysOK)
	item := buildItem(t, o, "https://example.com/panics", func(domain.Result) { panic("boom") })

	assert.NotPanics(t, func() { o.processItem(context.Background(), item) })
}

func TestProcessItem_SuccessCachesResultWhenCachingEnabled(t *testing.T) {
	o, _ := newTestOrchestrator(alwaysOK)
	item := buildItem(t, o, "https://example.com/cacheme", nil)

	o.processItem(context.Background(), item)

	_, ok := o.cache.Get(item.ItemID)
	assert.True(t, ok)
}

func TestProcessItem_WaitWithContextCanceledDuringRetryAbortsEarly(t *testing.T) {
	handler := func(req *domain.BuiltRequest) (*transport.Response, error) {
		return nil, errors.New("fail")
	}
	o, ft := newTestOrchestrator(handler)
	o.cfg.RetryDelay = time.Hour
	o.retryPolicy.BaseDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	item := buildItem(t, o, "https://example.com/cancelled", nil)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	o.processItem(ctx, item)

	assert.LessOrEqual(t, ft.calls(), 1)
}
