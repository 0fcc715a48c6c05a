package orchestrator

import (
	"context"
	"time"

	"github.com/reqflux/reqflux/internal/domain"
	"github.com/reqflux/reqflux/internal/resilience"
)

// processItem runs the per-worker sequence (§4.H.2): breaker consult,
// retry loop against the transport, then success/failure disposition.
func (o *Orchestrator) processItem(ctx context.Context, item *domain.QueueItem) {
	endpoint := item.Built.Endpoint()

	if !o.breakers.Allow(endpoint) {
		o.finishFailure(item, "Circuit breaker open", 0)
		return
	}

	var lastErr error
	attempts := 0
	var resp *domain.Result

	for attempt := 0; attempt < o.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := o.retryPolicy.DelayBefore(attempt)
			if !resilience.WaitWithContext(ctx, delay) {
				lastErr = ctx.Err()
				break
			}
		}

		attempts++
		start := time.Now()
		sent, err := o.transport.Send(ctx, item.Built)
		duration := time.Since(start)

		if err != nil {
			lastErr = err
			o.breakers.RecordFailure(endpoint)
			continue
		}

		success := sent.StatusCode >= 200 && sent.StatusCode < 300
		result := domain.Result{
			ItemID:     item.ItemID,
			Success:    success,
			StatusCode: sent.StatusCode,
			Data:       string(sent.Body),
			Duration:   duration,
			Metadata:   item.Metadata,
			Priority:   item.Priority,
			Timestamp:  time.Now(),
		}

		if success {
			o.breakers.RecordSuccess(endpoint)
			resp = &result
			break
		}

		o.breakers.RecordFailure(endpoint)
		lastErr = &nonSuccessError{statusCode: sent.StatusCode}
	}

	if resp != nil {
		o.finishSuccess(item, *resp, attempts)
		return
	}

	reason := "All retry attempts failed"
	if lastErr != nil {
		reason = "All retry attempts failed: " + lastErr.Error()
	}
	o.finishFailure(item, reason, attempts)
}

type nonSuccessError struct{ statusCode int }

func (e *nonSuccessError) Error() string {
	return "non-success status"
}

func (o *Orchestrator) finishSuccess(item *domain.QueueItem, result domain.Result, attempts int) {
	o.queue.MarkCompleted(item.ItemID)

	if o.cfg.EnableCaching {
		o.cache.Set(item.ItemID, result)
	}

	o.collector.Increment("requests.completed", 1)
	o.collector.Increment("requests.success", 1)
	o.collector.RecordHistogram("requests.duration", result.Duration.Seconds())
	o.prom.ObserveOutcome("success", result.Duration.Seconds())

	o.deliver(item, result)
	o.recordHistory(item, result, attempts)
	o.postWebhook(item, result)
}

func (o *Orchestrator) finishFailure(item *domain.QueueItem, reason string, attempts int) {
	if err := o.queue.Requeue(item, reason); err != nil {
		o.collector.Increment("requests.requeue_failed", 1)
	}

	result := domain.Result{
		ItemID:    item.ItemID,
		Success:   false,
		Error:     reason,
		Metadata:  item.Metadata,
		Priority:  item.Priority,
		Timestamp: time.Now(),
	}

	o.collector.Increment("requests.failed", 1)
	o.prom.ObserveOutcome("failed", 0)

	o.deliver(item, result)
	o.recordHistory(item, result, attempts)
}

func (o *Orchestrator) deliver(item *domain.QueueItem, result domain.Result) {
	if item.Callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("callback panicked", "item_id", item.ItemID, "panic", r)
		}
	}()
	item.Callback(result)
}

func (o *Orchestrator) recordHistory(item *domain.QueueItem, result domain.Result, attempts int) {
	rec := domain.HistoryRecord{
		ItemID:    item.ItemID,
		Endpoint:  item.Built.Endpoint(),
		Priority:  item.Priority,
		Attempts:  attempts,
		Success:   result.Success,
		Error:     result.Error,
		Duration:  result.Duration,
		CreatedAt: time.Now(),
	}
	if err := o.history.Record(context.Background(), rec); err != nil {
		o.logger.Warn("history sink write failed", "item_id", item.ItemID, "error", err)
	}
}
