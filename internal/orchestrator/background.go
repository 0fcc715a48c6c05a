package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/reqflux/reqflux/internal/domain"
)

func (o *Orchestrator) cacheSweepLoop(ctx context.Context) {
	defer o.wg.Done()
	interval := o.cfg.CacheSweepInterval
	if interval <= 0 {
		interval = 300 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := o.cache.Sweep()
			if removed > 0 {
				o.logger.Debug("cache sweep removed expired entries", "count", removed)
			}
			o.queue.Sweep()
		}
	}
}

func (o *Orchestrator) monitorTickLoop(ctx context.Context) {
	defer o.wg.Done()
	interval := o.cfg.MonitorTickInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			size := o.queue.Size()
			if size > 500 {
				o.logger.Warn("queue size above warning threshold", "size", size)
			}

			completed := o.collector.Counter("requests.completed")
			failed := o.collector.Counter("requests.failed")
			if completed+failed > 0 {
				errorRate := failed / (completed + failed)
				if errorRate > 0.10 {
					o.logger.Warn("error rate above warning threshold", "error_rate", errorRate)
				}
				o.alerts.CheckMetric("requests.failure_rate", errorRate)
			}

			o.prom.SetQueueSize(size)
			o.prom.SetCacheSize(o.cache.Len())

			open := 0
			for _, state := range o.breakers.Snapshot() {
				if state == domain.BreakerOpen {
					open++
				}
			}
			o.prom.SetOpenCircuits(open)
		}
	}
}

type healthSnapshot struct {
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
	QueueSize    int       `json:"queue_size"`
	CacheSize    int       `json:"cache_size"`
	OpenCircuits int       `json:"open_circuits"`
}

func (o *Orchestrator) healthSnapshotLoop(ctx context.Context) {
	defer o.wg.Done()
	interval := o.cfg.HealthSnapshotInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.writeHealthSnapshot()
		}
	}
}

func (o *Orchestrator) writeHealthSnapshot() {
	open := 0
	for _, state := range o.breakers.Snapshot() {
		if state == domain.BreakerOpen {
			open++
		}
	}

	snap := healthSnapshot{
		Timestamp:    time.Now(),
		Status:       o.alerts.HealthStatus(),
		QueueSize:    o.queue.Size(),
		CacheSize:    o.cache.Len(),
		OpenCircuits: open,
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		o.logger.Warn("health snapshot marshal failed", "error", err)
		return
	}

	tmpPath := o.cfg.HealthSnapshotPath + ".tmp"
	if err := os.WriteFile(tmpPath, body, 0o644); err != nil {
		o.logger.Warn("health snapshot write failed", "error", err)
		return
	}
	if err := os.Rename(tmpPath, o.cfg.HealthSnapshotPath); err != nil {
		o.logger.Warn("health snapshot rename failed", "error", err)
	}
}
