// Package monitor implements the Monitor Facade (component 4.I): it
// aggregates the Metric Collector and Alert Manager, derives health
// status, samples system resources, and watches for stuck in-flight
// requests.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"

	"github.com/reqflux/reqflux/internal/domain"
	"github.com/reqflux/reqflux/internal/metrics"
	"github.com/reqflux/reqflux/internal/queue"
)

const (
	stuckAge          = 5 * time.Minute
	sampleInterval    = 30 * time.Second
	diskSamplePath    = "/"
)

// Metrics mirrors the Monitor API's get_metrics() response shape (§6).
type Metrics struct {
	Timestamp  time.Time
	Uptime     time.Duration
	Counters   map[string]float64
	Gauges     map[string]float64
	Histograms map[string]metrics.Stats
	System     SystemSample
	Alerts     AlertsSummary
	Requests   RequestsSummary
}

// AlertsSummary reports active/total alert counts.
type AlertsSummary struct {
	Active int
	Total  int
}

// RequestsSummary reports in-flight and cumulative processed counts.
type RequestsSummary struct {
	Active         int
	TotalProcessed int64
}

// Health mirrors get_health_status() (§6).
type Health struct {
	Status          string
	Uptime          time.Duration
	ActiveAlerts    int
	CriticalAlerts  int
	SystemLoad      float64
	MemoryUsage     float64
	ActiveRequests  int
}

// SystemSample is one round of resource sampling.
type SystemSample struct {
	CPUPercent     float64
	MemoryPercent  float64
	DiskPercent    float64
	NetBytesSent   uint64
	NetBytesRecv   uint64
	SampledAt      time.Time
}

// Facade ties the collector, alert manager, and queue together and
// runs the two background tasks named in §4.I.
type Facade struct {
	logger    *slog.Logger
	collector *metrics.Collector
	alerts    *metrics.AlertManager
	queue     *queue.Manager

	startedAt time.Time

	mu         sync.RWMutex
	lastSample SystemSample

	wg sync.WaitGroup
}

// New builds a Facade over an already-running orchestrator's
// collector, alert manager, and queue.
func New(collector *metrics.Collector, alerts *metrics.AlertManager, q *queue.Manager, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	alerts.AddThreshold("requests.stuck", metrics.Threshold{Severity: domain.SeverityMedium, Value: 0, Comparison: metrics.ComparisonGT})
	return &Facade{
		logger:    logger,
		collector: collector,
		alerts:    alerts,
		queue:     q,
		startedAt: time.Now(),
	}
}

// Start launches the stuck-request scanner and the system resource
// sampler, each on its own 30s-scale schedule.
func (f *Facade) Start(ctx context.Context) {
	f.wg.Add(2)
	go f.stuckScanLoop(ctx)
	go f.sampleLoop(ctx)
}

// Stop blocks until both background loops have exited.
func (f *Facade) Stop() {
	f.wg.Wait()
}

// RecordRequestQueued increments the queued counter.
func (f *Facade) RecordRequestQueued() { f.collector.Increment("requests.queued", 1) }

// RecordRequestStarted increments the started counter.
func (f *Facade) RecordRequestStarted() { f.collector.Increment("requests.started", 1) }

// RecordRequestCompleted increments completed/success counters and the
// duration histogram, and updates the derived success-rate gauges.
func (f *Facade) RecordRequestCompleted(success bool, duration time.Duration) {
	f.collector.Increment("requests.completed", 1)
	if success {
		f.collector.Increment("requests.success", 1)
	}
	f.collector.RecordHistogram("requests.duration", duration.Seconds())
	f.refreshSuccessRate()
}

// RecordRequestFailed increments the failed counter and logs reason.
func (f *Facade) RecordRequestFailed(reason string) {
	f.collector.Increment("requests.failed", 1)
	f.refreshSuccessRate()
	f.logger.Debug("request failed", "reason", reason)
}

func (f *Facade) refreshSuccessRate() {
	success := f.collector.Counter("requests.success")
	failed := f.collector.Counter("requests.failed")
	total := success + failed
	if total == 0 {
		return
	}
	rate := success / total
	f.collector.SetGauge("requests.success_rate", rate)
	f.collector.SetGauge("requests.failure_rate", 1-rate)
}

// AddCustomMetric records an arbitrary metric by kind ("counter",
// "gauge", or "histogram").
func (f *Facade) AddCustomMetric(name string, value float64, kind string) {
	switch kind {
	case "counter":
		f.collector.Increment(name, value)
	case "histogram":
		f.collector.RecordHistogram(name, value)
	default:
		f.collector.SetGauge(name, value)
	}
}

// AddAlertThreshold registers a new threshold with the Alert Manager.
func (f *Facade) AddAlertThreshold(name string, value float64, severity string, comparison string) {
	f.alerts.AddThreshold(name, metrics.Threshold{
		Severity:   severityFromString(severity),
		Value:      value,
		Comparison: metrics.Comparison(comparison),
	})
}

// AddAlertHandler registers handler against severity.
func (f *Facade) AddAlertHandler(severity string, handler metrics.AlertHandler) {
	f.alerts.AddHandler(severityFromString(severity), handler)
}

// GetMetrics assembles the full Monitor API snapshot.
func (f *Facade) GetMetrics() Metrics {
	histograms := make(map[string]metrics.Stats)
	for _, name := range f.collector.HistogramNames() {
		histograms[name] = f.collector.HistogramStats(name)
	}

	f.mu.RLock()
	sample := f.lastSample
	f.mu.RUnlock()

	stats := f.queue.Stats()

	return Metrics{
		Timestamp:  time.Now(),
		Uptime:     time.Since(f.startedAt),
		Counters:   f.collector.AllCounters(),
		Gauges:     f.collector.AllGauges(),
		Histograms: histograms,
		System:     sample,
		Alerts: AlertsSummary{
			Active: len(f.alerts.ActiveAlerts()),
			Total:  f.alerts.TotalAlerts(),
		},
		Requests: RequestsSummary{
			Active:         stats.ProcessingCount,
			TotalProcessed: stats.TotalDequeued,
		},
	}
}

// GetHealthStatus derives the status from active alert severity per
// the rules in §4.I; ActiveRequests reports the queue's in-flight count
// and does not affect the status.
func (f *Facade) GetHealthStatus() Health {
	f.mu.RLock()
	sample := f.lastSample
	f.mu.RUnlock()

	active := len(f.alerts.ActiveAlerts())
	critical := 0
	for _, a := range f.alerts.ActiveAlerts() {
		if a.Severity == domain.SeverityCritical {
			critical++
		}
	}

	return Health{
		Status:         f.alerts.HealthStatus(),
		Uptime:         time.Since(f.startedAt),
		ActiveAlerts:   active,
		CriticalAlerts: critical,
		SystemLoad:     sample.CPUPercent,
		MemoryUsage:    sample.MemoryPercent,
		ActiveRequests: f.queue.InFlightCount(),
	}
}

func (f *Facade) stuckScanLoop(ctx context.Context) {
	defer f.wg.Done()
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stuck := f.queue.StuckInFlight(stuckAge)
			if len(stuck) > 0 {
				f.alerts.CheckMetric("requests.stuck", float64(len(stuck)))
				f.logger.Warn("stuck in-flight requests detected", "count", len(stuck))
			}
		}
	}
}

func (f *Facade) sampleLoop(ctx context.Context) {
	defer f.wg.Done()
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.sampleOnce(ctx)
		}
	}
}

func (f *Facade) sampleOnce(ctx context.Context) {
	sample := SystemSample{SampledAt: time.Now()}

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		sample.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		sample.MemoryPercent = vm.UsedPercent
	}
	if du, err := disk.UsageWithContext(ctx, diskSamplePath); err == nil {
		sample.DiskPercent = du.UsedPercent
	}
	if counters, err := net.IOCountersWithContext(ctx, false); err == nil && len(counters) > 0 {
		sample.NetBytesSent = counters[0].BytesSent
		sample.NetBytesRecv = counters[0].BytesRecv
	}

	f.mu.Lock()
	f.lastSample = sample
	f.mu.Unlock()

	f.collector.SetGauge("system.cpu_percent", sample.CPUPercent)
	f.collector.SetGauge("system.memory_percent", sample.MemoryPercent)
	f.collector.SetGauge("system.disk_percent", sample.DiskPercent)

	f.alerts.CheckMetric("system.cpu_percent", sample.CPUPercent)
	f.alerts.CheckMetric("system.memory_percent", sample.MemoryPercent)
	f.alerts.CheckMetric("system.disk_percent", sample.DiskPercent)
}

func severityFromString(s string) domain.AlertSeverity {
	switch s {
	case "critical":
		return domain.SeverityCritical
	case "high":
		return domain.SeverityHigh
	case "low":
		return domain.SeverityLow
	default:
		return domain.SeverityMedium
	}
}
