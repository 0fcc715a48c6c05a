package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollector_CounterAccumulates(t *testing.T) {
	c := NewCollector(0)
	c.Increment("requests.queued", 1)
	c.Increment("requests.queued", 2)

	assert.Equal(t, float64(3), c.Counter("requests.queued"))
}

func TestCollector_GaugeOverwrites(t *testing.T) {
	c := NewCollector(0)
	c.SetGauge("queue.size", 5)
	c.SetGauge("queue.size", 8)

	assert.Equal(t, float64(8), c.Gauge("queue.size"))
}

func TestCollector_HistogramStats(t *testing.T) {
	c := NewCollector(0)
	for _, v := range []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10} {
		c.RecordHistogram("latency", v)
	}

	stats := c.HistogramStats("latency")
	assert.Equal(t, 10, stats.Count)
	assert.Equal(t, float64(1), stats.Min)
	assert.Equal(t, float64(10), stats.Max)
	assert.InDelta(t, 5.5, stats.Mean, 0.01)
}

func TestCollector_HistogramWindowIsBounded(t *testing.T) {
	c := NewCollector(3)
	for i := 0; i < 10; i++ {
		c.RecordHistogram("m", float64(i))
	}

	stats := c.HistogramStats("m")
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, float64(7), stats.Min)
	assert.Equal(t, float64(9), stats.Max)
}

func TestCollector_HistogramNamesSorted(t *testing.T) {
	c := NewCollector(0)
	c.RecordHistogram("zeta", 1)
	c.RecordHistogram("alpha", 1)

	assert.Equal(t, []string{"alpha", "zeta"}, c.HistogramNames())
}

func TestCollector_AllCountersIsSnapshot(t *testing.T) {
	c := NewCollector(0)
	c.Increment("a", 1)

	snap := c.AllCounters()
	snap["a"] = 999

	assert.Equal(t, float64(1), c.Counter("a"))
}
