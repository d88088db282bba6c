// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the simulator.
const (
	// Access counters.
	MetricReadHits    = "cachesim_read_hits_total"
	MetricReadMisses  = "cachesim_read_misses_total"
	MetricWriteHits   = "cachesim_write_hits_total"
	MetricWriteMisses = "cachesim_write_misses_total"
	MetricEvictions   = "cachesim_evictions_total"

	// Run metrics.
	MetricRuns         = "cachesim_runs_total"
	MetricInstructions = "cachesim_instructions"
	MetricTick         = "cachesim_tick"
	MetricMissRate     = "cachesim_miss_rate_percent"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}

// Multi fans every metric out to several collectors.
type Multi []Collector

var _ Collector = Multi(nil)

// IncCounter increments the counter in every collector.
func (m Multi) IncCounter(name string, delta int64) {
	for _, c := range m {
		c.IncCounter(name, delta)
	}
}

// SetGauge sets the gauge in every collector.
func (m Multi) SetGauge(name string, value int64) {
	for _, c := range m {
		c.SetGauge(name, value)
	}
}

// ObserveHistogram records the value in every collector.
func (m Multi) ObserveHistogram(name string, value float64) {
	for _, c := range m {
		c.ObserveHistogram(name, value)
	}
}
