// Package telemetry exposes run-scoped Prometheus instrumentation for a
// Monte Carlo run: packet outcome counters, a histogram of virtual packets
// spawned per interaction, and a gauge of currently active workers.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements prometheus.Collector for a single run. Workers call
// its Record*, Observe* and SetActiveWorkers methods directly; Describe/Collect are invoked by whatever
// registry the caller registers it with.
type Collector struct {
	mu sync.Mutex

	emitted    uint64
	reabsorbed uint64
	failed     uint64

	virtualPerInteraction prometheus.Histogram
	activeWorkers         prometheus.Gauge

	emittedDesc    *prometheus.Desc
	reabsorbedDesc *prometheus.Desc
	failedDesc     *prometheus.Desc
}

// NewCollector constructs a Collector whose metric names are prefixed with
// prefix (e.g. "tardis").
func NewCollector(prefix string) *Collector {
	return &Collector{
		virtualPerInteraction: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "_virtual_packets_per_interaction",
			Help:    "Number of virtual packets spawned per real-packet interaction.",
			Buckets: prometheus.LinearBuckets(0, 4, 8),
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_active_workers",
			Help: "Number of transport worker goroutines currently running.",
		}),
		emittedDesc:    prometheus.NewDesc(prefix+"_packets_emitted_total", "Total packets that escaped through the outer boundary.", nil, nil),
		reabsorbedDesc: prometheus.NewDesc(prefix+"_packets_reabsorbed_total", "Total packets absorbed by matter or the inner boundary.", nil, nil),
		failedDesc:     prometheus.NewDesc(prefix+"_packets_failed_total", "Total packets that failed with a geometric inconsistency.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.emittedDesc
	descs <- c.reabsorbedDesc
	descs <- c.failedDesc
	c.virtualPerInteraction.Describe(descs)
	c.activeWorkers.Describe(descs)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	emitted, reabsorbed, failed := c.emitted, c.reabsorbed, c.failed
	c.mu.Unlock()

	metrics <- prometheus.MustNewConstMetric(c.emittedDesc, prometheus.CounterValue, float64(emitted))
	metrics <- prometheus.MustNewConstMetric(c.reabsorbedDesc, prometheus.CounterValue, float64(reabsorbed))
	metrics <- prometheus.MustNewConstMetric(c.failedDesc, prometheus.CounterValue, float64(failed))
	c.virtualPerInteraction.Collect(metrics)
	c.activeWorkers.Collect(metrics)
}

// RecordEmitted increments the emitted-packet counter.
func (c *Collector) RecordEmitted() {
	c.mu.Lock()
	c.emitted++
	c.mu.Unlock()
}

// RecordReabsorbed increments the reabsorbed-packet counter.
func (c *Collector) RecordReabsorbed() {
	c.mu.Lock()
	c.reabsorbed++
	c.mu.Unlock()
}

// RecordFailed increments the failed-packet counter.
func (c *Collector) RecordFailed() {
	c.mu.Lock()
	c.failed++
	c.mu.Unlock()
}

// ObserveVirtualPacketCount records how many virtual packets a single
// interaction spawned.
func (c *Collector) ObserveVirtualPacketCount(n int) {
	c.virtualPerInteraction.Observe(float64(n))
}

// SetActiveWorkers sets the active-worker gauge.
func (c *Collector) SetActiveWorkers(n int) {
	c.activeWorkers.Set(float64(n))
}
