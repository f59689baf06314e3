package vm

import (
	"log/slog"
	"math"
	"sort"
	"sync/atomic"
	"time"
)

// Histogram tracks latency distribution with percentile support
type Histogram struct {
	samples []float64 // Latencies in microseconds
	maxSize int       // Maximum samples to retain
	sorted  bool
}

// NewHistogram creates a new histogram with a max sample size
func NewHistogram(maxSize int) *Histogram {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &Histogram{
		samples: make([]float64, 0, maxSize),
		maxSize: maxSize,
		sorted:  true,
	}
}

// Record adds a latency sample (in microseconds)
func (h *Histogram) Record(latencyUs float64) {
	// At capacity, drop the oldest sample
	if len(h.samples) >= h.maxSize {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:len(h.samples)-1]
	}

	h.samples = append(h.samples, latencyUs)
	h.sorted = false
}

// Percentile calculates the given percentile (0-100)
func (h *Histogram) Percentile(p float64) float64 {
	if len(h.samples) == 0 {
		return 0
	}

	if !h.sorted {
		sort.Float64s(h.samples)
		h.sorted = true
	}

	rank := (p / 100.0) * float64(len(h.samples)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return h.samples[lower]
	}

	weight := rank - float64(lower)
	return h.samples[lower]*(1-weight) + h.samples[upper]*weight
}

// Mean calculates the average latency
func (h *Histogram) Mean() float64 {
	if len(h.samples) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range h.samples {
		sum += v
	}
	return sum / float64(len(h.samples))
}

// Count returns the number of samples
func (h *Histogram) Count() int {
	return len(h.samples)
}

// Reset clears all samples
func (h *Histogram) Reset() {
	h.samples = h.samples[:0]
	h.sorted = true
}

// HistogramSnapshot holds percentile statistics at a point in time
type HistogramSnapshot struct {
	Count int
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
}

// Snapshot captures current histogram statistics
func (h *Histogram) Snapshot() HistogramSnapshot {
	return HistogramSnapshot{
		Count: h.Count(),
		Mean:  h.Mean(),
		P50:   h.Percentile(50),
		P95:   h.Percentile(95),
		P99:   h.Percentile(99),
	}
}

// Metrics tracks the counters reported at the end of a run.
// Counters only grow; Reset exists for tests.
type Metrics struct {
	// Reported statistics
	pageFaults atomic.Uint64
	diskReads  atomic.Uint64
	diskWrites atomic.Uint64

	// Fault breakdown
	evictions     atomic.Uint64
	writeUpgrades atomic.Uint64

	// Backing store
	bytesOriginal atomic.Uint64
	bytesStored   atomic.Uint64

	faultLatency *Histogram
	startTime    time.Time
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		faultLatency: NewHistogram(10000),
		startTime:    time.Now(),
	}
}

func (m *Metrics) RecordPageFault() {
	m.pageFaults.Add(1)
}

func (m *Metrics) RecordDiskRead() {
	m.diskReads.Add(1)
}

func (m *Metrics) RecordDiskWrite() {
	m.diskWrites.Add(1)
}

func (m *Metrics) RecordEviction() {
	m.evictions.Add(1)
}

func (m *Metrics) RecordWriteUpgrade() {
	m.writeUpgrades.Add(1)
}

// RecordBlockStored accounts one block write of original bytes stored as stored bytes
func (m *Metrics) RecordBlockStored(original, stored int) {
	m.bytesOriginal.Add(uint64(original))
	m.bytesStored.Add(uint64(stored))
}

// RecordFaultLatency records how long one fault took to resolve
func (m *Metrics) RecordFaultLatency(duration time.Duration) {
	m.faultLatency.Record(float64(duration.Microseconds()))
}

// Getters

func (m *Metrics) GetPageFaults() uint64 {
	return m.pageFaults.Load()
}

func (m *Metrics) GetDiskReads() uint64 {
	return m.diskReads.Load()
}

func (m *Metrics) GetDiskWrites() uint64 {
	return m.diskWrites.Load()
}

func (m *Metrics) GetEvictions() uint64 {
	return m.evictions.Load()
}

func (m *Metrics) GetWriteUpgrades() uint64 {
	return m.writeUpgrades.Load()
}

// GetCompressionRatio returns original bytes over stored bytes for all block writes
func (m *Metrics) GetCompressionRatio() float64 {
	stored := m.bytesStored.Load()
	if stored == 0 {
		return 1.0
	}
	return float64(m.bytesOriginal.Load()) / float64(stored)
}

// GetFaultLatency returns a snapshot of the fault latency distribution
func (m *Metrics) GetFaultLatency() HistogramSnapshot {
	return m.faultLatency.Snapshot()
}

func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.startTime)
}

// LogMetrics logs all metrics using structured logging
func (m *Metrics) LogMetrics(logger *slog.Logger) {
	latency := m.GetFaultLatency()

	logger.Info("Simulation Metrics",
		slog.Group("faults",
			slog.Uint64("total", m.GetPageFaults()),
			slog.Uint64("evictions", m.GetEvictions()),
			slog.Uint64("write_upgrades", m.GetWriteUpgrades()),
		),
		slog.Group("disk",
			slog.Uint64("reads", m.GetDiskReads()),
			slog.Uint64("writes", m.GetDiskWrites()),
			slog.Float64("compression_ratio", m.GetCompressionRatio()),
		),
		slog.Group("latency_us",
			slog.Int("count", latency.Count),
			slog.Float64("mean", latency.Mean),
			slog.Float64("p50", latency.P50),
			slog.Float64("p95", latency.P95),
			slog.Float64("p99", latency.P99),
		),
		slog.Duration("uptime", m.GetUptime()),
	)
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	m.pageFaults.Store(0)
	m.diskReads.Store(0)
	m.diskWrites.Store(0)
	m.evictions.Store(0)
	m.writeUpgrades.Store(0)
	m.bytesOriginal.Store(0)
	m.bytesStored.Store(0)
	m.faultLatency.Reset()
	m.startTime = time.Now()
}
