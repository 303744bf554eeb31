package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram bucket set.
type MetricID uint16

const (
	MetricSignInSuccess MetricID = iota
	MetricSignInFailure
	MetricSignInConflict
	MetricUserCreated
	MetricOriginLinked
	MetricTokenIssued
	MetricAuthSuccess
	MetricAuthMalformed
	MetricAuthBadSignature
	MetricAuthExpired
	MetricAuthNotYetValid
	MetricAuthRevoked
	MetricAuthUserNotFound
	MetricAuthUnavailable
	MetricBlacklistHit
	MetricVersionMismatch
	MetricTokenRevoked
	MetricRevokeAll
	MetricAuthenticateLatency

	MetricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// Histogram upper bounds in nanoseconds; the last slot is +Inf.
var histBoundsNanos = [histBucketCount - 1]int64{
	int64(5 * time.Millisecond),
	int64(10 * time.Millisecond),
	int64(25 * time.Millisecond),
	int64(50 * time.Millisecond),
	int64(100 * time.Millisecond),
	int64(250 * time.Millisecond),
	int64(500 * time.Millisecond),
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

type histogram struct {
	buckets [histBucketCount]uint64
}

// Config selects which subsystems are live. A disabled Metrics value is a
// full no-op with nil-receiver safety.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds atomic counters and optional latency histograms.
type Metrics struct {
	counters   [MetricIDCount]paddedCounter
	histograms [MetricIDCount]histogram

	enableLatency bool
}

// New creates a Metrics instance. When cfg.Enabled is false it returns nil;
// all methods are safe on a nil receiver.
func New(cfg Config) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{enableLatency: cfg.EnableLatency}
}

// Inc atomically increments the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the histogram for id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id >= MetricIDCount {
		return
	}
	n := int64(d)
	slot := histBucketCount - 1
	for i, bound := range histBoundsNanos {
		if n <= bound {
			slot = i
			break
		}
	}
	atomic.AddUint64(&m.histograms[id].buckets[slot], 1)
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// Snapshot copies every non-zero counter and histogram. The copy is not
// atomic across metrics; individual slots are read atomically.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		if v := atomic.LoadUint64(&m.counters[id].value); v > 0 {
			snap.Counters[id] = v
		}
		var buckets []uint64
		for slot := 0; slot < histBucketCount; slot++ {
			if v := atomic.LoadUint64(&m.histograms[id].buckets[slot]); v > 0 {
				if buckets == nil {
					buckets = make([]uint64, histBucketCount)
				}
				buckets[slot] = v
			}
		}
		if buckets != nil {
			snap.Histograms[id] = buckets
		}
	}
	return snap
}
