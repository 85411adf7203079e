package goATM

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one machine counter or histogram.
type MetricID uint16

const (
	// MetricCardInserted counts cards accepted by InsertCard.
	MetricCardInserted MetricID = iota
	// MetricCardUnknown counts InsertCard calls for cards missing from the directory.
	MetricCardUnknown
	// MetricPINAccepted counts successful PIN verifications.
	MetricPINAccepted
	// MetricPINRejected counts wrong PINs that did not lock the card.
	MetricPINRejected
	// MetricCardLocked counts cards locked by the attempt threshold.
	MetricCardLocked
	// MetricLockedCardAttempt counts PIN entries refused because the card was already locked.
	MetricLockedCardAttempt
	// MetricBalanceInquiry counts successful CheckBalance calls.
	MetricBalanceInquiry
	// MetricDepositSuccess counts applied deposits.
	MetricDepositSuccess
	// MetricDepositRejected counts deposits refused for the amount.
	MetricDepositRejected
	// MetricWithdrawSuccess counts applied withdrawals.
	MetricWithdrawSuccess
	// MetricWithdrawRejected counts withdrawals refused for the amount.
	MetricWithdrawRejected
	// MetricInsufficientFunds counts withdrawals larger than the balance.
	MetricInsufficientFunds
	// MetricNotAuthenticated counts balance operations attempted outside an authenticated cycle.
	MetricNotAuthenticated
	// MetricLogout counts card cycles ended from a non-empty state.
	MetricLogout
	// MetricPINVerifyLatency is the histogram of PIN hash verification time.
	MetricPINVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a lock-free set of machine counters. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of counters and histogram buckets.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the PIN latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only MetricPINVerifyLatency
// carries a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricPINVerifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricPINVerifyLatency].buckets[i])
		}
		s.Histograms[MetricPINVerifyLatency] = buckets
	}

	return s
}

// Argon2id verification sits in the tens of milliseconds at default cost,
// so the buckets are wider than a request-path histogram would use.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 10:
		return 0
	case ms <= 25:
		return 1
	case ms <= 50:
		return 2
	case ms <= 100:
		return 3
	case ms <= 250:
		return 4
	case ms <= 500:
		return 5
	case ms <= 1000:
		return 6
	default:
		return 7
	}
}
