package authcore

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint16

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterDuplicate
	MetricRegisterBreachRejected
	MetricVerificationEmailFailed
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginLocked
	MetricLoginCaptchaRejected
	MetricAccountLocked
	MetricEmailVerifySuccess
	MetricEmailVerifyFailure
	MetricPasswordResetRequest
	MetricPasswordResetSuccess
	MetricPasswordResetFailure
	MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld
	MetricBreachCheck
	MetricBreachHit
	MetricMFAChallengeIssued
	MetricMFALoginSuccess
	MetricMFALoginFailure
	MetricMFAAttemptsExceeded
	MetricMFAEnrollmentStarted
	MetricMFAEnrollmentConfirmed
	MetricMFADisabled
	MetricSessionIssued
	MetricSessionRefreshSuccess
	MetricSessionRefreshFailure
	metricIDCount
)

const cacheLineSize = 64

// Counters sit in separate cache lines so hot flows on different cores do
// not contend on the same line.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters. All methods are safe on a nil receiver
// and become no-ops when metrics are disabled.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics instance. When cfg.Enabled is false every
// operation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are recording.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
