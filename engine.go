package authcore

import (
	"github.com/olympos-dev/authcore/internal/audit"
	"github.com/olympos-dev/authcore/internal/lockout"
	"github.com/olympos-dev/authcore/internal/stores"
	"github.com/olympos-dev/authcore/password"
	"github.com/olympos-dev/authcore/token"
	"github.com/olympos-dev/authcore/totp"
)

// Engine composes the credential, lockout, token, and MFA subsystems into
// the authentication flows. Construct it through [Builder]; a built Engine
// is immutable and safe for concurrent use.
type Engine struct {
	config Config

	userStore UserStore
	mailer    Mailer
	captcha   CaptchaVerifier
	breach    BreachChecker

	tokens       *token.Manager
	passwordHash *password.Hasher
	totp         *totp.Manager
	lockout      *lockout.Tracker
	enrollments  *stores.EnrollmentStore
	challenges   *stores.ChallengeStore

	audit   *audit.Dispatcher
	metrics *Metrics
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
