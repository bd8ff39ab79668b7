package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/olympos-dev/authcore/breach"
	"github.com/olympos-dev/authcore/captcha"
	"github.com/olympos-dev/authcore/internal/audit"
	"github.com/olympos-dev/authcore/internal/lockout"
	"github.com/olympos-dev/authcore/internal/stores"
	"github.com/olympos-dev/authcore/password"
	"github.com/olympos-dev/authcore/token"
	"github.com/olympos-dev/authcore/totp"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userStore UserStore
	mailer    Mailer
	captcha   CaptchaVerifier
	breach    BreachChecker
	auditSink AuditSink

	built bool
}

// New starts a Builder with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration. Zero-valued fields fall back to
// defaults at build time.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis injects the redis client backing lockout and MFA state.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore injects the account database adapter. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithMailer injects the mail dispatch collaborator. Defaults to
// [NoOpMailer].
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithCaptchaVerifier overrides the CAPTCHA client built from
// [CaptchaConfig].
func (b *Builder) WithCaptchaVerifier(v CaptchaVerifier) *Builder {
	b.captcha = v
	return b
}

// WithBreachChecker overrides the breach corpus client built from
// [BreachConfig].
func (b *Builder) WithBreachChecker(c BreachChecker) *Builder {
	b.breach = c
	return b
}

// WithAuditSink injects the audit event receiver and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires every subsystem, and returns the
// ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.userStore == nil {
		return nil, errors.New("user store required")
	}

	engine := &Engine{
		config:    cfg,
		userStore: b.userStore,
		mailer:    b.mailer,
		captcha:   b.captcha,
		breach:    b.breach,
	}
	if engine.mailer == nil {
		engine.mailer = NoOpMailer{}
	}

	tm, err := token.NewManager(token.Config{
		Secret: cfg.Token.Secret,
		Issuer: cfg.Token.Issuer,
		Leeway: cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.tokens = tm

	ph, err := password.NewHasher(password.Config{
		Memory:      cfg.Pswd.Memory,
		Time:        cfg.Pswd.Time,
		Parallelism: cfg.Pswd.Parallelism,
		SaltLength:  cfg.Pswd.SaltLength,
		KeyLength:   cfg.Pswd.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	engine.totp = totp.NewManager(totp.Config{
		Issuer:    cfg.TOTP.Issuer,
		Digits:    cfg.TOTP.Digits,
		Period:    cfg.TOTP.Period,
		Algorithm: cfg.TOTP.Algorithm,
		Skew:      cfg.TOTP.Skew,
	})

	engine.lockout = lockout.NewTracker(b.redis, lockout.Config{
		Threshold: cfg.Lockout.Threshold,
		Duration:  cfg.Lockout.Duration,
	})
	engine.enrollments = stores.NewEnrollmentStore(b.redis)
	engine.challenges = stores.NewChallengeStore(b.redis)

	if engine.breach == nil && cfg.Breach.Enabled {
		engine.breach = breach.NewClient(breach.Config{
			BaseURL: cfg.Breach.BaseURL,
			Timeout: cfg.Breach.Timeout,
		})
	}
	if engine.captcha == nil && cfg.Captcha.Enabled {
		cc, err := captcha.NewClient(captcha.Config{
			BaseURL: cfg.Captcha.BaseURL,
			Secret:  cfg.Captcha.Secret,
			Timeout: cfg.Captcha.Timeout,
		})
		if err != nil {
			return nil, err
		}
		engine.captcha = cc
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
