package authcore

import (
	"errors"
	"time"
)

// Config groups every tunable security parameter. All values are injected,
// never hard-coded; defaults come from defaultConfig and are applied by
// [Builder.Build] for zero-valued sections.
type Config struct {
	Token   TokenConfig
	Lockout LockoutConfig
	Pswd    PasswordConfig
	TOTP    TOTPConfig
	MFA     MFAConfig
	Breach  BreachConfig
	Captcha CaptchaConfig
	Account AccountConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// TokenConfig controls the purpose-scoped token manager.
type TokenConfig struct {
	// Secret signs every token. Minimum 32 bytes.
	Secret []byte
	Issuer string
	Leeway time.Duration

	SessionTTL       time.Duration
	EmailVerifyTTL   time.Duration
	PasswordResetTTL time.Duration
}

// LockoutConfig controls the failed-attempt lockout policy.
type LockoutConfig struct {
	// Threshold is the failure count that locks the account.
	Threshold int
	// Duration is the lock window. Expiry is lazy: the next status check
	// after the window clears the state.
	Duration time.Duration
}

// PasswordConfig holds the argon2id parameters.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// TOTPConfig controls code generation and verification.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Algorithm string
	// Skew is the accepted steps of clock drift in each direction. Zero
	// means "use the default of one step"; set DisableSkew to demand an
	// exact-step match.
	Skew int
	// DisableSkew forces Skew to zero. A plain zero Skew cannot be told
	// apart from an unset field, so strict verification needs the
	// explicit flag.
	DisableSkew bool
}

// MFAConfig controls the redis-backed enrollment and step-up challenge
// records.
type MFAConfig struct {
	EnrollmentTTL        time.Duration
	ChallengeTTL         time.Duration
	MaxChallengeAttempts int
	QRCodeSize           int
}

// BreachConfig controls the k-anonymity breach corpus lookup.
type BreachConfig struct {
	Enabled bool
	// RejectOnRegister refuses registration with a compromised password.
	// When false the corpus is only consulted through
	// [Engine.CheckPasswordBreached].
	RejectOnRegister bool
	BaseURL          string
	Timeout          time.Duration
}

// CaptchaConfig controls the CAPTCHA assertion check on login. Ignored when
// a custom [CaptchaVerifier] is injected.
type CaptchaConfig struct {
	Enabled bool
	BaseURL string
	Secret  string
	Timeout time.Duration
}

// AccountConfig holds account-level policy.
type AccountConfig struct {
	DefaultRole string
	// AllowUnverifiedLogin disables the confirmed-address gate on login.
	// Off by default so a zero Config keeps the gate.
	AllowUnverifiedLogin bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Issuer:           "authcore",
			Leeway:           30 * time.Second,
			SessionTTL:       5 * time.Hour,
			EmailVerifyTTL:   15 * time.Minute,
			PasswordResetTTL: 15 * time.Minute,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  15 * time.Minute,
		},
		Pswd: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		TOTP: TOTPConfig{
			Issuer:    "authcore",
			Digits:    6,
			Period:    30,
			Algorithm: "SHA1",
			Skew:      1,
		},
		MFA: MFAConfig{
			EnrollmentTTL:        10 * time.Minute,
			ChallengeTTL:         5 * time.Minute,
			MaxChallengeAttempts: 5,
			QRCodeSize:           256,
		},
		Breach: BreachConfig{
			Enabled: false,
			Timeout: 10 * time.Second,
		},
		Captcha: CaptchaConfig{
			Enabled: false,
			Timeout: 10 * time.Second,
		},
		Account: AccountConfig{
			DefaultRole: "user",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// applyDefaults fills zero-valued fields so a partially specified Config
// behaves like defaultConfig for everything it leaves out.
func (c *Config) applyDefaults() {
	d := defaultConfig()

	if c.Token.Issuer == "" {
		c.Token.Issuer = d.Token.Issuer
	}
	if c.Token.Leeway == 0 {
		c.Token.Leeway = d.Token.Leeway
	}
	if c.Token.SessionTTL == 0 {
		c.Token.SessionTTL = d.Token.SessionTTL
	}
	if c.Token.EmailVerifyTTL == 0 {
		c.Token.EmailVerifyTTL = d.Token.EmailVerifyTTL
	}
	if c.Token.PasswordResetTTL == 0 {
		c.Token.PasswordResetTTL = d.Token.PasswordResetTTL
	}
	if c.Lockout.Threshold == 0 {
		c.Lockout.Threshold = d.Lockout.Threshold
	}
	if c.Lockout.Duration == 0 {
		c.Lockout.Duration = d.Lockout.Duration
	}
	if c.Pswd == (PasswordConfig{}) {
		c.Pswd = d.Pswd
	}
	if c.TOTP.Issuer == "" {
		c.TOTP.Issuer = d.TOTP.Issuer
	}
	if c.TOTP.Digits == 0 {
		c.TOTP.Digits = d.TOTP.Digits
	}
	if c.TOTP.Period == 0 {
		c.TOTP.Period = d.TOTP.Period
	}
	if c.TOTP.Algorithm == "" {
		c.TOTP.Algorithm = d.TOTP.Algorithm
	}
	if c.TOTP.DisableSkew {
		c.TOTP.Skew = 0
	} else if c.TOTP.Skew == 0 {
		c.TOTP.Skew = d.TOTP.Skew
	}
	if c.MFA.EnrollmentTTL == 0 {
		c.MFA.EnrollmentTTL = d.MFA.EnrollmentTTL
	}
	if c.MFA.ChallengeTTL == 0 {
		c.MFA.ChallengeTTL = d.MFA.ChallengeTTL
	}
	if c.MFA.MaxChallengeAttempts == 0 {
		c.MFA.MaxChallengeAttempts = d.MFA.MaxChallengeAttempts
	}
	if c.MFA.QRCodeSize == 0 {
		c.MFA.QRCodeSize = d.MFA.QRCodeSize
	}
	if c.Breach.Timeout == 0 {
		c.Breach.Timeout = d.Breach.Timeout
	}
	if c.Captcha.Timeout == 0 {
		c.Captcha.Timeout = d.Captcha.Timeout
	}
	if c.Account.DefaultRole == "" {
		c.Account.DefaultRole = d.Account.DefaultRole
	}
	if c.Audit.BufferSize == 0 {
		c.Audit.BufferSize = d.Audit.BufferSize
	}
}

// Validate rejects configurations that would weaken the security posture.
func (c *Config) Validate() error {
	if len(c.Token.Secret) < 32 {
		return errors.New("token secret must be at least 32 bytes")
	}
	if c.Lockout.Threshold < 1 {
		return errors.New("lockout threshold must be positive")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("lockout duration must be positive")
	}
	if c.Token.SessionTTL <= 0 || c.Token.EmailVerifyTTL <= 0 || c.Token.PasswordResetTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.TOTP.Skew < 0 || c.TOTP.Skew > 2 {
		return errors.New("totp skew must be between 0 and 2 steps")
	}
	if c.MFA.MaxChallengeAttempts < 1 {
		return errors.New("mfa challenge attempts must be positive")
	}
	if c.Captcha.Enabled && c.Captcha.Secret == "" {
		return errors.New("captcha secret required when captcha is enabled")
	}
	return nil
}
