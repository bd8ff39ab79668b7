package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput reports malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials reports a failed email/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound reports that no account exists for the identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists reports a duplicate registration email.
	ErrEmailExists = errors.New("email already registered")
	// ErrEmailNotVerified reports a login attempt before email confirmation.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrAccountLocked reports that the account is under a lockout window.
	// Errors returned by the engine unwrap to this sentinel; inspect
	// [LockoutError] for the remaining time.
	ErrAccountLocked = errors.New("account locked")
	// ErrTokenExpired reports a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid reports a tampered, malformed, or unsigned token.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenPurposeMismatch reports a valid token presented for a flow it
	// was not minted for.
	ErrTokenPurposeMismatch = errors.New("token purpose mismatch")
	// ErrCaptchaRejected reports that the CAPTCHA provider denied the
	// assertion.
	ErrCaptchaRejected = errors.New("captcha rejected")
	// ErrPasswordBreached reports that the password appears in the breach
	// corpus and registration policy rejects it.
	ErrPasswordBreached = errors.New("password found in breach corpus")
	// ErrMFANotEnrolled reports an MFA operation on an account with no
	// confirmed TOTP secret.
	ErrMFANotEnrolled = errors.New("mfa not enrolled")
	// ErrMFAEnrollmentNotFound reports a confirmation with no pending
	// enrollment, usually because it expired.
	ErrMFAEnrollmentNotFound = errors.New("mfa enrollment not found")
	// ErrMFACodeInvalid reports a rejected TOTP code.
	ErrMFACodeInvalid = errors.New("invalid mfa code")
	// ErrMFAChallengeInvalid reports an unknown or expired login challenge.
	ErrMFAChallengeInvalid = errors.New("mfa challenge invalid")
	// ErrMFAAttemptsExceeded reports a login challenge consumed by too many
	// failed codes.
	ErrMFAAttemptsExceeded = errors.New("mfa challenge attempts exceeded")
	// ErrExternalService reports a failed call to an external collaborator
	// (breach corpus, CAPTCHA provider, mail dispatch). Retryable.
	ErrExternalService = errors.New("external service unavailable")
	// ErrEngineNotReady is returned when the engine is used before Build
	// completed.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// LockoutError is returned for login attempts against a locked account.
// It unwraps to [ErrAccountLocked].
type LockoutError struct {
	Remaining time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account locked, retry in %s", e.Remaining.Round(time.Second))
}

// Unwrap makes errors.Is(err, ErrAccountLocked) hold.
func (e *LockoutError) Unwrap() error { return ErrAccountLocked }

// CredentialsError is returned for a failed password check. It carries the
// number of attempts left before the account locks and unwraps to
// [ErrInvalidCredentials].
type CredentialsError struct {
	AttemptsRemaining int
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.AttemptsRemaining)
}

// Unwrap makes errors.Is(err, ErrInvalidCredentials) hold.
func (e *CredentialsError) Unwrap() error { return ErrInvalidCredentials }
