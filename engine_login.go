package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/olympos-dev/authcore/captcha"
	"github.com/olympos-dev/authcore/internal/stores"
)

// Login runs the full credential flow: CAPTCHA, account lookup, lockout
// status, email-verification gate, password check. The ordering is part of
// the contract: the lockout check precedes the password comparison so a
// locked account never leaks whether the password was right, and the
// verification gate precedes any failure bookkeeping so unverified accounts
// do not accrue lockout counts.
//
// When the account has MFA enabled, a passing password check returns a
// short-lived challenge instead of a session token; complete it with
// [Engine.ConfirmLoginMFA].
func (e *Engine) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if e == nil || e.userStore == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}

	if e.captcha != nil {
		if err := e.captcha.Verify(ctx, input.CaptchaAssertion, clientIPFromContext(ctx)); err != nil {
			switch {
			case errors.Is(err, captcha.ErrRejected), errors.Is(err, ErrCaptchaRejected):
				e.metricInc(MetricLoginCaptchaRejected)
				e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrCaptchaRejected, reason("captcha_rejected"))
				return nil, ErrCaptchaRejected
			default:
				return nil, fmt.Errorf("%w: captcha: %v", ErrExternalService, err)
			}
		}
	}

	user, err := e.userStore.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrUserNotFound, reason("user_not_found"))
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	status, err := e.lockout.CheckStatus(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: lockout: %v", ErrExternalService, err)
	}
	if status.Locked {
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, auditEventLoginLocked, false, user.ID, email, ErrAccountLocked, nil)
		return nil, &LockoutError{Remaining: status.Remaining}
	}

	if !e.config.Account.AllowUnverifiedLogin && !user.EmailVerified {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, email, ErrEmailNotVerified, reason("email_not_verified"))
		return nil, ErrEmailNotVerified
	}

	if !e.passwordHash.Compare(input.Password, user.PasswordHash) {
		count, recErr := e.lockout.RecordFailure(ctx, user.ID)
		if recErr != nil {
			return nil, fmt.Errorf("%w: lockout: %v", ErrExternalService, recErr)
		}
		e.metricInc(MetricLoginFailure)
		if count >= e.config.Lockout.Threshold {
			e.metricInc(MetricAccountLocked)
			e.emitAudit(ctx, auditEventAccountLocked, false, user.ID, email, ErrAccountLocked, nil)
		}
		credErr := &CredentialsError{
			AttemptsRemaining: attemptsRemaining(e.config.Lockout.Threshold, count),
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, email, ErrInvalidCredentials, reason("password_mismatch"))
		return nil, credErr
	}

	if err := e.lockout.RecordSuccess(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("%w: lockout: %v", ErrExternalService, err)
	}

	if user.MFAEnabled {
		challengeID := uuid.NewString()
		if err := e.challenges.Create(ctx, challengeID, email, e.config.MFA.ChallengeTTL); err != nil {
			return nil, fmt.Errorf("%w: mfa challenge: %v", ErrExternalService, err)
		}
		e.metricInc(MetricMFAChallengeIssued)
		e.emitAudit(ctx, auditEventMFAChallengeIssued, true, user.ID, email, nil, nil)
		return &LoginResult{
			MFARequired: true,
			ChallengeID: challengeID,
		}, nil
	}

	return e.completeLogin(ctx, user)
}

// ConfirmLoginMFA completes an MFA step-up challenge issued by
// [Engine.Login]. The challenge is single-use and capped at a fixed number
// of failed codes; MFA failures never feed the password lockout counter.
func (e *Engine) ConfirmLoginMFA(ctx context.Context, challengeID, code string) (*LoginResult, error) {
	if e == nil || e.userStore == nil {
		return nil, ErrEngineNotReady
	}
	if challengeID == "" || code == "" {
		return nil, fmt.Errorf("%w: challenge and code required", ErrInvalidInput)
	}

	challenge, err := e.challenges.Get(ctx, challengeID)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			e.metricInc(MetricMFALoginFailure)
			e.emitAudit(ctx, auditEventMFALoginFailure, false, "", "", ErrMFAChallengeInvalid, reason("challenge_not_found"))
			return nil, ErrMFAChallengeInvalid
		}
		return nil, fmt.Errorf("%w: mfa challenge: %v", ErrExternalService, err)
	}

	user, err := e.userStore.GetByEmail(ctx, challenge.Email)
	if err != nil {
		if isNotFound(err) {
			_, _ = e.challenges.Delete(ctx, challengeID)
			return nil, ErrMFAChallengeInvalid
		}
		return nil, err
	}
	if !user.MFAEnabled || user.MFASecret == "" {
		_, _ = e.challenges.Delete(ctx, challengeID)
		return nil, ErrMFANotEnrolled
	}

	ok, err := e.totp.VerifyCode(user.MFASecret, code, time.Now())
	if err != nil || !ok {
		attempts, incErr := e.challenges.IncrementAttempts(ctx, challengeID)
		if incErr != nil {
			return nil, fmt.Errorf("%w: mfa challenge: %v", ErrExternalService, incErr)
		}
		e.metricInc(MetricMFALoginFailure)
		if attempts >= e.config.MFA.MaxChallengeAttempts {
			_, _ = e.challenges.Delete(ctx, challengeID)
			e.metricInc(MetricMFAAttemptsExceeded)
			e.emitAudit(ctx, auditEventMFAAttemptsExceeded, false, user.ID, user.Email, ErrMFAAttemptsExceeded, nil)
			return nil, ErrMFAAttemptsExceeded
		}
		e.emitAudit(ctx, auditEventMFALoginFailure, false, user.ID, user.Email, ErrMFACodeInvalid, nil)
		return nil, ErrMFACodeInvalid
	}

	// Single use: the delete doubles as a replay guard when two confirms
	// race on the same challenge.
	deleted, err := e.challenges.Delete(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("%w: mfa challenge: %v", ErrExternalService, err)
	}
	if !deleted {
		return nil, ErrMFAChallengeInvalid
	}

	e.metricInc(MetricMFALoginSuccess)
	e.emitAudit(ctx, auditEventMFALoginSuccess, true, user.ID, user.Email, nil, nil)

	return e.completeLogin(ctx, user)
}

func (e *Engine) completeLogin(ctx context.Context, user UserRecord) (*LoginResult, error) {
	sessionToken, err := e.issueSession(user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricSessionIssued)
	e.metricInc(MetricLoginSuccess)
	// The login-activity record lives in the audit stream.
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, user.Email, nil, nil)

	return &LoginResult{
		Token: sessionToken,
		User:  projectUser(user),
	}, nil
}

func attemptsRemaining(threshold, count int) int {
	remaining := threshold - 1 - count
	if remaining < 0 {
		return 0
	}
	return remaining
}

func reason(r string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"reason": r}
	}
}
