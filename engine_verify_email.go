package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/olympos-dev/authcore/token"
)

// VerifyEmail redeems an email-verification token and flips the account's
// verified flag. Re-verifying an already-verified account is reported as
// success with AlreadyVerified set, never as an error: tokens are stateless
// and cannot be revoked, so the effect has to be idempotent instead.
func (e *Engine) VerifyEmail(ctx context.Context, tokenStr string) (*VerifyEmailResult, error) {
	if e == nil || e.userStore == nil {
		return nil, ErrEngineNotReady
	}
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: token required", ErrInvalidInput)
	}

	claims, err := e.tokens.Verify(tokenStr, token.PurposeEmailVerify)
	if err != nil {
		mapped := mapTokenError(err)
		e.metricInc(MetricEmailVerifyFailure)
		e.emitAudit(ctx, auditEventEmailVerifyFailure, false, "", "", mapped, nil)
		return nil, mapped
	}

	// The token holds only a weak reference; the account may be gone by
	// redemption time.
	user, err := e.userStore.GetByEmail(ctx, claims.Email)
	if err != nil {
		if isNotFound(err) {
			e.metricInc(MetricEmailVerifyFailure)
			e.emitAudit(ctx, auditEventEmailVerifyFailure, false, "", claims.Email, ErrUserNotFound, nil)
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.EmailVerified {
		return &VerifyEmailResult{
			User:            projectUser(user),
			AlreadyVerified: true,
		}, nil
	}

	if err := e.userStore.SetEmailVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.EmailVerified = true

	e.metricInc(MetricEmailVerifySuccess)
	e.emitAudit(ctx, auditEventEmailVerified, true, user.ID, user.Email, nil, nil)

	return &VerifyEmailResult{User: projectUser(user)}, nil
}

// mapTokenError translates token-package sentinels into the engine
// taxonomy. Expired stays distinct from invalid: callers show "link
// expired" for one and "invalid link" for the other.
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrPurposeMismatch):
		return ErrTokenPurposeMismatch
	default:
		return ErrTokenInvalid
	}
}
