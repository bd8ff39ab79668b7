package authcore

import (
	"context"
	"fmt"

	"github.com/olympos-dev/authcore/token"
)

// RequestPasswordReset issues a reset token for the address and hands it to
// the mailer. Unknown addresses report success without dispatching
// anything, the same enumeration policy as [Engine.ResendVerification].
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil || e.userStore == nil {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email required", ErrInvalidInput)
	}

	user, err := e.userStore.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	resetToken, err := e.tokens.Issue(email, token.PurposePasswordReset, e.config.Token.PasswordResetTTL)
	if err != nil {
		return err
	}
	if err := e.mailer.SendPasswordResetEmail(ctx, email, resetToken); err != nil {
		e.emitAudit(ctx, auditEventPasswordResetFailure, false, user.ID, email, ErrExternalService, reason("mail_dispatch"))
		return fmt.Errorf("%w: mail dispatch: %v", ErrExternalService, err)
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, user.ID, email, nil, nil)
	return nil
}

// ResetPassword redeems a reset token and persists a new password hash.
// Outstanding session tokens stay valid; they are stateless and expire on
// their own TTL.
func (e *Engine) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	if e == nil || e.userStore == nil {
		return ErrEngineNotReady
	}
	if tokenStr == "" || newPassword == "" {
		return fmt.Errorf("%w: token and password required", ErrInvalidInput)
	}

	claims, err := e.tokens.Verify(tokenStr, token.PurposePasswordReset)
	if err != nil {
		mapped := mapTokenError(err)
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetFailure, false, "", "", mapped, nil)
		return mapped
	}

	user, err := e.userStore.GetByEmail(ctx, claims.Email)
	if err != nil {
		if isNotFound(err) {
			e.metricInc(MetricPasswordResetFailure)
			e.emitAudit(ctx, auditEventPasswordResetFailure, false, "", claims.Email, ErrUserNotFound, nil)
			return ErrUserNotFound
		}
		return err
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := e.userStore.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		return err
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetSuccess, true, user.ID, user.Email, nil, nil)
	return nil
}

// ChangePassword rotates the password of an authenticated account after
// re-proving the current one.
func (e *Engine) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if e == nil || e.userStore == nil {
		return ErrEngineNotReady
	}
	if userID == "" || oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: user, old and new password required", ErrInvalidInput)
	}

	user, err := e.userStore.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}

	if !e.passwordHash.Compare(oldPassword, user.PasswordHash) {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, user.Email, ErrInvalidCredentials, reason("old_password_mismatch"))
		return ErrInvalidCredentials
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := e.userStore.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, user.Email, nil, nil)
	return nil
}

// CheckPasswordBreached consults the breach corpus for a candidate
// password. A corpus failure returns an error, never "safe".
func (e *Engine) CheckPasswordBreached(ctx context.Context, candidate string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	if candidate == "" {
		return false, fmt.Errorf("%w: password required", ErrInvalidInput)
	}
	if e.breach == nil {
		return false, fmt.Errorf("%w: breach corpus not configured", ErrExternalService)
	}

	compromised, err := e.breach.Check(ctx, candidate)
	if err != nil {
		return false, fmt.Errorf("%w: breach check: %v", ErrExternalService, err)
	}

	e.metricInc(MetricBreachCheck)
	if compromised {
		e.metricInc(MetricBreachHit)
	}
	return compromised, nil
}
