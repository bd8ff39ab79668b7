package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/olympos-dev/authcore/internal/stores"
)

// BeginMFAEnrollment generates a fresh per-account TOTP secret with its
// provisioning URI and QR image. The secret is parked server-side and not
// written to the account until [Engine.ConfirmMFAEnrollment] accepts a
// code, so scanning the QR and losing the device cannot strand the account
// half-enrolled.
func (e *Engine) BeginMFAEnrollment(ctx context.Context, userID string) (*MFAEnrollment, error) {
	if e == nil || e.userStore == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user required", ErrInvalidInput)
	}

	user, err := e.userStore.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	secret, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}
	uri := e.totp.ProvisionURI(user.Email, secret)
	png, err := e.totp.QRCodePNG(uri, e.config.MFA.QRCodeSize)
	if err != nil {
		return nil, err
	}

	if err := e.enrollments.Save(ctx, user.Email, secret, e.config.MFA.EnrollmentTTL); err != nil {
		return nil, fmt.Errorf("%w: mfa enrollment: %v", ErrExternalService, err)
	}

	e.metricInc(MetricMFAEnrollmentStarted)
	e.emitAudit(ctx, auditEventMFAEnrollmentStarted, true, user.ID, user.Email, nil, nil)

	return &MFAEnrollment{
		Secret:    secret,
		URI:       uri,
		QRCodePNG: png,
	}, nil
}

// ConfirmMFAEnrollment proves possession of the enrolled authenticator with
// a live code, then persists the secret and enables MFA on the account.
func (e *Engine) ConfirmMFAEnrollment(ctx context.Context, userID, code string) error {
	if e == nil || e.userStore == nil {
		return ErrEngineNotReady
	}
	if userID == "" || code == "" {
		return fmt.Errorf("%w: user and code required", ErrInvalidInput)
	}

	user, err := e.userStore.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}

	secret, err := e.enrollments.Get(ctx, user.Email)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return ErrMFAEnrollmentNotFound
		}
		return fmt.Errorf("%w: mfa enrollment: %v", ErrExternalService, err)
	}

	ok, err := e.totp.VerifyCode(secret, code, time.Now())
	if err != nil || !ok {
		e.emitAudit(ctx, auditEventMFALoginFailure, false, user.ID, user.Email, ErrMFACodeInvalid, reason("enrollment_code"))
		return ErrMFACodeInvalid
	}

	if err := e.userStore.SetMFA(ctx, userID, true, secret); err != nil {
		return err
	}
	if err := e.enrollments.Delete(ctx, user.Email); err != nil {
		return fmt.Errorf("%w: mfa enrollment: %v", ErrExternalService, err)
	}

	e.metricInc(MetricMFAEnrollmentConfirmed)
	e.emitAudit(ctx, auditEventMFAEnrollmentConfirmed, true, user.ID, user.Email, nil, nil)
	return nil
}

// SetMFAEnabled toggles the step-up requirement for an authenticated
// account. Enabling requires a previously confirmed secret; accounts that
// never enrolled get [ErrMFANotEnrolled] and must go through
// [Engine.BeginMFAEnrollment] first. Disabling keeps the secret so the
// account can re-enable without re-enrolling.
func (e *Engine) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	if e == nil || e.userStore == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return fmt.Errorf("%w: user required", ErrInvalidInput)
	}

	user, err := e.userStore.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}

	if enabled && user.MFASecret == "" {
		return ErrMFANotEnrolled
	}
	if user.MFAEnabled == enabled {
		return nil
	}

	if err := e.userStore.SetMFA(ctx, userID, enabled, user.MFASecret); err != nil {
		return err
	}

	if enabled {
		e.emitAudit(ctx, auditEventMFAEnabled, true, user.ID, user.Email, nil, nil)
	} else {
		e.metricInc(MetricMFADisabled)
		e.emitAudit(ctx, auditEventMFADisabled, true, user.ID, user.Email, nil, nil)
	}
	return nil
}
