package authcore

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventRegisterSuccess          = "register_success"
	auditEventRegisterFailure          = "register_failure"
	auditEventVerificationEmailFailed  = "verification_email_failed"
	auditEventVerificationEmailResent  = "verification_email_resent"
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventLoginLocked              = "login_locked"
	auditEventAccountLocked            = "account_locked"
	auditEventEmailVerified            = "email_verified"
	auditEventEmailVerifyFailure       = "email_verify_failure"
	auditEventPasswordResetRequest     = "password_reset_request"
	auditEventPasswordResetSuccess     = "password_reset_success"
	auditEventPasswordResetFailure     = "password_reset_failure"
	auditEventPasswordChangeSuccess    = "password_change_success"
	auditEventPasswordChangeFailure    = "password_change_failure"
	auditEventMFAChallengeIssued       = "mfa_challenge_issued"
	auditEventMFALoginSuccess          = "mfa_login_success"
	auditEventMFALoginFailure          = "mfa_login_failure"
	auditEventMFAAttemptsExceeded      = "mfa_attempts_exceeded"
	auditEventMFAEnrollmentStarted     = "mfa_enrollment_started"
	auditEventMFAEnrollmentConfirmed   = "mfa_enrollment_confirmed"
	auditEventMFADisabled              = "mfa_disabled"
	auditEventMFAEnabled               = "mfa_enabled"
	auditEventSessionRefreshed         = "session_refreshed"
	auditEventSessionRefreshFailure    = "session_refresh_failure"
)

// AuditErrorCode is the stable error label recorded in audit events instead
// of raw error strings.
type AuditErrorCode string

const (
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrEmailNotVerified   AuditErrorCode = "email_not_verified"
	auditErrAccountLocked      AuditErrorCode = "account_locked"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrCaptchaRejected    AuditErrorCode = "captcha_rejected"
	auditErrPasswordBreached   AuditErrorCode = "password_breached"
	auditErrMFAInvalid         AuditErrorCode = "mfa_invalid"
	auditErrMFAAttempts        AuditErrorCode = "mfa_attempts_exceeded"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrEmailExists):
		return auditErrDuplicate
	case errors.Is(err, ErrEmailNotVerified):
		return auditErrEmailNotVerified
	case errors.Is(err, ErrAccountLocked):
		return auditErrAccountLocked
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenPurposeMismatch):
		return auditErrInvalidToken
	case errors.Is(err, ErrCaptchaRejected):
		return auditErrCaptchaRejected
	case errors.Is(err, ErrPasswordBreached):
		return auditErrPasswordBreached
	case errors.Is(err, ErrMFACodeInvalid),
		errors.Is(err, ErrMFAChallengeInvalid),
		errors.Is(err, ErrMFANotEnrolled),
		errors.Is(err, ErrMFAEnrollmentNotFound):
		return auditErrMFAInvalid
	case errors.Is(err, ErrMFAAttemptsExceeded):
		return auditErrMFAAttempts
	case errors.Is(err, ErrExternalService):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
