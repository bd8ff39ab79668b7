package internaldefs

import (
	"github.com/olympos-dev/authcore"
)

// CounterDef maps one engine counter to an exported metric name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order. Exporters
// iterate this slice so both backends publish the same names.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricRegisterSuccess, Name: "authcore_register_success_total", Help: "Successful account registrations."},
	{ID: authcore.MetricRegisterDuplicate, Name: "authcore_register_duplicate_total", Help: "Registrations rejected as duplicate email."},
	{ID: authcore.MetricRegisterBreachRejected, Name: "authcore_register_breach_rejected_total", Help: "Registrations rejected for a breached password."},
	{ID: authcore.MetricVerificationEmailFailed, Name: "authcore_verification_email_failed_total", Help: "Verification email dispatch failures."},
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful login attempts."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed login attempts."},
	{ID: authcore.MetricLoginLocked, Name: "authcore_login_locked_total", Help: "Login attempts rejected while the account was locked."},
	{ID: authcore.MetricLoginCaptchaRejected, Name: "authcore_login_captcha_rejected_total", Help: "Login attempts rejected by CAPTCHA verification."},
	{ID: authcore.MetricAccountLocked, Name: "authcore_account_locked_total", Help: "Accounts locked after repeated failures."},
	{ID: authcore.MetricEmailVerifySuccess, Name: "authcore_email_verify_success_total", Help: "Successful email verifications."},
	{ID: authcore.MetricEmailVerifyFailure, Name: "authcore_email_verify_failure_total", Help: "Failed email verifications."},
	{ID: authcore.MetricPasswordResetRequest, Name: "authcore_password_reset_request_total", Help: "Password reset requests."},
	{ID: authcore.MetricPasswordResetSuccess, Name: "authcore_password_reset_success_total", Help: "Successful password resets."},
	{ID: authcore.MetricPasswordResetFailure, Name: "authcore_password_reset_failure_total", Help: "Failed password resets."},
	{ID: authcore.MetricPasswordChangeSuccess, Name: "authcore_password_change_success_total", Help: "Successful password changes."},
	{ID: authcore.MetricPasswordChangeInvalidOld, Name: "authcore_password_change_invalid_old_total", Help: "Password change attempts with an invalid current password."},
	{ID: authcore.MetricBreachCheck, Name: "authcore_breach_check_total", Help: "Breach corpus lookups."},
	{ID: authcore.MetricBreachHit, Name: "authcore_breach_hit_total", Help: "Breach corpus lookups that found the password."},
	{ID: authcore.MetricMFAChallengeIssued, Name: "authcore_mfa_challenge_issued_total", Help: "Login flows requiring MFA step-up."},
	{ID: authcore.MetricMFALoginSuccess, Name: "authcore_mfa_login_success_total", Help: "Successful MFA login confirmations."},
	{ID: authcore.MetricMFALoginFailure, Name: "authcore_mfa_login_failure_total", Help: "Failed MFA login confirmations."},
	{ID: authcore.MetricMFAAttemptsExceeded, Name: "authcore_mfa_attempts_exceeded_total", Help: "MFA challenges invalidated due to the attempt cap."},
	{ID: authcore.MetricMFAEnrollmentStarted, Name: "authcore_mfa_enrollment_started_total", Help: "Started MFA enrollments."},
	{ID: authcore.MetricMFAEnrollmentConfirmed, Name: "authcore_mfa_enrollment_confirmed_total", Help: "Confirmed MFA enrollments."},
	{ID: authcore.MetricMFADisabled, Name: "authcore_mfa_disabled_total", Help: "MFA disable operations."},
	{ID: authcore.MetricSessionIssued, Name: "authcore_session_issued_total", Help: "Issued session tokens."},
	{ID: authcore.MetricSessionRefreshSuccess, Name: "authcore_session_refresh_success_total", Help: "Successful session refreshes."},
	{ID: authcore.MetricSessionRefreshFailure, Name: "authcore_session_refresh_failure_total", Help: "Failed session refreshes."},
}

// AuditDroppedName is the exported name for dispatcher backpressure drops,
// which live outside the counter table.
const AuditDroppedName = "authcore_audit_dropped_total"

// AuditDroppedHelp describes [AuditDroppedName].
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
