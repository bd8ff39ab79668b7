package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/olympos-dev/authcore/token"
)

// Register creates an unverified account and dispatches a verification
// email. Mail dispatch failure does not roll the account back: the result
// reports VerificationEmailSent=false and the caller should surface the
// resend path.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if e == nil || e.userStore == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}

	if e.breach != nil && e.config.Breach.RejectOnRegister {
		compromised, err := e.breach.Check(ctx, input.Password)
		if err != nil {
			// A corpus outage must never pass as "safe"; surface it so the
			// caller decides whether to block or warn.
			return nil, fmt.Errorf("%w: breach check: %v", ErrExternalService, err)
		}
		if compromised {
			e.metricInc(MetricRegisterBreachRejected)
			e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, ErrPasswordBreached, nil)
			return nil, ErrPasswordBreached
		}
	}

	hash, err := e.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = e.config.Account.DefaultRole
	}

	user, err := e.userStore.Create(ctx, CreateUserInput{
		Email:        email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, err, nil)
		if isDuplicate(err) {
			e.metricInc(MetricRegisterDuplicate)
		}
		return nil, err
	}

	result := &RegisterResult{
		User:                  projectUser(user),
		VerificationEmailSent: true,
	}

	verifyToken, err := e.tokens.Issue(email, token.PurposeEmailVerify, e.config.Token.EmailVerifyTTL)
	if err != nil {
		result.VerificationEmailSent = false
	} else if err := e.mailer.SendVerificationEmail(ctx, email, verifyToken); err != nil {
		result.VerificationEmailSent = false
	}
	if !result.VerificationEmailSent {
		e.metricInc(MetricVerificationEmailFailed)
		e.emitAudit(ctx, auditEventVerificationEmailFailed, false, user.ID, email, ErrExternalService, nil)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, email, nil, nil)

	return result, nil
}

// ResendVerification issues a fresh verification token for the address. To
// avoid account enumeration the call reports success for unknown and
// already-verified addresses without dispatching anything.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
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
	if user.EmailVerified {
		return nil
	}

	verifyToken, err := e.tokens.Issue(email, token.PurposeEmailVerify, e.config.Token.EmailVerifyTTL)
	if err != nil {
		return err
	}
	if err := e.mailer.SendVerificationEmail(ctx, email, verifyToken); err != nil {
		e.emitAudit(ctx, auditEventVerificationEmailFailed, false, user.ID, email, ErrExternalService, nil)
		return fmt.Errorf("%w: mail dispatch: %v", ErrExternalService, err)
	}

	e.emitAudit(ctx, auditEventVerificationEmailResent, true, user.ID, email, nil, nil)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, ErrEmailExists)
}
