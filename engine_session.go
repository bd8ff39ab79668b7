package authcore

import (
	"context"
	"fmt"

	"github.com/olympos-dev/authcore/token"
)

// ValidateSession verifies a session token and returns the user snapshot it
// carries, with no store round-trip. The snapshot reflects the account as
// it was at issue time; callers needing fresh attributes should refresh the
// session instead.
func (e *Engine) ValidateSession(ctx context.Context, tokenStr string) (*UserProjection, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: token required", ErrInvalidInput)
	}

	claims, err := e.tokens.Verify(tokenStr, token.PurposeSession)
	if err != nil {
		return nil, mapTokenError(err)
	}

	projection := &UserProjection{Email: claims.Email}
	if claims.User != nil {
		projection.ID = claims.User.ID
		projection.FirstName = claims.User.FirstName
		projection.LastName = claims.User.LastName
		projection.Role = claims.User.Role
		projection.MFAEnabled = claims.User.MFAEnabled
		projection.EmailVerified = claims.User.EmailVerified
	}
	return projection, nil
}

// RefreshSession redeems a valid session token for a fresh one carrying an
// up-to-date snapshot. The account is re-read so role or MFA changes made
// since issuance take effect, and a deleted account can no longer refresh.
func (e *Engine) RefreshSession(ctx context.Context, tokenStr string) (*SessionResult, error) {
	if e == nil || e.userStore == nil {
		return nil, ErrEngineNotReady
	}
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: token required", ErrInvalidInput)
	}

	claims, err := e.tokens.Verify(tokenStr, token.PurposeSession)
	if err != nil {
		mapped := mapTokenError(err)
		e.metricInc(MetricSessionRefreshFailure)
		e.emitAudit(ctx, auditEventSessionRefreshFailure, false, "", "", mapped, nil)
		return nil, mapped
	}

	user, err := e.userStore.GetByEmail(ctx, claims.Email)
	if err != nil {
		if isNotFound(err) {
			e.metricInc(MetricSessionRefreshFailure)
			e.emitAudit(ctx, auditEventSessionRefreshFailure, false, "", claims.Email, ErrUserNotFound, nil)
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	fresh, err := e.issueSession(user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricSessionRefreshSuccess)
	e.emitAudit(ctx, auditEventSessionRefreshed, true, user.ID, user.Email, nil, nil)

	return &SessionResult{
		Token: fresh,
		User:  projectUser(user),
	}, nil
}

func (e *Engine) issueSession(user UserRecord) (string, error) {
	return e.tokens.IssueSession(user.Email, token.UserSnapshot{
		ID:            user.ID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Role:          user.Role,
		MFAEnabled:    user.MFAEnabled,
		EmailVerified: user.EmailVerified,
	}, e.config.Token.SessionTTL)
}
