package authcore

import (
	"context"
	"io"

	"github.com/olympos-dev/authcore/internal/audit"
)

// UserRecord is the full account record exchanged with [UserStore]. The
// password hash and TOTP secret never appear in engine results; callers get
// [UserProjection] instead.
type UserRecord struct {
	ID            string
	Email         string
	FirstName     string
	LastName      string
	PasswordHash  string
	Role          string
	EmailVerified bool
	MFAEnabled    bool
	MFASecret     string
}

// CreateUserInput is the input for [UserStore.Create].
type CreateUserInput struct {
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
}

// UserStore is the interface callers must implement to integrate the engine
// with their account database. Lookups for missing accounts must return
// [ErrUserNotFound]; Create must return [ErrEmailExists] on a duplicate
// email. Email comparison is case-insensitive; the engine always passes
// lowercased addresses.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (UserRecord, error)
	GetByID(ctx context.Context, id string) (UserRecord, error)
	Create(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	SetEmailVerified(ctx context.Context, userID string) error
	SetMFA(ctx context.Context, userID string, enabled bool, secret string) error
}

// Mailer dispatches out-of-band verification and reset messages. The token
// is the opaque credential to embed in the link; the engine never builds
// URLs itself.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
}

// NoOpMailer discards all messages. Useful in tests and for deployments
// that dispatch mail out of process.
type NoOpMailer struct{}

func (NoOpMailer) SendVerificationEmail(context.Context, string, string) error  { return nil }
func (NoOpMailer) SendPasswordResetEmail(context.Context, string, string) error { return nil }

// CaptchaVerifier evaluates a CAPTCHA assertion. [captcha.Client] satisfies
// this interface.
type CaptchaVerifier interface {
	Verify(ctx context.Context, assertion, remoteIP string) error
}

// BreachChecker reports whether a password appears in a breach corpus.
// [breach.Client] satisfies this interface.
type BreachChecker interface {
	Check(ctx context.Context, password string) (bool, error)
}

// UserProjection is the public-safe view of an account returned by engine
// flows. It never carries the password hash or the TOTP secret.
type UserProjection struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"firstname,omitempty"`
	LastName      string `json:"lastname,omitempty"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	MFAEnabled    bool   `json:"mfa_enabled"`
}

func projectUser(u UserRecord) UserProjection {
	return UserProjection{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		MFAEnabled:    u.MFAEnabled,
	}
}

// RegisterInput is the input for [Engine.Register].
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

// RegisterResult is returned by [Engine.Register]. VerificationEmailSent is
// false when the account was created but mail dispatch failed; the account
// exists and the caller should surface the resend path.
type RegisterResult struct {
	User                  UserProjection
	VerificationEmailSent bool
}

// LoginInput is the input for [Engine.Login].
type LoginInput struct {
	Email            string
	Password         string
	CaptchaAssertion string
}

// LoginResult is returned by [Engine.Login] and [Engine.ConfirmLoginMFA].
// When MFARequired is set, Token is empty and the caller must complete the
// step-up via [Engine.ConfirmLoginMFA] with ChallengeID.
type LoginResult struct {
	Token string
	User  UserProjection

	MFARequired bool
	ChallengeID string
}

// VerifyEmailResult is returned by [Engine.VerifyEmail]. AlreadyVerified
// marks the idempotent re-verification case.
type VerifyEmailResult struct {
	User            UserProjection
	AlreadyVerified bool
}

// SessionResult is returned by [Engine.RefreshSession].
type SessionResult struct {
	Token string
	User  UserProjection
}

// MFAEnrollment is returned by [Engine.BeginMFAEnrollment]. The secret and
// QR image are shown to the user exactly once; the engine parks the secret
// server-side until a code confirms possession.
type MFAEnrollment struct {
	Secret    string
	URI       string
	QRCodePNG []byte
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = audit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = audit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = audit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = audit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
