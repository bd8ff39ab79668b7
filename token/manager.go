package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose declares the single intent a token is valid for.
type Purpose string

const (
	// PurposeEmailVerify scopes a token to confirming an email address.
	PurposeEmailVerify Purpose = "email_verify"
	// PurposePasswordReset scopes a token to resetting a password.
	PurposePasswordReset Purpose = "password_reset"
	// PurposeSession scopes a token to authenticating requests.
	PurposeSession Purpose = "session"
)

var (
	// ErrExpired reports a correctly signed token whose expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrInvalid reports a token that fails signature or structural checks.
	ErrInvalid = errors.New("token invalid")
	// ErrPurposeMismatch reports a valid token presented for the wrong purpose.
	ErrPurposeMismatch = errors.New("token purpose mismatch")
)

// UserSnapshot is the public-safe attribute set embedded in session tokens.
// It never includes the password hash or the MFA secret.
type UserSnapshot struct {
	ID            string `json:"id"`
	FirstName     string `json:"firstname,omitempty"`
	LastName      string `json:"lastname,omitempty"`
	Role          string `json:"role,omitempty"`
	MFAEnabled    bool   `json:"mfa,omitempty"`
	EmailVerified bool   `json:"verified,omitempty"`
}

// Claims is the signed payload of a purpose token.
type Claims struct {
	Email   string        `json:"email"`
	Purpose Purpose       `json:"purpose"`
	User    *UserSnapshot `json:"user,omitempty"`
	jwt.RegisteredClaims
}

// Config holds the signing parameters for a Manager.
type Config struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
}

// Manager signs and verifies purpose tokens. Issuance and verification are
// pure computation; a Manager is safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates the signing configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// Issue signs a token asserting the given purpose for subjectEmail, expiring
// after ttl.
func (m *Manager) Issue(subjectEmail string, purpose Purpose, ttl time.Duration) (string, error) {
	return m.sign(subjectEmail, purpose, nil, ttl)
}

// IssueSession signs a session token that additionally embeds the user
// snapshot.
func (m *Manager) IssueSession(subjectEmail string, user UserSnapshot, ttl time.Duration) (string, error) {
	return m.sign(subjectEmail, PurposeSession, &user, ttl)
}

func (m *Manager) sign(subjectEmail string, purpose Purpose, user *UserSnapshot, ttl time.Duration) (string, error) {
	if subjectEmail == "" {
		return "", errors.New("empty token subject")
	}
	if ttl == 0 {
		return "", errors.New("zero token ttl")
	}

	now := time.Now()
	claims := Claims{
		Email:   subjectEmail,
		Purpose: purpose,
		User:    user,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectEmail,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Verify checks the signature, expiry, and purpose of tokenStr. The
// signature is verified before any claim is read. Failure modes are
// distinguishable: [ErrExpired] for a signed-but-stale token, [ErrInvalid]
// for signature or structural failures, [ErrPurposeMismatch] when a valid
// token was minted for another purpose.
func (m *Manager) Verify(tokenStr string, expected Purpose) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.Email == "" {
		return nil, ErrInvalid
	}
	if claims.Purpose != expected {
		return nil, ErrPurposeMismatch
	}

	return claims, nil
}
