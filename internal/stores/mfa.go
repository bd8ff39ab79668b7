// Package stores holds the short-lived redis records used by the MFA flows:
// enrollment secrets parked until a verifying code is accepted, and pending
// login challenges for MFA step-up. Both are TTL-bound and attempt-capped;
// neither is an account record.
package stores

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound reports a missing or expired record.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable indicates the redis backend is unreachable.
	ErrUnavailable = errors.New("mfa store unavailable")
)

const (
	fieldEmail    = "e"
	fieldSecret   = "s"
	fieldAttempts = "a"
)

// EnrollmentStore parks a freshly generated TOTP secret keyed by account
// email. The secret moves into the account record only after the holder
// proves possession with a valid code.
type EnrollmentStore struct {
	redis redis.UniversalClient
}

// NewEnrollmentStore wraps the redis client.
func NewEnrollmentStore(redisClient redis.UniversalClient) *EnrollmentStore {
	return &EnrollmentStore{redis: redisClient}
}

func enrollmentKey(email string) string {
	return "mfaenr:" + email
}

// Save parks the secret for ttl, replacing any earlier pending enrollment.
func (s *EnrollmentStore) Save(ctx context.Context, email, secret string, ttl time.Duration) error {
	key := enrollmentKey(email)
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, fieldSecret, secret)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the parked secret, or ErrNotFound when none is pending.
func (s *EnrollmentStore) Get(ctx context.Context, email string) (string, error) {
	secret, err := s.redis.HGet(ctx, enrollmentKey(email), fieldSecret).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return secret, nil
}

// Delete discards a pending enrollment.
func (s *EnrollmentStore) Delete(ctx context.Context, email string) error {
	if err := s.redis.Del(ctx, enrollmentKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Challenge is a pending MFA step-up for a password-authenticated login.
type Challenge struct {
	Email    string
	Attempts int
}

// ChallengeStore keeps pending challenges keyed by an opaque challenge ID.
type ChallengeStore struct {
	redis redis.UniversalClient
}

// NewChallengeStore wraps the redis client.
func NewChallengeStore(redisClient redis.UniversalClient) *ChallengeStore {
	return &ChallengeStore{redis: redisClient}
}

func challengeKey(id string) string {
	return "mfachl:" + id
}

// Create stores a new challenge for ttl.
func (s *ChallengeStore) Create(ctx context.Context, id, email string, ttl time.Duration) error {
	key := challengeKey(id)
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, fieldEmail, email, fieldAttempts, 0)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the challenge, or ErrNotFound once it expired or was consumed.
func (s *ChallengeStore) Get(ctx context.Context, id string) (Challenge, error) {
	fields, err := s.redis.HGetAll(ctx, challengeKey(id)).Result()
	if err != nil {
		return Challenge{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return Challenge{}, ErrNotFound
	}

	attempts, _ := strconv.Atoi(fields[fieldAttempts])
	return Challenge{Email: fields[fieldEmail], Attempts: attempts}, nil
}

// IncrementAttempts atomically bumps the failure counter and returns the new
// value, so concurrent guesses cannot slip past the cap.
func (s *ChallengeStore) IncrementAttempts(ctx context.Context, id string) (int, error) {
	attempts, err := s.redis.HIncrBy(ctx, challengeKey(id), fieldAttempts, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(attempts), nil
}

// Delete consumes the challenge. The bool reports whether it still existed.
func (s *ChallengeStore) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.redis.Del(ctx, challengeKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return removed > 0, nil
}
