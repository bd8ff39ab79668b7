// Package lockout tracks failed-attempt counters and timed lock state per
// account. Lockout is lazy: there is no background sweep, so every status
// read is also a potential unlock and callers must check status before
// evaluating credentials on each attempt.
package lockout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the lockout backend is unreachable.
var ErrUnavailable = errors.New("lockout backend unavailable")

const (
	fieldCount       = "n"
	fieldLastAttempt = "la"
	fieldLockStart   = "ls"
)

// Config holds the lockout policy.
type Config struct {
	Threshold int           // failures that trigger a lock
	Duration  time.Duration // lock window
}

// Status is the answer to a lockout query.
type Status struct {
	Locked    bool
	Remaining time.Duration
	Failures  int
}

// Tracker keeps per-account failure state in a redis hash. All transitions
// are built on atomic increments, so concurrent attempts for the same
// account cannot lose updates.
type Tracker struct {
	redis  redis.UniversalClient
	config Config
	now    func() time.Time
}

// NewTracker creates a tracker with the given policy.
func NewTracker(redisClient redis.UniversalClient, cfg Config) *Tracker {
	return &Tracker{redis: redisClient, config: cfg, now: time.Now}
}

func (t *Tracker) key(accountID string) string {
	return "lck:" + accountID
}

// RecordFailure increments the failure counter and timestamps the attempt.
// Exactly one caller observes the counter reaching the threshold; that
// caller stamps lock-start. Increments past the threshold leave lock-start
// untouched. The new counter value is returned.
//
// The hash also carries an expiry of one lock window, refreshed on each
// failure and re-anchored when the lock starts. Redis reclaims stale
// counters on its own and an expired lock reads as unlocked even before
// CheckStatus gets to perform the lazy delete.
func (t *Tracker) RecordFailure(ctx context.Context, accountID string) (int, error) {
	if accountID == "" {
		return 0, nil
	}
	key := t.key(accountID)
	now := t.now()

	count, err := t.redis.HIncrBy(ctx, key, fieldCount, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := t.redis.HSet(ctx, key, fieldLastAttempt, now.Unix()).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count == int64(t.config.Threshold) {
		if err := t.redis.HSet(ctx, key, fieldLockStart, now.Unix()).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if err := t.redis.Expire(ctx, key, t.config.Duration).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return int(count), nil
}

// RecordSuccess resets the account to the unlocked state. Calling it on an
// already-unlocked account is a no-op.
func (t *Tracker) RecordSuccess(ctx context.Context, accountID string) error {
	if accountID == "" {
		return nil
	}
	if err := t.redis.Del(ctx, t.key(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// CheckStatus reports whether the account is locked and for how long. When
// the lock window has elapsed this call performs the unlock as a side
// effect: the counter resets to zero and a repeated check does not re-lock.
func (t *Tracker) CheckStatus(ctx context.Context, accountID string) (Status, error) {
	if accountID == "" {
		return Status{}, nil
	}
	key := t.key(accountID)

	fields, err := t.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return Status{}, nil
	}

	count := parseInt(fields[fieldCount])
	if count < t.config.Threshold {
		return Status{Failures: count}, nil
	}

	lockStart := parseInt(fields[fieldLockStart])
	if lockStart == 0 {
		// A racing increment can observe the counter past the threshold
		// before the locking caller stamps lock-start; fall back to the
		// attempt timestamp.
		lockStart = parseInt(fields[fieldLastAttempt])
	}

	elapsed := t.now().Sub(time.Unix(int64(lockStart), 0))
	remaining := t.config.Duration - elapsed
	if remaining <= 0 {
		if err := t.redis.Del(ctx, key).Err(); err != nil {
			return Status{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return Status{}, nil
	}

	return Status{
		Locked:    true,
		Remaining: remaining.Round(time.Second),
		Failures:  count,
	}, nil
}

// FailureCount returns the current counter without side effects.
func (t *Tracker) FailureCount(ctx context.Context, accountID string) (int, error) {
	if accountID == "" {
		return 0, nil
	}
	raw, err := t.redis.HGet(ctx, t.key(accountID), fieldCount).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return parseInt(raw), nil
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
