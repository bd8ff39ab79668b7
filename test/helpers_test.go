package test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/olympos-dev/authcore"
)

var engineSecret = []byte("integration-secret-0123456789abcdef")

// memStore is a map-backed account store for consumer-facing tests, which
// only go through the public API.
type memStore struct {
	mu      sync.RWMutex
	users   map[string]authcore.UserRecord
	byEmail map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]authcore.UserRecord),
		byEmail: make(map[string]string),
	}
}

func (s *memStore) GetByEmail(_ context.Context, email string) (authcore.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *memStore) GetByID(_ context.Context, id string) (authcore.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	return user, nil
}

func (s *memStore) Create(_ context.Context, input authcore.CreateUserInput) (authcore.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(input.Email)
	if _, exists := s.byEmail[email]; exists {
		return authcore.UserRecord{}, authcore.ErrEmailExists
	}
	user := authcore.UserRecord{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}
	s.users[user.ID] = user
	s.byEmail[email] = user.ID
	return user, nil
}

func (s *memStore) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	return s.update(userID, func(u *authcore.UserRecord) { u.PasswordHash = newHash })
}

func (s *memStore) SetEmailVerified(_ context.Context, userID string) error {
	return s.update(userID, func(u *authcore.UserRecord) { u.EmailVerified = true })
}

func (s *memStore) SetMFA(_ context.Context, userID string, enabled bool, secret string) error {
	return s.update(userID, func(u *authcore.UserRecord) {
		u.MFAEnabled = enabled
		u.MFASecret = secret
	})
}

func (s *memStore) update(userID string, fn func(*authcore.UserRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return authcore.ErrUserNotFound
	}
	fn(&user)
	s.users[userID] = user
	return nil
}

// captureMailer records the last token handed to each dispatch path.
type captureMailer struct {
	mu                sync.Mutex
	verificationToken string
	resetToken        string
}

func (m *captureMailer) SendVerificationEmail(_ context.Context, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verificationToken = token
	return nil
}

func (m *captureMailer) SendPasswordResetEmail(_ context.Context, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetToken = token
	return nil
}

func (m *captureMailer) lastVerification() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verificationToken
}

func newIntegrationEngine(t *testing.T) (*authcore.Engine, *memStore, *captureMailer) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := authcore.Config{}
	cfg.Token.Secret = engineSecret
	cfg.Pswd = authcore.PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}

	store := newMemStore()
	mailer := &captureMailer{}

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(store).
		WithMailer(mailer).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store, mailer
}
