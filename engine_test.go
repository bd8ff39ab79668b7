package authcore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type mockUserStore struct {
	mu      sync.Mutex
	users   map[string]UserRecord
	byEmail map[string]string

	createErr error
	updateErr error

	createCalls         int
	updatePasswordCalls int
	setVerifiedCalls    int
	setMFACalls         int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:   make(map[string]UserRecord),
		byEmail: make(map[string]string),
	}
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *mockUserStore) GetByID(_ context.Context, id string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStore) Create(_ context.Context, input CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.createErr != nil {
		return UserRecord{}, m.createErr
	}
	if _, dup := m.byEmail[input.Email]; dup {
		return UserRecord{}, ErrEmailExists
	}

	user := UserRecord{
		ID:           fmt.Sprintf("u%d", len(m.users)+1),
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}
	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return user, nil
}

func (m *mockUserStore) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatePasswordCalls++

	if m.updateErr != nil {
		return m.updateErr
	}
	user, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = newHash
	m.users[userID] = user
	return nil
}

func (m *mockUserStore) SetEmailVerified(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setVerifiedCalls++

	user, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.EmailVerified = true
	m.users[userID] = user
	return nil
}

func (m *mockUserStore) SetMFA(_ context.Context, userID string, enabled bool, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setMFACalls++

	user, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.MFAEnabled = enabled
	user.MFASecret = secret
	m.users[userID] = user
	return nil
}

func (m *mockUserStore) record(id string) UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

type recordingMailer struct {
	mu            sync.Mutex
	verifications []string
	resets        []string
	failAll       bool
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("smtp down")
	}
	m.verifications = append(m.verifications, token)
	return nil
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("smtp down")
	}
	m.resets = append(m.resets, token)
	return nil
}

func (m *recordingMailer) lastVerification(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.verifications) == 0 {
		t.Fatal("no verification email dispatched")
	}
	return m.verifications[len(m.verifications)-1]
}

func (m *recordingMailer) lastReset(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.resets) == 0 {
		t.Fatal("no reset email dispatched")
	}
	return m.resets[len(m.resets)-1]
}

type stubCaptcha struct {
	err   error
	calls int
}

func (s *stubCaptcha) Verify(context.Context, string, string) error {
	s.calls++
	return s.err
}

type stubBreach struct {
	compromised bool
	err         error
}

func (s *stubBreach) Check(context.Context, string) (bool, error) {
	return s.compromised, s.err
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(func() { mr.Close() })

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

type testEngineOption func(*Builder)

func newTestEngine(t *testing.T, rdb *redis.Client, store UserStore, mailer Mailer, opts ...testEngineOption) *Engine {
	t.Helper()

	cfg := defaultConfig()
	cfg.Token.Secret = testSecret
	// Cheap argon2 parameters keep the suite fast.
	cfg.Pswd = PasswordConfig{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	b := New().WithConfig(cfg).WithRedis(rdb).WithUserStore(store).WithMailer(mailer)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func registerVerified(t *testing.T, engine *Engine, store *mockUserStore, mailer *recordingMailer, email, pw string) UserRecord {
	t.Helper()
	ctx := context.Background()

	result, err := engine.Register(ctx, RegisterInput{Email: email, Password: pw})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := engine.VerifyEmail(ctx, mailer.lastVerification(t)); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	return store.record(result.User.ID)
}
