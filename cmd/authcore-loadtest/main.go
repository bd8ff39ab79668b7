// Command authcore-loadtest measures throughput and latency of the two hot
// engine paths: stateless session validation and full password login.
//
// It seeds verified accounts into an in-memory store, logs each one in once
// to collect session tokens, then runs two timed phases and prints latency
// percentiles per phase. Redis defaults to embedded miniredis so the tool is
// self-contained; point it at a real instance with -redis-addr to measure
// lockout round-trips over the network.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/olympos-dev/authcore"
)

const seedPassword = "correct-horse-battery"

func main() {
	var (
		users       = flag.Int("users", 1000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase (validate + login)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := newMemStore()

	cfg := authcore.Config{}
	cfg.Token.Secret = []byte("loadtest-only-secret-0123456789abcdef")
	// Interactive-grade hashing cost would dominate the measurement; the
	// tool measures engine overhead, not argon2 tuning.
	cfg.Pswd = authcore.PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(store).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	emails := make([]string, *users)
	tokens := make([]string, *users)

	fmt.Printf("seeding %d accounts...\n", *users)
	startSeed := time.Now()
	for i := 0; i < *users; i++ {
		email := fmt.Sprintf("load-%d@example.com", i)
		result, err := engine.Register(ctx, authcore.RegisterInput{
			Email:     email,
			FirstName: "Load",
			Password:  seedPassword,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "register failed: %v\n", err)
			os.Exit(1)
		}
		if err := store.SetEmailVerified(ctx, result.User.ID); err != nil {
			fmt.Fprintf(os.Stderr, "verify failed: %v\n", err)
			os.Exit(1)
		}

		login, err := engine.Login(ctx, authcore.LoginInput{Email: email, Password: seedPassword})
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed login failed: %v\n", err)
			os.Exit(1)
		}
		emails[i] = email
		tokens[i] = login.Token
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validateStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		_, err := engine.ValidateSession(ctx, tokens[r.Intn(len(tokens))])
		return err
	})
	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		_, err := engine.Login(ctx, authcore.LoginInput{
			Email:    emails[r.Intn(len(emails))],
			Password: seedPassword,
		})
		return err
	})

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("login", loginStats)
}

func runPhase(ops, concurrency int, op func(*rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// memStore is a minimal in-memory account store for the load tool.
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
