package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginFullLifecycle(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := newMockUserStore()
	mailer := &recordingMailer{}
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	reg, err := engine.Register(ctx, RegisterInput{Email: "A@X.com", Password: "Secret12345!"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if reg.User.EmailVerified {
		t.Fatal("new account must start unverified")
	}
	if reg.User.Email != "a@x.com" {
		t.Fatalf("email not normalized: %q", reg.User.Email)
	}
	if !reg.VerificationEmailSent {
		t.Fatal("verification email should have been dispatched")
	}

	// Login before verification fails without touching lockout counters.
	_, err = engine.Login(ctx, LoginInput{Email: "a@x.com", Password: "Secret12345!"})
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("unverified login error = %v, want ErrEmailNotVerified", err)
	}

	verify, err := engine.VerifyEmail(ctx, mailer.lastVerification(t))
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	if verify.AlreadyVerified {
		t.Fatal("first verification must not report AlreadyVerified")
	}

	result, err := engine.Login(ctx, LoginInput{Email: "a@x.com", Password: "Secret12345!"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected session token")
	}
	if result.MFARequired {
		t.Fatal("MFA must not be required for a plain account")
	}
	if result.User.ID != reg.User.ID || result.User.Role != "user" {
		t.Fatalf("unexpected projection: %+v", result.User)
	}

	projection, err := engine.ValidateSession(ctx, result.Token)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if projection.ID != reg.User.ID || projection.Email != "a@x.com" {
		t.Fatalf("unexpected session snapshot: %+v", projection)
	}
}

func TestVerifyEmailIdempotent(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := newMockUserStore()
	mailer := &recordingMailer{}
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	registerVerified(t, engine, store, mailer, "b@x.com", "Secret12345!")

	// A fresh token for the same subject must succeed with the flag, not
	// an error.
	if err := engine.ResendVerification(ctx, "b@x.com"); err != nil {
		t.Fatalf("ResendVerification failed: %v", err)
	}
	// Already-verified accounts get no new mail; reuse the original token.
	result, err := engine.VerifyEmail(ctx, mailer.lastVerification(t))
	if err != nil {
		t.Fatalf("second VerifyEmail failed: %v", err)
	}
	if !result.AlreadyVerified {
		t.Fatal("expected AlreadyVerified on re-verification")
	}
}

func TestLoginUnknownUser(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb, newMockUserStore(), &recordingMailer{})

	_, err := engine.Login(context.Background(), LoginInput{Email: "ghost@x.com", Password: "whatever12345"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}
}

func TestLoginLockoutAfterThreshold(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := newMockUserStore()
	mailer := &recordingMailer{}
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	registerVerified(t, engine, store, mailer, "c@x.com", "Secret12345!")

	var lastCred *CredentialsError
	for i := 0; i < 5; i++ {
		_, err := engine.Login(ctx, LoginInput{Email: "c@x.com", Password: "wrong-password"})
		var credErr *CredentialsError
		if !errors.As(err, &credErr) {
			t.Fatalf("attempt %d: error = %v, want CredentialsError", i+1, err)
		}
		lastCred = credErr
	}
	if lastCred.AttemptsRemaining != 0 {
		t.Fatalf("5th attempt reported %d attempts remaining, want 0", lastCred.AttemptsRemaining)
	}

	// Locked now, even with the correct password: the lockout check runs
	// before the comparison so a locked account never leaks correctness.
	_, err := engine.Login(ctx, LoginInput{Email: "c@x.com", Password: "Secret12345!"})
	var lockErr *LockoutError
	if !errors.As(err, &lockErr) {
		t.Fatalf("locked login error = %v, want LockoutError", err)
	}
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatal("LockoutError must unwrap to ErrAccountLocked")
	}
	if lockErr.Remaining <= 0 || lockErr.Remaining > 15*time.Minute {
		t.Fatalf("remaining = %v, want within (0, 15m]", lockErr.Remaining)
	}

	// After the window the next attempt unlocks lazily and succeeds.
	mr.FastForward(15*time.Minute + time.Second)
	result, err := engine.Login(ctx, LoginInput{Email: "c@x.com", Password: "Secret12345!"})
	if err != nil {
		t.Fatalf("post-window login failed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected session token after lazy unlock")
	}
}

func TestLoginFailureCounterResetsOnSuccess(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := newMockUserStore()
	mailer := &recordingMailer{}
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	registerVerified(t, engine, store, mailer, "d@x.com", "Secret12345!")

	for i := 0; i < 3; i++ {
		if _, err := engine.Login(ctx, LoginInput{Email: "d@x.com", Password: "nope-nope"}); err == nil {
			t.Fatal("wrong password must fail")
		}
	}
	if _, err := engine.Login(ctx, LoginInput{Email: "d@x.com", Password: "Secret12345!"}); err != nil {
		t.Fatalf("correct login failed: %v", err)
	}

	// Counter was reset: a new failure reports a full allowance again.
	_, err := engine.Login(ctx, LoginInput{Email: "d@x.com", Password: "nope-nope"})
	var credErr *CredentialsError
	if !errors.As(err, &credErr) {
		t.Fatalf("error = %v, want CredentialsError", err)
	}
	if credErr.AttemptsRemaining != 3 {
		t.Fatalf("AttemptsRemaining = %d, want 3 after reset", credErr.AttemptsRemaining)
	}
}

func TestLoginCaptcha(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := newMockUserStore()
	mailer := &recordingMailer{}

	cv := &stubCaptcha{}
	engine := newTestEngine(t, rdb, store, mailer, func(b *Builder) {
		b.WithCaptchaVerifier(cv)
	})
	ctx := context.Background()

	registerVerified(t, engine, store, mailer, "e@x.com", "Secret12345!")

	if _, err := engine.Login(ctx, LoginInput{Email: "e@x.com", Password: "Secret12345!", CaptchaAssertion: "tok"}); err != nil {
		t.Fatalf("login with passing captcha failed: %v", err)
	}
	if cv.calls == 0 {
		t.Fatal("captcha verifier was never consulted")
	}

	cv.err = ErrCaptchaRejected
	_, err := engine.Login(ctx, LoginInput{Email: "e@x.com", Password: "Secret12345!", CaptchaAssertion: "bad"})
	if !errors.Is(err, ErrCaptchaRejected) {
		t.Fatalf("error = %v, want ErrCaptchaRejected", err)
	}
}

func TestLoginEmitsAuditEvents(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := newMockUserStore()
	mailer := &recordingMailer{}
	sink := NewChannelSink(64)
	engine := newTestEngine(t, rdb, store, mailer, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	ctx := WithClientIP(context.Background(), "203.0.113.9")

	registerVerified(t, engine, store, mailer, "f@x.com", "Secret12345!")
	if _, err := engine.Login(ctx, LoginInput{Email: "f@x.com", Password: "Secret12345!"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	engine.Close()

	var sawLogin bool
	for {
		select {
		case event := <-sink.Events():
			if event.EventType == "login_success" {
				sawLogin = true
				if event.IP != "203.0.113.9" {
					t.Fatalf("event IP = %q, want client IP from context", event.IP)
				}
				if !event.Success {
					t.Fatal("login_success event must be marked successful")
				}
			}
		default:
			if !sawLogin {
				t.Fatal("no login_success audit event emitted")
			}
			return
		}
	}
}
