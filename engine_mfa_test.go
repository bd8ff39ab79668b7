package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func enrollMFA(t *testing.T, engine *Engine, userID string) string {
	t.Helper()
	ctx := context.Background()

	enrollment, err := engine.BeginMFAEnrollment(ctx, userID)
	if err != nil {
		t.Fatalf("BeginMFAEnrollment failed: %v", err)
	}
	if enrollment.Secret == "" || enrollment.URI == "" || len(enrollment.QRCodePNG) == 0 {
		t.Fatalf("incomplete enrollment material: %+v", enrollment)
	}

	code, err := engine.totp.GenerateCode(enrollment.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if err := engine.ConfirmMFAEnrollment(ctx, userID, code); err != nil {
		t.Fatalf("ConfirmMFAEnrollment failed: %v", err)
	}
	return enrollment.Secret
}

func TestMFAEnrollmentTwoPhase(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := newMockUserStore()
	mailer := &recordingMailer{}
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	user := registerVerified(t, engine, store, mailer, "m@x.com", "Secret12345!")

	enrollment, err := engine.BeginMFAEnrollment(ctx, user.ID)
	if err != nil {
		t.Fatalf("BeginMFAEnrollment failed: %v", err)
	}

	// Nothing committed until a code confirms possession.
	if got := store.record(user.ID); got.MFAEnabled || got.MFASecret != "" {
		t.Fatal("secret must not be persisted before confirmation")
	}

	if err := engine.ConfirmMFAEnrollment(ctx, user.ID, "000000"); !errors.Is(err, ErrMFACodeInvalid) {
		t.Fatalf("bad code error = %v, want ErrMFACodeInvalid", err)
	}

	code, err := engine.totp.GenerateCode(enrollment.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if err := engine.ConfirmMFAEnrollment(ctx, user.ID, code); err != nil {
		t.Fatalf("ConfirmMFAEnrollment failed: %v", err)
	}

	got := store.record(user.ID)
	if !got.MFAEnabled || got.MFASecret != enrollment.Secret {
		t.Fatalf("confirmation did not persist the secret: %+v", got)
	}

	// The parked enrollment is consumed; a second confirm has nothing left.
	if err := engine.ConfirmMFAEnrollment(ctx, user.ID, code); !errors.Is(err, ErrMFAEnrollmentNotFound) {
		t.Fatalf("replayed confirm error = %v, want ErrMFAEnrollmentNotFound", err)
	}
}

func TestMFAEnrollmentExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := newMockUserStore()
	mailer := &recordingMailer{}
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	user := registerVerified(t, engine, store, mailer, "n@x.com", "Secret12345!")

	enrollment, err := engine.BeginMFAEnrollment(ctx, user.ID)
	if err != nil {
		t.Fatalf("BeginMFAEnrollment failed: %v", err)
	}
	mr.FastForward(11 * time.Minute)

	code, err := engine.totp.GenerateCode(enrollment.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if err := engine.ConfirmMFAEnrollment(ctx, user.ID, code); !errors.Is(err, ErrMFAEnrollmentNotFound) {
		t.Fatalf("expired enrollment error = %v, want ErrMFAEnrollmentNotFound", err)
	}
}

func TestLoginMFAStepUp(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := newMockUserStore()
	mailer := &recordingMailer{}
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	user := registerVerified(t, engine, store, mailer, "o@x.com", "Secret12345!")
	secret := enrollMFA(t, engine, user.ID)

	result, err := engine.Login(ctx, LoginInput{Email: "o@x.com", Password: "Secret12345!"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !result.MFARequired || result.ChallengeID == "" {
		t.Fatalf("expected MFA challenge, got %+v", result)
	}
	if result.Token != "" {
		t.Fatal("no session token before the step-up completes")
	}

	code, err := engine.totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	final, err := engine.ConfirmLoginMFA(ctx, result.ChallengeID, code)
	if err != nil {
		t.Fatalf("ConfirmLoginMFA failed: %v", err)
	}
	if final.Token == "" || final.MFARequired {
		t.Fatalf("unexpected final result: %+v", final)
	}

	// Challenges are single-use.
	if _, err := engine.ConfirmLoginMFA(ctx, result.ChallengeID, code); !errors.Is(err, ErrMFAChallengeInvalid) {
		t.Fatalf("replayed challenge error = %v, want ErrMFAChallengeInvalid", err)
	}
}

func TestLoginMFAAttemptCap(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := newMockUserStore()
	mailer := &recordingMailer{}
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	user := registerVerified(t, engine, store, mailer, "p@x.com", "Secret12345!")
	enrollMFA(t, engine, user.ID)

	result, err := engine.Login(ctx, LoginInput{Email: "p@x.com", Password: "Secret12345!"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		_, err := engine.ConfirmLoginMFA(ctx, result.ChallengeID, "999999")
		if !errors.Is(err, ErrMFACodeInvalid) {
			t.Fatalf("attempt %d: error = %v, want ErrMFACodeInvalid", i+1, err)
		}
	}
	if _, err := engine.ConfirmLoginMFA(ctx, result.ChallengeID, "999999"); !errors.Is(err, ErrMFAAttemptsExceeded) {
		t.Fatalf("capped attempt error = %v, want ErrMFAAttemptsExceeded", err)
	}

	// The challenge is consumed; MFA failures never feed the password
	// lockout, so a fresh password login still works.
	again, err := engine.Login(ctx, LoginInput{Email: "p@x.com", Password: "Secret12345!"})
	if err != nil {
		t.Fatalf("fresh login after capped challenge failed: %v", err)
	}
	if !again.MFARequired {
		t.Fatal("fresh login should issue a new challenge")
	}
}

func TestSetMFAEnabled(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := newMockUserStore()
	mailer := &recordingMailer{}
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	user := registerVerified(t, engine, store, mailer, "q@x.com", "Secret12345!")

	// Enabling without a confirmed secret is refused.
	if err := engine.SetMFAEnabled(ctx, user.ID, true); !errors.Is(err, ErrMFANotEnrolled) {
		t.Fatalf("error = %v, want ErrMFANotEnrolled", err)
	}

	enrollMFA(t, engine, user.ID)

	if err := engine.SetMFAEnabled(ctx, user.ID, false); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	got := store.record(user.ID)
	if got.MFAEnabled {
		t.Fatal("MFA should be disabled")
	}
	if got.MFASecret == "" {
		t.Fatal("secret must survive disable so re-enable skips re-enrollment")
	}

	if err := engine.SetMFAEnabled(ctx, user.ID, true); err != nil {
		t.Fatalf("re-enable failed: %v", err)
	}
	if !store.record(user.ID).MFAEnabled {
		t.Fatal("MFA should be enabled again")
	}
}
