package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/pkg/security"
)

type resetFixture struct {
	repo   *stubUserRepo
	mailer *stubMailer
	clock  *fakeClock
	svc    *passwordResetService
	userID string
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	f := &resetFixture{
		repo:   newStubUserRepo(),
		mailer: &stubMailer{},
		clock:  newFakeClock(),
	}
	f.userID = f.repo.seed("heidi@example.com", false)
	f.svc = NewPasswordResetService(f.repo, f.mailer, testHasher(), testForgotKey, testCodeOptions(f.clock), nopLogger()).(*passwordResetService)
	return f
}

func (f *resetFixture) send(t *testing.T) string {
	t.Helper()
	if err := f.svc.SendForgotPasswordCode(context.Background(), "heidi@example.com"); err != nil {
		t.Fatalf("SendForgotPasswordCode returned error: %v", err)
	}
	return f.mailer.lastCode()
}

func (f *resetFixture) reset(code, newPassword string) error {
	return f.svc.VerifyForgotPasswordCode(context.Background(), "heidi@example.com", code, newPassword)
}

func TestPasswordReset_ExpiredAfter301Seconds(t *testing.T) {
	f := newResetFixture(t)
	code := f.send(t)
	oldHash := f.repo.stored(f.userID).PasswordHash

	f.clock.Advance(301 * time.Second)
	if err := f.reset(code, "Br4ndNewPass"); !errors.Is(err, domain.ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}

	stored := f.repo.stored(f.userID)
	if stored.PasswordHash != oldHash {
		t.Fatalf("password must be unchanged after expiry")
	}
	if stored.ForgotPasswordCode.IsSet() {
		t.Fatalf("expected code pair to be cleared after expiry")
	}
	if err := f.reset(code, "Br4ndNewPass"); !errors.Is(err, domain.ErrNoActiveCode) {
		t.Fatalf("expected ErrNoActiveCode after expiry, got %v", err)
	}
}

func TestPasswordReset_SucceedsWithin299Seconds(t *testing.T) {
	f := newResetFixture(t)
	code := f.send(t)

	f.clock.Advance(299 * time.Second)
	if err := f.reset(code, "Br4ndNewPass"); err != nil {
		t.Fatalf("VerifyForgotPasswordCode returned error: %v", err)
	}

	stored := f.repo.stored(f.userID)
	if !testHasher().Verify("Br4ndNewPass", stored.PasswordHash) {
		t.Fatalf("new hash does not verify against the submitted password")
	}
	if testHasher().Verify("Passw0rdX", stored.PasswordHash) {
		t.Fatalf("old password still verifies")
	}
	if stored.ForgotPasswordCode.IsSet() {
		t.Fatalf("both digest and timestamp must be cleared on success")
	}
	if err := f.reset(code, "An0therPass"); !errors.Is(err, domain.ErrNoActiveCode) {
		t.Fatalf("code must be single-use, got %v", err)
	}
}

func TestPasswordReset_WrongCodeKeepsCodeLive(t *testing.T) {
	f := newResetFixture(t)
	code := f.send(t)
	before := f.repo.stored(f.userID)

	if err := f.reset("1000000", "Br4ndNewPass"); !errors.Is(err, domain.ErrCodeIncorrect) {
		t.Fatalf("expected ErrCodeIncorrect, got %v", err)
	}
	after := f.repo.stored(f.userID)
	if after.ForgotPasswordCode != before.ForgotPasswordCode || after.PasswordHash != before.PasswordHash {
		t.Fatalf("mismatch must not change stored state")
	}
	if err := f.reset(code, "Br4ndNewPass"); err != nil {
		t.Fatalf("correct code should still verify, got %v", err)
	}
}

func TestPasswordReset_IndependentOfVerificationCode(t *testing.T) {
	f := newResetFixture(t)
	opts := testCodeOptions(f.clock)
	opts.Generator = security.NewCodeGenerator(&sequenceReader{next: 100})
	verification := NewVerificationService(f.repo, f.mailer, testVerificationKey, opts, nopLogger())

	if err := verification.SendVerificationCode(context.Background(), "heidi@example.com"); err != nil {
		t.Fatalf("SendVerificationCode returned error: %v", err)
	}
	verificationCode := f.mailer.lastCode()
	forgotCode := f.send(t)

	if verificationCode == forgotCode {
		t.Fatalf("expected distinct codes, both were %q", forgotCode)
	}
	if err := f.reset(verificationCode, "Br4ndNewPass"); !errors.Is(err, domain.ErrCodeIncorrect) {
		t.Fatalf("verification code must not reset the password, got %v", err)
	}
	if !f.repo.stored(f.userID).VerificationCode.IsSet() {
		t.Fatalf("forgot-password flow must not touch the verification pair")
	}
	if err := f.reset(forgotCode, "Br4ndNewPass"); err != nil {
		t.Fatalf("forgot code should verify, got %v", err)
	}
}

func TestPasswordReset_DispatchFailure(t *testing.T) {
	f := newResetFixture(t)
	f.mailer.reject = true

	err := f.svc.SendForgotPasswordCode(context.Background(), "heidi@example.com")
	if !errors.Is(err, domain.ErrDispatchFailed) {
		t.Fatalf("expected ErrDispatchFailed, got %v", err)
	}
	if f.repo.stored(f.userID).ForgotPasswordCode.IsSet() {
		t.Fatalf("no code may be stored without accepted dispatch")
	}
}

func TestPasswordReset_UnknownUser(t *testing.T) {
	f := newResetFixture(t)

	if err := f.svc.SendForgotPasswordCode(context.Background(), "nobody@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
