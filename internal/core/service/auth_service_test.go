package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
	"github.com/meetup-social/meetup-api/internal/pkg/security"
)

func newTestAuthService(repo *stubUserRepo) *AuthService {
	svc := NewAuthService(repo, testHasher(), security.NewSessionIssuer(testTokenSecret), nopLogger())
	svc.now = func() time.Time { return testEpoch }
	return svc
}

func signupInput(email string) ports.SignupInput {
	return ports.SignupInput{
		FirstName: "Alice",
		LastName:  "Liddell",
		Birthday:  time.Date(1995, 5, 4, 0, 0, 0, 0, time.UTC),
		Gender:    domain.GenderFemale,
		Email:     email,
		Password:  "Wonderl4nd",
	}
}

func TestAuthService_Signup_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	user, err := svc.Signup(context.Background(), signupInput("  Alice@Example.com "))
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatalf("expected password hash to be stripped from the result")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Verified {
		t.Fatalf("new users must start unverified")
	}
	if user.Role != domain.RoleGeneralUser {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if user.ProfilePicture != domain.DefaultProfilePicture {
		t.Fatalf("unexpected profile picture: %s", user.ProfilePicture)
	}

	stored := repo.stored(user.ID)
	if stored.PasswordHash == "" || stored.PasswordHash == "Wonderl4nd" {
		t.Fatalf("expected a hashed password to be stored")
	}
	if !testHasher().Verify("Wonderl4nd", stored.PasswordHash) {
		t.Fatalf("stored hash does not match password")
	}
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	if _, err := svc.Signup(context.Background(), signupInput("bob@example.com")); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	_, err := svc.Signup(context.Background(), signupInput("BOB@example.com"))
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if repo.creates != 1 {
		t.Fatalf("duplicate signup must not reach persistence, creates=%d", repo.creates)
	}
}

func TestAuthService_Signup_StoreFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("mongo: connection reset")
	svc := newTestAuthService(repo)

	_, err := svc.Signup(context.Background(), signupInput("carol@example.com"))
	if err == nil || errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}

func TestAuthService_Signin_Success(t *testing.T) {
	repo := newStubUserRepo()
	id := repo.seed("carol@example.com", true)
	svc := newTestAuthService(repo)

	session, err := svc.Signin(context.Background(), "Carol@Example.com", "Passw0rdX")
	if err != nil {
		t.Fatalf("Signin returned error: %v", err)
	}
	if session.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if session.User.PasswordHash != "" {
		t.Fatalf("session user must not carry the password hash")
	}

	principal, err := security.NewSessionIssuer(testTokenSecret).Parse(session.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if principal.UserID != id || principal.Email != "carol@example.com" || !principal.Verified || principal.Role != domain.RoleGeneralUser {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestAuthService_Signin_SameFailureForUnknownEmailAndWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("dave@example.com", false)
	svc := newTestAuthService(repo)

	_, unknownErr := svc.Signin(context.Background(), "nobody@example.com", "Passw0rdX")
	_, wrongErr := svc.Signin(context.Background(), "dave@example.com", "Wr0ngpass")

	if !errors.Is(unknownErr, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("failures must be indistinguishable: %q vs %q", unknownErr, wrongErr)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	repo := newStubUserRepo()
	id := repo.seed("erin@example.com", true)
	svc := newTestAuthService(repo)
	caller := domain.Principal{UserID: id, Email: "erin@example.com", Verified: true}

	if err := svc.ChangePassword(context.Background(), caller, "Wr0ngpass", "N3wPassword"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong old password, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), caller, "Passw0rdX", "N3wPassword"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	if !testHasher().Verify("N3wPassword", repo.stored(id).PasswordHash) {
		t.Fatalf("new password does not verify against stored hash")
	}
}

func TestAuthService_ChangePassword_RequiresVerified(t *testing.T) {
	repo := newStubUserRepo()
	id := repo.seed("frank@example.com", false)
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), domain.Principal{UserID: id}, "Passw0rdX", "N3wPassword")
	if !errors.Is(err, domain.ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}
}

func TestAuthService_ChangePassword_UnknownUser(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	err := svc.ChangePassword(context.Background(), domain.Principal{UserID: "ghost", Verified: true}, "Passw0rdX", "N3wPassword")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
