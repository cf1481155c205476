package ports

import (
	"context"
	"time"

	"github.com/meetup-social/meetup-api/internal/core/domain"
)

// SignupInput carries validated signup fields.
type SignupInput struct {
	FirstName string
	LastName  string
	Birthday  time.Time
	Gender    domain.Gender
	Email     string
	Password  string
}

// Session is the result of a successful signin.
type Session struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	Signin(ctx context.Context, email, password string) (*Session, error)
	ChangePassword(ctx context.Context, caller domain.Principal, oldPassword, newPassword string) error
}

type VerificationService interface {
	SendVerificationCode(ctx context.Context, email string) error
	VerifyVerificationCode(ctx context.Context, email, providedCode string) error
}

type PasswordResetService interface {
	SendForgotPasswordCode(ctx context.Context, email string) error
	VerifyForgotPasswordCode(ctx context.Context, email, providedCode, newPassword string) error
}

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Parse(token string) (domain.Principal, error)
}
