package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
	"github.com/meetup-social/meetup-api/internal/pkg/security"
)

// AuthService implements signup, signin and password change.
type AuthService struct {
	users  ports.UserRepository
	hasher *security.PasswordHasher
	tokens *security.SessionIssuer
	now    func() time.Time
	log    zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	hasher *security.PasswordHasher,
	tokens *security.SessionIssuer,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, now: time.Now, log: log}
}

// Signup creates an unverified general user. The returned record never
// carries the password hash.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)

	_, err := s.users.FindByEmail(ctx, email, 0)
	switch {
	case err == nil:
		s.log.Info().Msg("signup rejected: email already registered")
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("signup: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Birthday:       in.Birthday,
		Gender:         in.Gender,
		Email:          email,
		PasswordHash:   hash,
		ProfilePicture: domain.DefaultProfilePicture,
		CoverPicture:   domain.DefaultCoverPicture,
		Role:           domain.RoleGeneralUser,
		Following:      []string{},
		Followers:      []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Msg("user created")
	return created.Public(), nil
}

// Signin checks the credentials and mints a session token. Unknown email and
// wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*ports.Session, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email), ports.WithPassword)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.log.Info().Str("reason", "unknown_email").Msg("signin rejected")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("signin: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Info().Str("reason", "password_mismatch").Str("user_id", user.ID).Msg("signin rejected")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("signin: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user signed in")
	return &ports.Session{Token: token, User: user.Public()}, nil
}

// ChangePassword replaces the caller's password after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, caller domain.Principal, oldPassword, newPassword string) error {
	if !caller.Verified {
		return domain.ErrNotVerified
	}

	user, err := s.users.FindByID(ctx, caller.UserID, ports.WithPassword)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password changed")
	return nil
}
