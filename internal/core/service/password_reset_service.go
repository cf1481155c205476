package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
	"github.com/meetup-social/meetup-api/internal/pkg/security"
)

type passwordResetService struct {
	users  ports.UserRepository
	hasher *security.PasswordHasher
	codes  *codeLifecycle
	log    zerolog.Logger
}

// NewPasswordResetService returns a PasswordResetService whose codes are
// signed with key. Verification status is not required to reset a password.
func NewPasswordResetService(
	users ports.UserRepository,
	mailer ports.MailDispatcher,
	hasher *security.PasswordHasher,
	key []byte,
	opts CodeOptions,
	log zerolog.Logger,
) ports.PasswordResetService {
	return &passwordResetService{
		users:  users,
		hasher: hasher,
		codes:  newCodeLifecycle("forgot password code", key, mailer, forgotPasswordMail, opts, log),
		log:    log,
	}
}

func forgotPasswordMail(code string) (string, string) {
	return "Reset code for password!", fmt.Sprintf("<h1>%s</h1>", code)
}

func (s *passwordResetService) SendForgotPasswordCode(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email), 0)
	if err != nil {
		return fmt.Errorf("send forgot password code: %w", err)
	}

	slot, err := s.codes.issue(ctx, user.Email)
	if err != nil {
		return err
	}
	if err := s.users.SetForgotPasswordCode(ctx, user.ID, slot); err != nil {
		return fmt.Errorf("send forgot password code: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("forgot password code issued")
	return nil
}

// VerifyForgotPasswordCode replaces the password when providedCode matches
// the live code. Success clears both the digest and its timestamp.
func (s *passwordResetService) VerifyForgotPasswordCode(ctx context.Context, email, providedCode, newPassword string) error {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email), ports.WithForgotPasswordCode)
	if err != nil {
		return fmt.Errorf("verify forgot password code: %w", err)
	}

	err = s.codes.check(user.ForgotPasswordCode, providedCode)
	switch {
	case errors.Is(err, domain.ErrCodeExpired):
		if clearErr := s.users.SetForgotPasswordCode(ctx, user.ID, domain.ClearedCode()); clearErr != nil {
			return fmt.Errorf("verify forgot password code: %w", clearErr)
		}
		s.log.Info().Str("user_id", user.ID).Msg("expired forgot password code cleared")
		return err
	case err != nil:
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("verify forgot password code: %w", err)
	}
	if err := s.users.ResetPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("verify forgot password code: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}
