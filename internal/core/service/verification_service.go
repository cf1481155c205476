package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

type verificationService struct {
	users ports.UserRepository
	codes *codeLifecycle
	log   zerolog.Logger
}

// NewVerificationService returns a VerificationService whose codes are signed
// with key.
func NewVerificationService(
	users ports.UserRepository,
	mailer ports.MailDispatcher,
	key []byte,
	opts CodeOptions,
	log zerolog.Logger,
) ports.VerificationService {
	return &verificationService{
		users: users,
		codes: newCodeLifecycle("verification code", key, mailer, verificationMail, opts, log),
		log:   log,
	}
}

func verificationMail(code string) (string, string) {
	return "Verification code for meetup!", fmt.Sprintf("<h1>%s</h1>", code)
}

// SendVerificationCode issues a fresh code, replacing any live one.
func (s *verificationService) SendVerificationCode(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email), 0)
	if err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}
	if user.Verified {
		return domain.ErrAlreadyVerified
	}

	slot, err := s.codes.issue(ctx, user.Email)
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationCode(ctx, user.ID, slot); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("verification code issued")
	return nil
}

// VerifyVerificationCode marks the account verified when providedCode matches
// the live code.
func (s *verificationService) VerifyVerificationCode(ctx context.Context, email, providedCode string) error {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email), ports.WithVerificationCode)
	if err != nil {
		return fmt.Errorf("verify verification code: %w", err)
	}
	if user.Verified {
		return domain.ErrAlreadyVerified
	}

	err = s.codes.check(user.VerificationCode, providedCode)
	switch {
	case errors.Is(err, domain.ErrCodeExpired):
		if clearErr := s.users.SetVerificationCode(ctx, user.ID, domain.ClearedCode()); clearErr != nil {
			return fmt.Errorf("verify verification code: %w", clearErr)
		}
		s.log.Info().Str("user_id", user.ID).Msg("expired verification code cleared")
		return err
	case err != nil:
		return err
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("verify verification code: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("user verified")
	return nil
}
