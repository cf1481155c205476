package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

const usersPerPage = 10

type userService struct {
	users     ports.UserRepository
	followUps ports.FollowUpQueue
	log       zerolog.Logger
}

// NewUserService returns a UserService. The caller's following set is the
// primary write of a follow; the target's followers set is updated through
// followUps.
func NewUserService(users ports.UserRepository, followUps ports.FollowUpQueue, log zerolog.Logger) ports.UserService {
	return &userService{users: users, followUps: followUps, log: log}
}

func (s *userService) List(ctx context.Context, page int) ([]*domain.User, error) {
	return s.list(ctx, ports.UserFilter{}, page)
}

// ListTeachers returns a page of accounts with the teacher role.
func (s *userService) ListTeachers(ctx context.Context, page int) ([]*domain.User, error) {
	return s.list(ctx, ports.UserFilter{Role: domain.RoleTeacher}, page)
}

func (s *userService) list(ctx context.Context, filter ports.UserFilter, page int) ([]*domain.User, error) {
	users, err := s.users.List(ctx, filter, ports.Page{Number: page, Size: usersPerPage})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *userService) Follow(ctx context.Context, caller domain.Principal, targetID string) error {
	if targetID == caller.UserID {
		return domain.ErrSelfFollow
	}
	if _, err := s.users.FindByID(ctx, targetID, 0); err != nil {
		return err
	}

	added, err := s.users.AddFollowing(ctx, caller.UserID, targetID)
	if err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	if !added {
		return domain.ErrAlreadyFollowing
	}

	s.followUps.Enqueue(ports.FollowUp{Kind: ports.FollowUpFollowers, TargetID: targetID, ActorID: caller.UserID, Delta: 1})
	s.log.Info().Str("user_id", caller.UserID).Str("target_id", targetID).Msg("user followed")
	return nil
}

// Unfollow does not require the target to still exist.
func (s *userService) Unfollow(ctx context.Context, caller domain.Principal, targetID string) error {
	if targetID == caller.UserID {
		return domain.ErrSelfFollow
	}

	removed, err := s.users.RemoveFollowing(ctx, caller.UserID, targetID)
	if err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	if !removed {
		return domain.ErrNotFollowing
	}

	s.followUps.Enqueue(ports.FollowUp{Kind: ports.FollowUpFollowers, TargetID: targetID, ActorID: caller.UserID, Delta: -1})
	s.log.Info().Str("user_id", caller.UserID).Str("target_id", targetID).Msg("user unfollowed")
	return nil
}
