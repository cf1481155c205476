package service

import (
	"context"
	"fmt"

	"github.com/meetup-social/meetup-api/internal/core/ports"
)

type followUpService struct {
	posts ports.PostRepository
	users ports.UserRepository
}

// NewFollowUpService returns the applier used by the follow-up workers.
func NewFollowUpService(posts ports.PostRepository, users ports.UserRepository) ports.FollowUpService {
	return &followUpService{posts: posts, users: users}
}

func (s *followUpService) Apply(ctx context.Context, job ports.FollowUp) error {
	switch job.Kind {
	case ports.FollowUpCommentsCount:
		return s.posts.IncrementCommentsCount(ctx, job.TargetID, job.Delta)
	case ports.FollowUpUserPoints:
		return s.users.AddPoints(ctx, job.TargetID, job.Delta)
	case ports.FollowUpFollowers:
		if job.Delta > 0 {
			return s.users.AddFollower(ctx, job.TargetID, job.ActorID)
		}
		return s.users.RemoveFollower(ctx, job.TargetID, job.ActorID)
	default:
		return fmt.Errorf("follow-up: unknown kind %q", job.Kind)
	}
}
