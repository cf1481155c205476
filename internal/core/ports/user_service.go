package ports

import (
	"context"

	"github.com/meetup-social/meetup-api/internal/core/domain"
)

// UserService lists accounts and maintains the follow graph.
type UserService interface {
	List(ctx context.Context, page int) ([]*domain.User, error)
	ListTeachers(ctx context.Context, page int) ([]*domain.User, error)
	Follow(ctx context.Context, caller domain.Principal, targetID string) error
	Unfollow(ctx context.Context, caller domain.Principal, targetID string) error
}
