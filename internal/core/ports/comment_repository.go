package ports

import (
	"context"

	"github.com/meetup-social/meetup-api/internal/core/domain"
)

type CommentRepository interface {
	ListByPost(ctx context.Context, postID string, page Page) ([]*domain.Comment, error)
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	Create(ctx context.Context, c *domain.Comment) (*domain.Comment, error)
	UpdateBody(ctx context.Context, id, body string) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
	// SetUpvote records upvotedBy, or clears the upvote when upvotedBy is empty.
	SetUpvote(ctx context.Context, id, upvotedBy string) error
}

type PostRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	IncrementCommentsCount(ctx context.Context, id string, delta int) error
}
