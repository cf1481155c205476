package ports

import (
	"context"
	"io"

	"github.com/meetup-social/meetup-api/internal/core/domain"
)

// PictureUpload is an optional file attached to a comment.
type PictureUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CreateCommentInput struct {
	PostID  string
	Body    string
	Picture *PictureUpload
}

type CommentService interface {
	List(ctx context.Context, postID string, page int) ([]*domain.Comment, error)
	Create(ctx context.Context, caller domain.Principal, in CreateCommentInput) (*domain.Comment, error)
	Update(ctx context.Context, caller domain.Principal, id, body string) (*domain.Comment, error)
	Delete(ctx context.Context, caller domain.Principal, id string) error
	AddUpvote(ctx context.Context, caller domain.Principal, id, solverID string) error
	RemoveUpvote(ctx context.Context, caller domain.Principal, id, solverID string) error
}

// PictureStore persists uploaded pictures and returns their public URL.
type PictureStore interface {
	Put(ctx context.Context, folder string, upload PictureUpload, ext string) (string, error)
}
