package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

const (
	commentsPerPage = 10
	upvotePoints    = 5
	pictureFolder   = "comments"
)

type commentService struct {
	comments  ports.CommentRepository
	posts     ports.PostRepository
	pictures  ports.PictureStore
	followUps ports.FollowUpQueue
	now       func() time.Time
	log       zerolog.Logger
}

// NewCommentService returns a CommentService. pictures may be nil, in which
// case comments carrying a picture are rejected.
func NewCommentService(
	comments ports.CommentRepository,
	posts ports.PostRepository,
	pictures ports.PictureStore,
	followUps ports.FollowUpQueue,
	log zerolog.Logger,
) ports.CommentService {
	return &commentService{
		comments:  comments,
		posts:     posts,
		pictures:  pictures,
		followUps: followUps,
		now:       time.Now,
		log:       log,
	}
}

// List returns a page of comments on postID, newest first.
func (s *commentService) List(ctx context.Context, postID string, page int) ([]*domain.Comment, error) {
	out, err := s.comments.ListByPost(ctx, postID, ports.Page{Number: page, Size: commentsPerPage})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

func (s *commentService) Create(ctx context.Context, caller domain.Principal, in ports.CreateCommentInput) (*domain.Comment, error) {
	exists, err := s.posts.Exists(ctx, in.PostID)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if !exists {
		return nil, domain.ErrPostNotFound
	}

	body := strings.TrimSpace(in.Body)
	if body == "" && in.Picture == nil {
		return nil, domain.ErrEmptyComment
	}

	var pictureURL string
	if in.Picture != nil {
		if pictureURL, err = s.storePicture(ctx, *in.Picture); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	created, err := s.comments.Create(ctx, &domain.Comment{
		Body:      body,
		Picture:   pictureURL,
		PostID:    in.PostID,
		UserID:    caller.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.followUps.Enqueue(ports.FollowUp{Kind: ports.FollowUpCommentsCount, TargetID: in.PostID, Delta: 1})
	s.log.Info().Str("comment_id", created.ID).Str("post_id", in.PostID).Msg("comment created")
	return created, nil
}

func (s *commentService) storePicture(ctx context.Context, upload ports.PictureUpload) (string, error) {
	if s.pictures == nil {
		return "", domain.ErrUploadsUnavailable
	}
	if upload.Size > domain.MaxPictureBytes {
		return "", domain.ErrInvalidPicture
	}
	ext, ok := domain.CommentPictureExt(upload.ContentType)
	if !ok {
		return "", domain.ErrInvalidPicture
	}
	url, err := s.pictures.Put(ctx, pictureFolder, upload, ext)
	if err != nil {
		return "", fmt.Errorf("store comment picture: %w", err)
	}
	return url, nil
}

// owned loads comment id and checks that caller wrote it.
func (s *commentService) owned(ctx context.Context, caller domain.Principal, id string) (*domain.Comment, error) {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != caller.UserID {
		return nil, domain.ErrForbidden
	}
	return c, nil
}

func (s *commentService) Update(ctx context.Context, caller domain.Principal, id, body string) (*domain.Comment, error) {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return nil, err
	}
	updated, err := s.comments.UpdateBody(ctx, id, strings.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return updated, nil
}

func (s *commentService) Delete(ctx context.Context, caller domain.Principal, id string) error {
	c, err := s.owned(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	s.followUps.Enqueue(ports.FollowUp{Kind: ports.FollowUpCommentsCount, TargetID: c.PostID, Delta: -1})
	return nil
}

// AddUpvote marks the comment as the accepted answer and credits solverID.
func (s *commentService) AddUpvote(ctx context.Context, caller domain.Principal, id, solverID string) error {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c.Upvoted {
		return domain.ErrAlreadyUpvoted
	}
	if err := s.comments.SetUpvote(ctx, id, caller.UserID); err != nil {
		return fmt.Errorf("add upvote: %w", err)
	}
	s.followUps.Enqueue(ports.FollowUp{Kind: ports.FollowUpUserPoints, TargetID: solverID, Delta: upvotePoints})
	return nil
}

// RemoveUpvote withdraws the caller's own upvote and debits solverID.
func (s *commentService) RemoveUpvote(ctx context.Context, caller domain.Principal, id, solverID string) error {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !c.Upvoted {
		return domain.ErrNotUpvoted
	}
	if c.UpvotedBy != caller.UserID {
		return domain.ErrForbidden
	}
	if err := s.comments.SetUpvote(ctx, id, ""); err != nil {
		return fmt.Errorf("remove upvote: %w", err)
	}
	s.followUps.Enqueue(ports.FollowUp{Kind: ports.FollowUpUserPoints, TargetID: solverID, Delta: -upvotePoints})
	return nil
}
