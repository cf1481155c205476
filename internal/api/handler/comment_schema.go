package handler

// createCommentRequest is bound from JSON or multipart form fields. The
// optional picture travels in the "comment-picture" file part.
type createCommentRequest struct {
	CommentBody string `json:"commentBody" form:"commentBody"`
}

type updateCommentRequest struct {
	CommentBody string `json:"commentBody" form:"commentBody" validate:"required"`
}

const commentPictureField = "comment-picture"
