package domain

import "time"

// Author is the public slice of a user attached to listed comments.
type Author struct {
	ID             string `json:"_id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ProfilePicture string `json:"profilePicture"`
}

type Comment struct {
	ID        string    `json:"_id"`
	Body      string    `json:"commentBody,omitempty"`
	Picture   string    `json:"commentPicture,omitempty"`
	Upvoted   bool      `json:"upvoted"`
	UpvotedBy string    `json:"upvotedBy,omitempty"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Author    *Author   `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Picture upload constraints.
const MaxPictureBytes = 2_000_000

var commentPictureTypes = map[string]string{
	"image/png":  ".png",
	"image/jpg":  ".jpg",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

// CommentPictureExt returns the stored extension for an accepted comment
// picture content type.
func CommentPictureExt(contentType string) (string, bool) {
	ext, ok := commentPictureTypes[contentType]
	return ext, ok
}
