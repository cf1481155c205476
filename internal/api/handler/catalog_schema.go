package handler

import (
	"time"

	"github.com/meetup-social/meetup-api/internal/core/ports"
)

// catalogRequest is implemented by the per-kind request bodies, which differ
// only in the name of their link field.
type catalogRequest interface {
	input() ports.CatalogInput
}

type bookRequest struct {
	Title         string `json:"title"         validate:"required,min=5"`
	Description   string `json:"description"   validate:"required,min=10"`
	ThumbnailLink string `json:"thumbnailLink" validate:"required,url"`
	BookLink      string `json:"bookLink"      validate:"required,url"`
}

func (r *bookRequest) input() ports.CatalogInput {
	return ports.CatalogInput{
		Title:         r.Title,
		Description:   r.Description,
		ThumbnailLink: r.ThumbnailLink,
		Link:          r.BookLink,
	}
}

type playlistRequest struct {
	Title         string `json:"title"         validate:"required,min=5"`
	Description   string `json:"description"   validate:"required,min=10"`
	ThumbnailLink string `json:"thumbnailLink" validate:"required,url"`
	PlaylistLink  string `json:"playlistLink"  validate:"required,url"`
}

func (r *playlistRequest) input() ports.CatalogInput {
	return ports.CatalogInput{
		Title:         r.Title,
		Description:   r.Description,
		ThumbnailLink: r.ThumbnailLink,
		Link:          r.PlaylistLink,
	}
}

// catalogItemResponse carries exactly one of BookLink and PlaylistLink.
type catalogItemResponse struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ThumbnailLink string    `json:"thumbnailLink"`
	BookLink      string    `json:"bookLink,omitempty"`
	PlaylistLink  string    `json:"playlistLink,omitempty"`
	UserID        string    `json:"userId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
