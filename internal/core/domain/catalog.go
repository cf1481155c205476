package domain

import "time"

// CatalogKind distinguishes the two link collections that share a shape.
type CatalogKind string

const (
	KindBook     CatalogKind = "book"
	KindPlaylist CatalogKind = "playlist"
)

// CatalogItem is a book or a playlist: a titled external link published by
// a user.
type CatalogItem struct {
	ID            string      `json:"_id"`
	Kind          CatalogKind `json:"-"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	ThumbnailLink string      `json:"thumbnailLink"`
	Link          string      `json:"link"`
	UserID        string      `json:"userId"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}
