package ports

import (
	"context"

	"github.com/meetup-social/meetup-api/internal/core/domain"
)

// CatalogFilter narrows a catalog listing. Empty fields do not filter.
type CatalogFilter struct {
	OwnerID     string
	TitleSearch string
	OldestFirst bool
}

// CatalogRepository stores one kind of catalog item.
type CatalogRepository interface {
	FindByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	List(ctx context.Context, filter CatalogFilter, page Page) ([]*domain.CatalogItem, error)
	Create(ctx context.Context, item *domain.CatalogItem) (*domain.CatalogItem, error)
	Update(ctx context.Context, item *domain.CatalogItem) error
	Delete(ctx context.Context, id string) error
}

// CatalogInput carries the editable fields of a catalog item.
type CatalogInput struct {
	Title         string
	Description   string
	ThumbnailLink string
	Link          string
}

type CatalogService interface {
	Kind() domain.CatalogKind
	Get(ctx context.Context, id string) (*domain.CatalogItem, error)
	List(ctx context.Context, page int) ([]*domain.CatalogItem, error)
	ListByOwner(ctx context.Context, ownerID string, page int) ([]*domain.CatalogItem, error)
	Search(ctx context.Context, term string, page int) ([]*domain.CatalogItem, error)
	Create(ctx context.Context, caller domain.Principal, in CatalogInput) (*domain.CatalogItem, error)
	Update(ctx context.Context, id string, in CatalogInput) error
	Delete(ctx context.Context, id string) error
}
