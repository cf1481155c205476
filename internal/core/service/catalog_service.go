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

const catalogPerPage = 10

// catalogService serves one kind of catalog item. Books and playlists share
// the implementation and differ only in their repository and kind.
type catalogService struct {
	kind domain.CatalogKind
	repo ports.CatalogRepository
	now  func() time.Time
	log  zerolog.Logger
}

func NewCatalogService(kind domain.CatalogKind, repo ports.CatalogRepository, log zerolog.Logger) ports.CatalogService {
	return &catalogService{
		kind: kind,
		repo: repo,
		now:  time.Now,
		log:  log.With().Str("catalog", string(kind)).Logger(),
	}
}

func (s *catalogService) Kind() domain.CatalogKind { return s.kind }

func (s *catalogService) Get(ctx context.Context, id string) (*domain.CatalogItem, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a page of items, newest first.
func (s *catalogService) List(ctx context.Context, page int) ([]*domain.CatalogItem, error) {
	return s.list(ctx, ports.CatalogFilter{}, page)
}

// ListByOwner returns a page of items published by ownerID, oldest first.
func (s *catalogService) ListByOwner(ctx context.Context, ownerID string, page int) ([]*domain.CatalogItem, error) {
	return s.list(ctx, ports.CatalogFilter{OwnerID: ownerID, OldestFirst: true}, page)
}

// Search matches term against titles, case-insensitively.
func (s *catalogService) Search(ctx context.Context, term string, page int) ([]*domain.CatalogItem, error) {
	return s.list(ctx, ports.CatalogFilter{TitleSearch: strings.TrimSpace(term)}, page)
}

func (s *catalogService) list(ctx context.Context, filter ports.CatalogFilter, page int) ([]*domain.CatalogItem, error) {
	items, err := s.repo.List(ctx, filter, ports.Page{Number: page, Size: catalogPerPage})
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", s.kind, err)
	}
	return items, nil
}

func (s *catalogService) Create(ctx context.Context, caller domain.Principal, in ports.CatalogInput) (*domain.CatalogItem, error) {
	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.CatalogItem{
		Kind:          s.kind,
		Title:         in.Title,
		Description:   in.Description,
		ThumbnailLink: in.ThumbnailLink,
		Link:          in.Link,
		UserID:        caller.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.kind, err)
	}
	s.log.Info().Str("id", created.ID).Str("user_id", caller.UserID).Msg("catalog item created")
	return created, nil
}

func (s *catalogService) Update(ctx context.Context, id string, in ports.CatalogInput) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	item.Title = in.Title
	item.Description = in.Description
	item.ThumbnailLink = in.ThumbnailLink
	item.Link = in.Link
	item.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, item); err != nil {
		return fmt.Errorf("update %s: %w", s.kind, err)
	}
	return nil
}

func (s *catalogService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", s.kind, err)
	}
	return nil
}
