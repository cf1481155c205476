package handler

import (
	"github.com/meetup-social/meetup-api/internal/core/domain"
)

// --- Domain → Response ---

func toCatalogItemResponse(kind domain.CatalogKind, item *domain.CatalogItem) catalogItemResponse {
	resp := catalogItemResponse{
		ID:            item.ID,
		Title:         item.Title,
		Description:   item.Description,
		ThumbnailLink: item.ThumbnailLink,
		UserID:        item.UserID,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
	switch kind {
	case domain.KindPlaylist:
		resp.PlaylistLink = item.Link
	default:
		resp.BookLink = item.Link
	}
	return resp
}

func toCatalogItemResponses(kind domain.CatalogKind, items []*domain.CatalogItem) []catalogItemResponse {
	out := make([]catalogItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toCatalogItemResponse(kind, item))
	}
	return out
}
