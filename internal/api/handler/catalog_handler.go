package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

const minSearchTermLen = 3

// CatalogHandler serves one catalog kind. Books and playlists share it and
// differ only in their labels and link field.
type CatalogHandler struct {
	catalogService ports.CatalogService
	label          string
	newRequest     func() catalogRequest
}

func NewCatalogHandler(catalogService ports.CatalogService) *CatalogHandler {
	h := &CatalogHandler{catalogService: catalogService}
	switch catalogService.Kind() {
	case domain.KindPlaylist:
		h.label = "Playlist"
		h.newRequest = func() catalogRequest { return &playlistRequest{} }
	default:
		h.label = "Book"
		h.newRequest = func() catalogRequest { return &bookRequest{} }
	}
	return h
}

// List returns a page of items, newest first.
//
// @Summary      List books or playlists
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "1-based page"
// @Success      200   {object}  dataResponse{data=[]catalogItemResponse}
// @Failure      401   {object}  messageResponse
// @Router       /books/get-books [get]
// @Router       /playlists/get-playlists [get]
func (h *CatalogHandler) List(c echo.Context) error {
	items, err := h.catalogService.List(c.Request().Context(), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okData(h.label+"s", toCatalogItemResponses(h.catalogService.Kind(), items)))
}

// ListByOwner returns a page of one user's items, oldest first.
//
// @Summary      List a teacher's playlists
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true   "Owner id"
// @Param        page    query     int     false  "1-based page"
// @Success      200     {object}  dataResponse{data=[]catalogItemResponse}
// @Failure      401     {object}  messageResponse
// @Router       /playlists/get-teacher-playlists/{userId} [get]
func (h *CatalogHandler) ListByOwner(c echo.Context) error {
	items, err := h.catalogService.ListByOwner(c.Request().Context(), c.Param("userId"), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okData(h.label+"s", toCatalogItemResponses(h.catalogService.Kind(), items)))
}

// Get returns a single item.
//
// @Summary      Get a book or playlist
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item id"
// @Success      200  {object}  dataResponse{data=catalogItemResponse}
// @Failure      404  {object}  messageResponse
// @Router       /books/get-book/{id} [get]
// @Router       /playlists/get-playlist/{id} [get]
func (h *CatalogHandler) Get(c echo.Context) error {
	item, err := h.catalogService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.notFound(err)
	}
	return c.JSON(http.StatusOK, okData(fmt.Sprintf("Here is the %s!", h.label), toCatalogItemResponse(h.catalogService.Kind(), item)))
}

// Search matches titles case-insensitively.
//
// @Summary      Search books or playlists by title
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        term  path      string  true   "At least 3 characters"
// @Param        page  query     int     false  "1-based page"
// @Success      200   {object}  dataResponse{data=[]catalogItemResponse}
// @Failure      400   {object}  messageResponse
// @Router       /books/search-book/{term} [get]
// @Router       /playlists/search-playlist/{term} [get]
func (h *CatalogHandler) Search(c echo.Context) error {
	term := strings.TrimSpace(c.Param("term"))
	if len([]rune(term)) < minSearchTermLen {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid search term!")
	}

	items, err := h.catalogService.Search(c.Request().Context(), term, pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okData(h.label+"s", toCatalogItemResponses(h.catalogService.Kind(), items)))
}

// Create publishes a new item owned by the caller.
//
// @Summary      Create a book or playlist
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body             body      bookRequest  true   "Item (playlists send playlistLink instead of bookLink)"
// @Param        Idempotency-Key  header    string       false  "Replay guard"
// @Success      201              {object}  dataResponse{data=catalogItemResponse}
// @Failure      400              {object}  messageResponse
// @Failure      403              {object}  messageResponse
// @Failure      409              {object}  messageResponse
// @Router       /books/create-book [post]
// @Router       /playlists/create-playlist [post]
func (h *CatalogHandler) Create(c echo.Context) error {
	caller, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	req := h.newRequest()
	if err := bindAndValidate(c, req); err != nil {
		return err
	}

	item, err := h.catalogService.Create(c.Request().Context(), caller, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, okData(fmt.Sprintf("%s created successfully!", h.label), toCatalogItemResponse(h.catalogService.Kind(), item)))
}

// Update replaces the editable fields of an item.
//
// @Summary      Update a book or playlist
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Item id"
// @Param        body  body      bookRequest  true  "Item (playlists send playlistLink instead of bookLink)"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      403   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /books/update-book/{id} [patch]
// @Router       /playlists/update-playlist/{id} [patch]
func (h *CatalogHandler) Update(c echo.Context) error {
	req := h.newRequest()
	if err := bindAndValidate(c, req); err != nil {
		return err
	}

	if err := h.catalogService.Update(c.Request().Context(), c.Param("id"), req.input()); err != nil {
		return h.notFound(err)
	}
	return c.JSON(http.StatusOK, ok(fmt.Sprintf("%s updated successfully!", h.label)))
}

// Delete removes an item.
//
// @Summary      Delete a book or playlist
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /books/delete-book/{id} [delete]
// @Router       /playlists/delete-playlist/{id} [delete]
func (h *CatalogHandler) Delete(c echo.Context) error {
	if err := h.catalogService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.notFound(err)
	}
	return c.JSON(http.StatusOK, ok(fmt.Sprintf("%s deleted successfully!", h.label)))
}

// notFound names the kind in the 404 message.
func (h *CatalogHandler) notFound(err error) error {
	if errors.Is(err, domain.ErrCatalogNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s is unavailable!", h.label))
	}
	return err
}
