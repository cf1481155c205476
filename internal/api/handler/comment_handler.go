package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/meetup-social/meetup-api/internal/core/ports"
)

type CommentHandler struct {
	commentService ports.CommentService
}

func NewCommentHandler(commentService ports.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// List returns a page of comments on a post, newest first.
//
// @Summary      List comments
// @Tags         comments
// @Produce      json
// @Param        postId  path      string  true   "Post id"
// @Param        page    query     int     false  "1-based page"
// @Success      200     {object}  dataResponse
// @Failure      500     {object}  messageResponse
// @Router       /comments/{postId}/get-comments [get]
func (h *CommentHandler) List(c echo.Context) error {
	comments, err := h.commentService.List(c.Request().Context(), c.Param("postId"), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okData(MsgCommentsListed, comments))
}

// Create adds a comment with a body, a picture, or both.
//
// @Summary      Create comment
// @Tags         comments
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        postId           path      string  true   "Post id"
// @Param        commentBody      formData  string  false  "Comment text"
// @Param        comment-picture  formData  file    false  "png, jpg, jpeg or gif up to 2MB"
// @Param        Idempotency-Key  header    string  false  "Replay guard"
// @Success      201              {object}  dataResponse
// @Failure      400              {object}  messageResponse
// @Failure      404              {object}  messageResponse
// @Failure      409              {object}  messageResponse
// @Failure      503              {object}  messageResponse
// @Router       /comments/{postId}/create-comment [post]
func (h *CommentHandler) Create(c echo.Context) error {
	caller, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidPayload).SetInternal(err)
	}

	in := ports.CreateCommentInput{PostID: c.Param("postId"), Body: req.CommentBody}

	if isMultipart(c) {
		fh, err := c.FormFile(commentPictureField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
			// body only
		case err != nil:
			return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidPicture).SetInternal(err)
		default:
			f, err := fh.Open()
			if err != nil {
				return err
			}
			defer f.Close()
			in.Picture = &ports.PictureUpload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get(echo.HeaderContentType),
				Size:        fh.Size,
				Body:        f,
			}
		}
	}

	comment, err := h.commentService.Create(c.Request().Context(), caller, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, okData(MsgCommentCreated, comment))
}

// Update replaces the body of the caller's own comment.
//
// @Summary      Update comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Comment id"
// @Param        body  body      updateCommentRequest  true  "New body"
// @Success      200   {object}  dataResponse
// @Failure      400   {object}  messageResponse
// @Failure      403   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /comments/update-comment/{id} [patch]
func (h *CommentHandler) Update(c echo.Context) error {
	caller, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.CommentBody) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, MsgEmptyComment)
	}

	comment, err := h.commentService.Update(c.Request().Context(), caller, c.Param("id"), req.CommentBody)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okData(MsgCommentUpdated, comment))
}

// Delete removes the caller's own comment.
//
// @Summary      Delete comment
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Comment id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /comments/delete-comment/{id} [delete]
func (h *CommentHandler) Delete(c echo.Context) error {
	caller, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.commentService.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(MsgCommentDeleted))
}

// AddUpvote marks a comment as the accepted answer and credits its author.
//
// @Summary      Upvote comment
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true  "Comment id"
// @Param        solverId  path      string  true  "Comment author id"
// @Success      200       {object}  messageResponse
// @Failure      400       {object}  messageResponse
// @Failure      404       {object}  messageResponse
// @Router       /comments/add-upvote/{id}/{solverId} [patch]
func (h *CommentHandler) AddUpvote(c echo.Context) error {
	caller, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.commentService.AddUpvote(c.Request().Context(), caller, c.Param("id"), c.Param("solverId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(MsgUpvoteAdded))
}

// RemoveUpvote withdraws the caller's upvote.
//
// @Summary      Remove upvote
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true  "Comment id"
// @Param        solverId  path      string  true  "Comment author id"
// @Success      200       {object}  messageResponse
// @Failure      400       {object}  messageResponse
// @Failure      403       {object}  messageResponse
// @Failure      404       {object}  messageResponse
// @Router       /comments/remove-upvote/{id}/{solverId} [patch]
func (h *CommentHandler) RemoveUpvote(c echo.Context) error {
	caller, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.commentService.RemoveUpvote(c.Request().Context(), caller, c.Param("id"), c.Param("solverId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(MsgUpvoteRemoved))
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}
