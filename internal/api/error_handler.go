package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/meetup-social/meetup-api/internal/api/handler"
	"github.com/meetup-social/meetup-api/internal/core/domain"
)

// errorResponse is the envelope for every failed request.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorMapping struct {
	target  error
	status  int
	message string
}

// Default mappings. Handlers translate errors whose message depends on the
// endpoint into an *echo.HTTPError before they reach this table.
var errorMappings = []errorMapping{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, handler.MsgInvalidCredentials},
	{domain.ErrUserNotFound, http.StatusNotFound, handler.MsgInvalidCredentials},
	{domain.ErrUserExists, http.StatusConflict, handler.MsgInvalidCredentials},
	{domain.ErrAlreadyVerified, http.StatusBadRequest, handler.MsgAlreadyVerified},
	{domain.ErrNotVerified, http.StatusBadRequest, handler.MsgNotVerified},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, handler.MsgUnauthorized},
	{domain.ErrNoActiveCode, http.StatusBadRequest, handler.MsgNoActiveCode},
	{domain.ErrCodeExpired, http.StatusBadRequest, handler.MsgCodeExpired},
	{domain.ErrCodeIncorrect, http.StatusBadRequest, handler.MsgCodeIncorrect},
	{domain.ErrDispatchFailed, http.StatusBadRequest, handler.MsgSomethingWentWrong},
	{domain.ErrForbidden, http.StatusForbidden, handler.MsgForbidden},
	{domain.ErrPostNotFound, http.StatusNotFound, handler.MsgPostNotFound},
	{domain.ErrCommentNotFound, http.StatusNotFound, handler.MsgCommentNotFound},
	{domain.ErrCatalogNotFound, http.StatusNotFound, handler.MsgCatalogNotFound},
	{domain.ErrEmptyComment, http.StatusBadRequest, handler.MsgEmptyComment},
	{domain.ErrAlreadyUpvoted, http.StatusBadRequest, handler.MsgAlreadyUpvoted},
	{domain.ErrNotUpvoted, http.StatusBadRequest, handler.MsgNotUpvoted},
	{domain.ErrInvalidPicture, http.StatusBadRequest, handler.MsgInvalidPicture},
	{domain.ErrUploadsUnavailable, http.StatusServiceUnavailable, handler.MsgUploadsUnavailable},
	{domain.ErrDuplicateRequest, http.StatusConflict, handler.MsgDuplicateRequest},
	{domain.ErrSelfFollow, http.StatusBadRequest, handler.MsgSelfFollow},
	{domain.ErrAlreadyFollowing, http.StatusBadRequest, handler.MsgAlreadyFollowing},
	{domain.ErrNotFollowing, http.StatusBadRequest, handler.MsgNotFollowing},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and client message.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success": false, "message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Success: false, Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, handler overrides).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Warn().
				Err(he.Internal).
				Int("status", he.Code).
				Str("path", c.Path()).
				Msg("request rejected")
		}
		return he.Code, httpErrorMessage(he)
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, handler.MsgSomethingWentWrong
}

func httpErrorMessage(he *echo.HTTPError) string {
	switch m := he.Message.(type) {
	case string:
		return m
	case error:
		return m.Error()
	case nil:
		return http.StatusText(he.Code)
	default:
		return fmt.Sprintf("%v", m)
	}
}
