package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/meetup-social/meetup-api/internal/api/middleware"
	"github.com/meetup-social/meetup-api/internal/core/domain"
)

// ctxPrincipal returns the caller injected by the Authenticate middleware.
// Its absence means the route was wired without authentication.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}

// pageParam reads the 1-based ?page= query value. Missing or malformed
// values select the first page.
func pageParam(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// bindAndValidate binds the request body into req and reports the first
// validation failure as a 400.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidPayload).SetInternal(err)
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
