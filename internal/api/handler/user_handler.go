package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List returns a page of accounts, newest first.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "1-based page"
// @Success      200   {object}  dataResponse{data=[]domain.User}
// @Failure      401   {object}  messageResponse
// @Router       /users/get-users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.userService.List(c.Request().Context(), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okData(MsgUsersListed, users))
}

// ListTeachers returns a page of teacher accounts, newest first.
//
// @Summary      List teachers
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "1-based page"
// @Success      200   {object}  dataResponse{data=[]domain.User}
// @Failure      401   {object}  messageResponse
// @Router       /users/get-teachers [get]
func (h *UserHandler) ListTeachers(c echo.Context) error {
	users, err := h.userService.ListTeachers(c.Request().Context(), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okData(MsgTeachersListed, users))
}

// Follow adds the user to the caller's following list.
//
// @Summary      Follow a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        followId  path      string  true  "User to follow"
// @Success      200       {object}  messageResponse
// @Failure      400       {object}  messageResponse
// @Failure      403       {object}  messageResponse
// @Failure      404       {object}  messageResponse
// @Router       /users/follow/{followId} [patch]
func (h *UserHandler) Follow(c echo.Context) error {
	caller, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.userService.Follow(c.Request().Context(), caller, c.Param("followId")); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, MsgUserNotFound)
		}
		return err
	}
	return c.JSON(http.StatusOK, ok(MsgFollowed))
}

// Unfollow removes the user from the caller's following list.
//
// @Summary      Unfollow a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        unfollowId  path      string  true  "User to unfollow"
// @Success      200         {object}  messageResponse
// @Failure      400         {object}  messageResponse
// @Failure      403         {object}  messageResponse
// @Router       /users/unfollow/{unfollowId} [patch]
func (h *UserHandler) Unfollow(c echo.Context) error {
	caller, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.userService.Unfollow(c.Request().Context(), caller, c.Param("unfollowId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(MsgUnfollowed))
}
