package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/meetup-social/meetup-api/internal/api/metrics"
	"github.com/meetup-social/meetup-api/internal/api/middleware"
	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

const (
	flowVerification   = "verification"
	flowForgotPassword = "forgot_password"
)

// CookieOptions controls the session cookie set at signin.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

type AuthHandler struct {
	authService         ports.AuthService
	verificationService ports.VerificationService
	resetService        ports.PasswordResetService
	cookie              CookieOptions
}

func NewAuthHandler(
	authService ports.AuthService,
	verificationService ports.VerificationService,
	resetService ports.PasswordResetService,
	cookie CookieOptions,
) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		verificationService: verificationService,
		resetService:        resetService,
		cookie:              cookie,
	}
}

// Signup creates a new, unverified account.
//
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  signupResponse
// @Failure      400   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MsgInvalidPayload)
	}

	user, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Birthday:  birthday,
		Gender:    domain.Gender(req.Gender),
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, signupResponse{Success: true, Message: MsgAccountCreated, User: user})
}

// Signin authenticates a user, returns a session token and sets it as a cookie.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signinRequest  true  "Credentials"
// @Success      200   {object}  signinResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /auth/signin [post]
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Signin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.SigninsTotal.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.SigninsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.SigninsTotal.WithLabelValues("success").Inc()

	c.SetCookie(h.sessionCookie("Bearer "+session.Token, h.cookie.TTL))
	return c.JSON(http.StatusOK, signinResponse{
		Success:        true,
		Token:          session.Token,
		ProfilePicture: session.User.ProfilePicture,
		Message:        MsgLoggedIn,
	})
}

// Signout clears the session cookie. Issued tokens stay valid until they
// are discarded by the client.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/signout [post]
func (h *AuthHandler) Signout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", -1))
	return c.JSON(http.StatusOK, ok(MsgLoggedOut))
}

// SendVerificationCode mails a fresh verification code to an unverified account.
//
// @Summary      Send verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /auth/send-verification-code [post]
func (h *AuthHandler) SendVerificationCode(c echo.Context) error {
	var req emailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.verificationService.SendVerificationCode(c.Request().Context(), req.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, MsgCreateAccountFirst)
	}
	if err != nil {
		return err
	}
	metrics.CodesIssuedTotal.WithLabelValues(flowVerification).Inc()

	return c.JSON(http.StatusOK, ok(MsgVerificationSent))
}

// VerifyVerificationCode redeems a verification code and marks the account verified.
//
// @Summary      Verify account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyCodeRequest  true  "Email and code"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /auth/verify-verification-code [post]
func (h *AuthHandler) VerifyVerificationCode(c echo.Context) error {
	var req verifyCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.verificationService.VerifyVerificationCode(c.Request().Context(), req.Email, string(req.ProvidedCode))
	metrics.CodeVerificationsTotal.WithLabelValues(flowVerification, verificationOutcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok(MsgAccountVerified))
}

// ChangePassword replaces the caller's password after checking the old one.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	caller, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.Request().Context(), caller, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok(MsgPasswordChanged))
}

// SendForgotPasswordCode mails a password reset code.
//
// @Summary      Send password reset code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /auth/send-forgot-password-code [post]
func (h *AuthHandler) SendForgotPasswordCode(c echo.Context) error {
	var req emailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.resetService.SendForgotPasswordCode(c.Request().Context(), req.Email); err != nil {
		return err
	}
	metrics.CodesIssuedTotal.WithLabelValues(flowForgotPassword).Inc()

	return c.JSON(http.StatusOK, ok(MsgResetCodeSent))
}

// VerifyForgotPasswordCode redeems a reset code and stores the new password.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyForgotPasswordRequest  true  "Email, code and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /auth/verify-forgot-password-code [post]
func (h *AuthHandler) VerifyForgotPasswordCode(c echo.Context) error {
	var req verifyForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.resetService.VerifyForgotPasswordCode(c.Request().Context(), req.Email, string(req.ProvidedCode), req.NewPassword)
	metrics.CodeVerificationsTotal.WithLabelValues(flowForgotPassword, verificationOutcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok(MsgPasswordChanged))
}

func (h *AuthHandler) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    url.PathEscape(value),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		return cookie
	}
	cookie.Expires = time.Now().Add(ttl)
	cookie.MaxAge = int(ttl.Seconds())
	return cookie
}

func verificationOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrCodeExpired):
		return "expired"
	case errors.Is(err, domain.ErrCodeIncorrect):
		return "incorrect"
	case errors.Is(err, domain.ErrNoActiveCode):
		return "no_code"
	case errors.Is(err, domain.ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	default:
		return "error"
	}
}
