package middleware

import (
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

const (
	// PrincipalKey is the echo context key holding the caller's domain.Principal.
	PrincipalKey = "principal"
	// SessionCookie carries "Bearer <token>" for browser clients.
	SessionCookie = "Authorization"
)

// Authenticate validates the session token and injects the caller's
// principal into context. The Authorization header wins over the cookie.
func Authenticate(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return domain.ErrUnauthenticated
			}

			principal, err := verifier.Parse(token)
			if err != nil {
				return domain.ErrUnauthenticated
			}

			c.Set(PrincipalKey, principal)
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal stored by Authenticate.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(domain.Principal)
	if !ok || p.UserID == "" {
		return domain.Principal{}, false
	}
	return p, true
}

func bearerToken(c echo.Context) (string, bool) {
	raw := c.Request().Header.Get(echo.HeaderAuthorization)
	if raw == "" {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil {
			return "", false
		}
		raw = cookie.Value
		if unescaped, err := url.PathUnescape(raw); err == nil {
			raw = unescaped
		}
	}

	parts := strings.SplitN(strings.TrimSpace(raw), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
