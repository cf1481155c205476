package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/meetup-social/meetup-api/internal/api/metrics"
	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

// Idempotency rejects a replayed Idempotency-Key from the same caller on the
// same path. Requests without the header pass through untouched. When the
// handler fails the key is released so the client may retry with it.
// If the store is unreachable the request proceeds unguarded.
func Idempotency(store ports.IdempotencyStore, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
			if key == "" {
				return next(c)
			}
			if len(key) > maxIdempotencyKeyLen {
				return echo.NewHTTPError(http.StatusBadRequest, "Idempotency-Key is too long!")
			}

			scope := idempotencyScope(c, key)
			ctx := c.Request().Context()

			reserved, err := store.Reserve(ctx, scope)
			if err != nil {
				metrics.IdempotencyTotal.WithLabelValues("error").Inc()
				log.Warn().Err(err).Str("path", c.Path()).Msg("idempotency store unavailable, proceeding without guard")
				return next(c)
			}
			if !reserved {
				metrics.IdempotencyTotal.WithLabelValues("replay").Inc()
				return domain.ErrDuplicateRequest
			}
			metrics.IdempotencyTotal.WithLabelValues("reserved").Inc()

			err = next(c)
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				if rerr := store.Release(context.WithoutCancel(ctx), scope); rerr != nil {
					log.Warn().Err(rerr).Str("path", c.Path()).Msg("idempotency key release failed")
				}
			}
			return err
		}
	}
}

func idempotencyScope(c echo.Context, key string) string {
	caller := "anonymous"
	if p, ok := PrincipalFrom(c); ok {
		caller = p.UserID
	}
	return caller + ":" + c.Request().Method + ":" + c.Request().URL.Path + ":" + key
}
