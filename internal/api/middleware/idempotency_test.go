package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/meetup-social/meetup-api/internal/core/domain"
)

type stubIdempotencyStore struct {
	held     map[string]bool
	released []string
	err      error
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{held: map[string]bool{}}
}

func (s *stubIdempotencyStore) Reserve(_ context.Context, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.held[key] {
		return false, nil
	}
	s.held[key] = true
	return true, nil
}

func (s *stubIdempotencyStore) Release(_ context.Context, key string) error {
	delete(s.held, key)
	s.released = append(s.released, key)
	return nil
}

func idempotentRequest(key string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/comments/p1/create-comment", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(PrincipalKey, domain.Principal{UserID: "u1", Verified: true})
	return c, rec
}

func TestIdempotency_RejectsReplay(t *testing.T) {
	store := newStubIdempotencyStore()
	mw := Idempotency(store, zerolog.Nop())
	calls := 0
	handler := mw(func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusCreated)
	})

	c, _ := idempotentRequest("abc")
	if err := handler(c); err != nil {
		t.Fatalf("first request: %v", err)
	}

	c, _ = idempotentRequest("abc")
	if err := handler(c); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotency_ScopesKeyByCaller(t *testing.T) {
	store := newStubIdempotencyStore()
	handler := Idempotency(store, zerolog.Nop())(func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	})

	c, _ := idempotentRequest("abc")
	_ = handler(c)

	c, _ = idempotentRequest("abc")
	c.Set(PrincipalKey, domain.Principal{UserID: "u2"})
	if err := handler(c); err != nil {
		t.Fatalf("other caller should not collide: %v", err)
	}
}

func TestIdempotency_ReleasesOnFailure(t *testing.T) {
	store := newStubIdempotencyStore()
	fail := true
	handler := Idempotency(store, zerolog.Nop())(func(c echo.Context) error {
		if fail {
			return domain.ErrPostNotFound
		}
		return c.NoContent(http.StatusCreated)
	})

	c, _ := idempotentRequest("abc")
	if err := handler(c); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if len(store.released) != 1 {
		t.Fatalf("expected key release, got %v", store.released)
	}

	fail = false
	c, rec := idempotentRequest("abc")
	if err := handler(c); err != nil {
		t.Fatalf("retry should pass: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestIdempotency_PassThrough(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		store *stubIdempotencyStore
	}{
		{"no header", "", newStubIdempotencyStore()},
		{"store down", "abc", &stubIdempotencyStore{held: map[string]bool{}, err: errors.New("redis down")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := Idempotency(tc.store, zerolog.Nop())(func(c echo.Context) error {
				called = true
				return nil
			})
			c, _ := idempotentRequest(tc.key)
			if err := handler(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if !called {
				t.Fatalf("next handler not called")
			}
		})
	}
}

func TestIdempotency_RejectsOversizedKey(t *testing.T) {
	handler := Idempotency(newStubIdempotencyStore(), zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	c, _ := idempotentRequest(strings.Repeat("k", maxIdempotencyKeyLen+1))
	err := handler(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}
