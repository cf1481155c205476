package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/meetup-social/meetup-api/internal/api/middleware"
	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
)

type stubAuthService struct {
	signupFn         func(ctx context.Context, in ports.SignupInput) (*domain.User, error)
	signinFn         func(ctx context.Context, email, password string) (*ports.Session, error)
	changePasswordFn func(ctx context.Context, caller domain.Principal, oldPassword, newPassword string) error
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) Signin(ctx context.Context, email, password string) (*ports.Session, error) {
	return s.signinFn(ctx, email, password)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, caller domain.Principal, oldPassword, newPassword string) error {
	return s.changePasswordFn(ctx, caller, oldPassword, newPassword)
}

type stubVerificationService struct {
	sendFn   func(ctx context.Context, email string) error
	verifyFn func(ctx context.Context, email, providedCode string) error
}

func (s *stubVerificationService) SendVerificationCode(ctx context.Context, email string) error {
	return s.sendFn(ctx, email)
}

func (s *stubVerificationService) VerifyVerificationCode(ctx context.Context, email, providedCode string) error {
	return s.verifyFn(ctx, email, providedCode)
}

type stubResetService struct {
	sendFn   func(ctx context.Context, email string) error
	verifyFn func(ctx context.Context, email, providedCode, newPassword string) error
}

func (s *stubResetService) SendForgotPasswordCode(ctx context.Context, email string) error {
	return s.sendFn(ctx, email)
}

func (s *stubResetService) VerifyForgotPasswordCode(ctx context.Context, email, providedCode, newPassword string) error {
	return s.verifyFn(ctx, email, providedCode, newPassword)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newTestAuthHandler(auth *stubAuthService, verification *stubVerificationService, reset *stubResetService) *AuthHandler {
	if auth == nil {
		auth = &stubAuthService{}
	}
	if verification == nil {
		verification = &stubVerificationService{}
	}
	if reset == nil {
		reset = &stubResetService{}
	}
	return NewAuthHandler(auth, verification, reset, CookieOptions{TTL: 8 * time.Hour})
}

func expectHTTPError(t *testing.T, err error, code int, msgContains string) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d", code, he.Code)
	}
	msg, _ := he.Message.(string)
	if !strings.Contains(msg, msgContains) {
		t.Fatalf("expected message containing %q, got %q", msgContains, msg)
	}
}

const validSignup = `{"firstName":"Alice","lastName":"Walker","birthday":"1990-04-12","gender":"Female","email":"Alice@Example.com","password":"Passw0rdX"}`

func TestAuthHandler_Signup_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
			if in.FirstName != "Alice" || in.Gender != domain.GenderFemale {
				t.Fatalf("unexpected input: %+v", in)
			}
			if !in.Birthday.Equal(time.Date(1990, time.April, 12, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected birthday: %v", in.Birthday)
			}
			return &domain.User{ID: "u1", FirstName: in.FirstName, Email: "alice@example.com", PasswordHash: "hash"}, nil
		},
	}
	h := newTestAuthHandler(stub, nil, nil)

	c, rec := jsonRequest(e, http.MethodPost, "/auth/signup", validSignup)
	if err := h.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hash") || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("credential material leaked: %s", rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["success"] != true || resp["message"] != MsgAccountCreated {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Signup_Validation(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"weak password", strings.Replace(validSignup, "Passw0rdX", "password", 1), "Password must be"},
		{"foreign tld", strings.Replace(validSignup, "Example.com", "example.org", 1), `"email" must be a valid email`},
		{"short first name", strings.Replace(validSignup, `"Alice"`, `"Al"`, 1), `"firstName" length must be at least 3`},
		{"unknown gender", strings.Replace(validSignup, "Female", "Other", 1), `"gender" must be one of`},
		{"birthday out of range", strings.Replace(validSignup, "1990-04-12", "1900-01-01", 1), `"birthday" must be a date`},
		{"missing password", `{"firstName":"Alice","lastName":"Walker","birthday":"1990-04-12","gender":"Female","email":"alice@example.com"}`, `"password" is required`},
		{"malformed json", `not-json`, MsgInvalidPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubAuthService{
				signupFn: func(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
					t.Fatalf("should not be called")
					return nil, nil
				},
			}
			h := newTestAuthHandler(stub, nil, nil)

			c, _ := jsonRequest(e, http.MethodPost, "/auth/signup", tc.body)
			expectHTTPError(t, h.Signup(c), http.StatusBadRequest, tc.wantMsg)
		})
	}
}

func TestAuthHandler_Signup_Duplicate(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := newTestAuthHandler(stub, nil, nil)

	c, rec := jsonRequest(e, http.MethodPost, "/auth/signup", validSignup)
	if err := h.Signup(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("nothing should be written before the error handler runs")
	}
}

func TestAuthHandler_Signin_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signinFn: func(ctx context.Context, email, password string) (*ports.Session, error) {
			if email != "alice@example.com" || password != "whatever" {
				t.Fatalf("unexpected args: %s", email)
			}
			return &ports.Session{Token: "tok.en.value", User: &domain.User{ProfilePicture: "pic.png"}}, nil
		},
	}
	h := newTestAuthHandler(stub, nil, nil)

	c, rec := jsonRequest(e, http.MethodPost, "/auth/signin", `{"email":"alice@example.com","password":"whatever"}`)
	if err := h.Signin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp signinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Success || resp.Token != "tok.en.value" || resp.ProfilePicture != "pic.png" || resp.Message != MsgLoggedIn {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.SessionCookie {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}
	if cookies[0].Value != "Bearer%20tok.en.value" {
		t.Fatalf("unexpected cookie value %q", cookies[0].Value)
	}
	if cookies[0].MaxAge != int((8 * time.Hour).Seconds()) {
		t.Fatalf("unexpected cookie max-age %d", cookies[0].MaxAge)
	}
	if cookies[0].Secure {
		t.Fatalf("cookie should not be secure outside production")
	}
	if !cookies[0].HttpOnly {
		t.Fatalf("session cookie must be HttpOnly even without Secure")
	}
}

func TestAuthHandler_Signin_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signinFn: func(ctx context.Context, email, password string) (*ports.Session, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := newTestAuthHandler(stub, nil, nil)

	c, rec := jsonRequest(e, http.MethodPost, "/auth/signin", `{"email":"alice@example.com","password":"wrong"}`)
	if err := h.Signin(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("no cookie expected on failure")
	}
}

func TestAuthHandler_Signout(t *testing.T) {
	e := newTestEcho()
	h := newTestAuthHandler(nil, nil, nil)

	c, rec := jsonRequest(e, http.MethodPost, "/auth/signout", "")
	if err := h.Signout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), MsgLoggedOut) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.SessionCookie || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired session cookie, got %+v", cookies)
	}
}

func TestAuthHandler_SendVerificationCode(t *testing.T) {
	t.Run("sent", func(t *testing.T) {
		e := newTestEcho()
		stub := &stubVerificationService{
			sendFn: func(ctx context.Context, email string) error {
				if email != "alice@example.com" {
					t.Fatalf("unexpected email %q", email)
				}
				return nil
			},
		}
		h := newTestAuthHandler(nil, stub, nil)

		c, rec := jsonRequest(e, http.MethodPost, "/auth/send-verification-code", `{"email":"alice@example.com"}`)
		if err := h.SendVerificationCode(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), MsgVerificationSent) {
			t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		e := newTestEcho()
		stub := &stubVerificationService{
			sendFn: func(ctx context.Context, email string) error { return domain.ErrUserNotFound },
		}
		h := newTestAuthHandler(nil, stub, nil)

		c, _ := jsonRequest(e, http.MethodPost, "/auth/send-verification-code", `{"email":"ghost@example.com"}`)
		expectHTTPError(t, h.SendVerificationCode(c), http.StatusNotFound, MsgCreateAccountFirst)
	})

	t.Run("dispatch failed", func(t *testing.T) {
		e := newTestEcho()
		stub := &stubVerificationService{
			sendFn: func(ctx context.Context, email string) error { return domain.ErrDispatchFailed },
		}
		h := newTestAuthHandler(nil, stub, nil)

		c, _ := jsonRequest(e, http.MethodPost, "/auth/send-verification-code", `{"email":"alice@example.com"}`)
		if err := h.SendVerificationCode(c); !errors.Is(err, domain.ErrDispatchFailed) {
			t.Fatalf("expected ErrDispatchFailed, got %v", err)
		}
	})
}

func TestAuthHandler_VerifyVerificationCode_AcceptsNumberOrString(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"number", `{"email":"alice@example.com","providedCode":4211}`, "4211"},
		{"string keeps leading zeros", `{"email":"alice@example.com","providedCode":"004211"}`, "004211"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			var got string
			stub := &stubVerificationService{
				verifyFn: func(ctx context.Context, email, providedCode string) error {
					got = providedCode
					return nil
				},
			}
			h := newTestAuthHandler(nil, stub, nil)

			c, rec := jsonRequest(e, http.MethodPost, "/auth/verify-verification-code", tc.body)
			if err := h.VerifyVerificationCode(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected code %q, got %q", tc.want, got)
			}
			if !strings.Contains(rec.Body.String(), MsgAccountVerified) {
				t.Fatalf("unexpected body %s", rec.Body.String())
			}
		})
	}
}

func TestAuthHandler_VerifyVerificationCode_Rejects(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"missing code", `{"email":"alice@example.com"}`, `"providedCode" is required`},
		{"non numeric", `{"email":"alice@example.com","providedCode":"abc"}`, `"providedCode" must be a number`},
		{"boolean code", `{"email":"alice@example.com","providedCode":true}`, MsgInvalidPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubVerificationService{
				verifyFn: func(ctx context.Context, email, providedCode string) error {
					t.Fatalf("should not be called")
					return nil
				},
			}
			h := newTestAuthHandler(nil, stub, nil)

			c, _ := jsonRequest(e, http.MethodPost, "/auth/verify-verification-code", tc.body)
			expectHTTPError(t, h.VerifyVerificationCode(c), http.StatusBadRequest, tc.msg)
		})
	}
}

func TestAuthHandler_VerifyVerificationCode_PropagatesOutcome(t *testing.T) {
	for _, want := range []error{domain.ErrCodeExpired, domain.ErrCodeIncorrect, domain.ErrNoActiveCode, domain.ErrAlreadyVerified} {
		e := newTestEcho()
		stub := &stubVerificationService{
			verifyFn: func(ctx context.Context, email, providedCode string) error { return want },
		}
		h := newTestAuthHandler(nil, stub, nil)

		c, _ := jsonRequest(e, http.MethodPost, "/auth/verify-verification-code", `{"email":"alice@example.com","providedCode":"123456"}`)
		if err := h.VerifyVerificationCode(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	t.Run("uses principal from context", func(t *testing.T) {
		e := newTestEcho()
		stub := &stubAuthService{
			changePasswordFn: func(ctx context.Context, caller domain.Principal, oldPassword, newPassword string) error {
				if caller.UserID != "u1" || oldPassword != "OldPassw0rd" || newPassword != "NewPassw0rd" {
					t.Fatalf("unexpected args: %+v", caller)
				}
				return nil
			},
		}
		h := newTestAuthHandler(stub, nil, nil)

		c, rec := jsonRequest(e, http.MethodPost, "/auth/change-password", `{"oldPassword":"OldPassw0rd","newPassword":"NewPassw0rd"}`)
		c.Set(middleware.PrincipalKey, domain.Principal{UserID: "u1", Verified: true})
		if err := h.ChangePassword(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), MsgPasswordChanged) {
			t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing principal", func(t *testing.T) {
		e := newTestEcho()
		h := newTestAuthHandler(nil, nil, nil)

		c, _ := jsonRequest(e, http.MethodPost, "/auth/change-password", `{"oldPassword":"OldPassw0rd","newPassword":"NewPassw0rd"}`)
		if err := h.ChangePassword(c); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestAuthHandler_ForgotPasswordFlow(t *testing.T) {
	e := newTestEcho()
	var gotCode, gotPassword string
	stub := &stubResetService{
		sendFn: func(ctx context.Context, email string) error { return nil },
		verifyFn: func(ctx context.Context, email, providedCode, newPassword string) error {
			gotCode, gotPassword = providedCode, newPassword
			return nil
		},
	}
	h := newTestAuthHandler(nil, nil, stub)

	c, rec := jsonRequest(e, http.MethodPost, "/auth/send-forgot-password-code", `{"email":"alice@example.com"}`)
	if err := h.SendForgotPasswordCode(c); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(rec.Body.String(), MsgResetCodeSent) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	c, rec = jsonRequest(e, http.MethodPost, "/auth/verify-forgot-password-code", `{"email":"alice@example.com","providedCode":987654,"newPassword":"NewPassw0rd"}`)
	if err := h.VerifyForgotPasswordCode(c); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if gotCode != "987654" || gotPassword != "NewPassw0rd" {
		t.Fatalf("unexpected args %q", gotCode)
	}
	if !strings.Contains(rec.Body.String(), MsgPasswordChanged) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	c, _ = jsonRequest(e, http.MethodPost, "/auth/verify-forgot-password-code", `{"email":"alice@example.com","providedCode":987654,"newPassword":"weak"}`)
	expectHTTPError(t, h.VerifyForgotPasswordCode(c), http.StatusBadRequest, "Password must be")
}
