package handler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/meetup-social/meetup-api/internal/core/domain"
)

type signupRequest struct {
	FirstName string `json:"firstName" validate:"required,min=3,max=30"`
	LastName  string `json:"lastName"  validate:"required,min=3,max=30"`
	Birthday  string `json:"birthday"  validate:"required,birthday"`
	Gender    string `json:"gender"    validate:"required,oneof=Male Female Custom"`
	Email     string `json:"email"     validate:"required,min=6,max=50,email,mailbox"`
	Password  string `json:"password"  validate:"required,password"`
}

type signinRequest struct {
	Email    string `json:"email"    validate:"required,min=6,max=50,email,mailbox"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,min=6,max=50,email,mailbox"`
}

type verifyCodeRequest struct {
	Email        string    `json:"email"        validate:"required,min=6,max=50,email,mailbox"`
	ProvidedCode codeValue `json:"providedCode" validate:"required,numeric" swaggertype:"string"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

type verifyForgotPasswordRequest struct {
	Email        string    `json:"email"        validate:"required,min=6,max=50,email,mailbox"`
	ProvidedCode codeValue `json:"providedCode" validate:"required,numeric" swaggertype:"string"`
	NewPassword  string    `json:"newPassword"  validate:"required,password"`
}

// signupResponse returns the created account without credential fields.
type signupResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

type signinResponse struct {
	Success        bool   `json:"success"`
	Token          string `json:"token"`
	ProfilePicture string `json:"profilePicture"`
	Message        string `json:"message"`
}

// codeValue accepts a one-time code sent either as a JSON number or as a
// string, keeping its digits verbatim.
type codeValue string

func (v *codeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = codeValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("providedCode: %w", err)
	}
	*v = codeValue(n.String())
	return nil
}
