package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLen = 72
)

var (
	earliestBirthday = time.Date(1923, time.January, 1, 0, 0, 0, 0, time.UTC)
	latestBirthday   = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	birthdayLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

	allowedMailTLDs = map[string]struct{}{"com": {}, "net": {}}
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// Field names in messages follow the json tags.
func NewValidator() *echoValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "password", validatePassword)
	mustRegister(v, "birthday", validateBirthday)
	mustRegister(v, "mailbox", validateMailbox)
	return &echoValidator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Validate satisfies the echo.Validator interface. Only the first violation
// is reported.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return errors.New(fieldError(ve[0]))
		}
		return err
	}
	return nil
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fmt.Sprintf("%q", fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email", "mailbox":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s length must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s length must be less than or equal to %s characters long", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url", "uri":
		return field + " must be a valid uri"
	case "numeric":
		return field + " must be a number"
	case "password":
		return fmt.Sprintf("Password must be between %d and %d characters long and contain at least one lowercase letter, one uppercase letter and one digit.", minPasswordLen, maxPasswordLen)
	case "birthday":
		return fmt.Sprintf("%s must be a date between %s and %s", field,
			earliestBirthday.Format("2006-01-02"), latestBirthday.Format("2006-01-02"))
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

func validatePassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) > maxPasswordLen || utf8.RuneCountInString(s) < minPasswordLen {
		return false
	}
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

func validateBirthday(fl validator.FieldLevel) bool {
	t, err := parseBirthday(fl.Field().String())
	if err != nil {
		return false
	}
	return !t.Before(earliestBirthday) && !t.After(latestBirthday)
}

// parseBirthday accepts a plain date or an RFC 3339 timestamp.
func parseBirthday(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// validateMailbox requires at least two domain segments and a .com or .net
// top-level domain. Address syntax is left to the email tag.
func validateMailbox(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	at := strings.LastIndexByte(s, '@')
	if at < 0 {
		return false
	}
	labels := strings.Split(s[at+1:], ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
	}
	_, ok := allowedMailTLDs[strings.ToLower(labels[len(labels)-1])]
	return ok
}
