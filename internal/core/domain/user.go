package domain

import (
	"strings"
	"time"
)

// Role is the account role embedded in session claims.
type Role string

const (
	RoleGeneralUser Role = "general-user"
	RoleModerator   Role = "moderator"
	RoleAdmin       Role = "admin"
	RoleTeacher     Role = "teacher"
	RoleSuperAdmin  Role = "super-admin"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGeneralUser, RoleModerator, RoleAdmin, RoleTeacher, RoleSuperAdmin:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderCustom Gender = "Custom"
)

const (
	DefaultProfilePicture = "no-profile-photo"
	DefaultCoverPicture   = "no-cover-photo"
)

// CodeSlot holds the digest of an issued one-time code together with its
// issuance time. Both values are present or both are absent.
type CodeSlot struct {
	digest   string
	issuedAt time.Time
	set      bool
}

// IssuedCode returns a live slot for digest issued at the given time.
func IssuedCode(digest string, issuedAt time.Time) CodeSlot {
	return CodeSlot{digest: digest, issuedAt: issuedAt, set: true}
}

// ClearedCode returns an empty slot. Persisting it removes both fields.
func ClearedCode() CodeSlot {
	return CodeSlot{}
}

// Get returns the digest and issuance time; ok is false for an empty slot.
func (s CodeSlot) Get() (digest string, issuedAt time.Time, ok bool) {
	return s.digest, s.issuedAt, s.set
}

func (s CodeSlot) IsSet() bool { return s.set }

// Clear empties the slot in place.
func (s *CodeSlot) Clear() { *s = CodeSlot{} }

// User is the account record. Credential fields never leave the service
// layer in JSON form.
type User struct {
	ID             string    `json:"_id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Birthday       time.Time `json:"birthday"`
	Gender         Gender    `json:"gender"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	ProfilePicture string    `json:"profilePicture"`
	CoverPicture   string    `json:"coverPicture"`
	Points         int       `json:"points"`
	About          string    `json:"about,omitempty"`
	Role           Role      `json:"role"`
	Verified       bool      `json:"verified"`
	Following      []string  `json:"following"`
	Followers      []string  `json:"followers"`

	VerificationCode   CodeSlot `json:"-"`
	ForgotPasswordCode CodeSlot `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public returns a copy of u with every credential field stripped.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	out.VerificationCode.Clear()
	out.ForgotPasswordCode.Clear()
	return &out
}

// NormalizeEmail lowercases and trims an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
