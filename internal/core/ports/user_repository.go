package ports

import (
	"context"

	"github.com/meetup-social/meetup-api/internal/core/domain"
)

// Projection selects credential fields that are hidden by default.
type Projection uint8

const (
	WithPassword Projection = 1 << iota
	WithVerificationCode
	WithForgotPasswordCode
)

// Has reports whether p includes every flag in f.
func (p Projection) Has(f Projection) bool { return p&f == f }

// UserFilter narrows a user listing. An empty Role lists every user.
type UserFilter struct {
	Role domain.Role
}

// UserRepository is the credential store. Credential mutations are targeted
// updates so that a record loaded with a narrow projection never overwrites
// fields it did not load.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string, proj Projection) (*domain.User, error)
	FindByID(ctx context.Context, id string, proj Projection) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// SetVerificationCode stores or clears the verification code pair.
	SetVerificationCode(ctx context.Context, id string, slot domain.CodeSlot) error
	// SetForgotPasswordCode stores or clears the forgot-password code pair.
	SetForgotPasswordCode(ctx context.Context, id string, slot domain.CodeSlot) error
	// MarkVerified sets verified and clears the verification code pair.
	MarkVerified(ctx context.Context, id string) error
	// UpdatePassword replaces the password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// ResetPassword replaces the password hash and clears the forgot-password pair.
	ResetPassword(ctx context.Context, id, passwordHash string) error

	AddPoints(ctx context.Context, id string, delta int) error

	// List returns public user records, newest first.
	List(ctx context.Context, filter UserFilter, page Page) ([]*domain.User, error)
	// AddFollowing adds targetID to id's following set. added is false when
	// it was already there.
	AddFollowing(ctx context.Context, id, targetID string) (added bool, err error)
	// RemoveFollowing drops targetID from id's following set. removed is
	// false when it was not there.
	RemoveFollowing(ctx context.Context, id, targetID string) (removed bool, err error)
	// AddFollower and RemoveFollower maintain the reverse side of the graph.
	AddFollower(ctx context.Context, id, followerID string) error
	RemoveFollower(ctx context.Context, id, followerID string) error
}
