package domain

import "errors"

// Account and credential errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrAlreadyVerified    = errors.New("user already verified")
	ErrNotVerified        = errors.New("user not verified")
	ErrUnauthenticated    = errors.New("missing or invalid session")
)

// Follow graph errors.
var (
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following user")
	ErrNotFollowing     = errors.New("not following user")
)

// One-time code errors. ErrCodeExpired and ErrCodeIncorrect are kept apart
// because they leave the stored code in different states.
var (
	ErrNoActiveCode   = errors.New("no active code")
	ErrCodeExpired    = errors.New("code expired")
	ErrCodeIncorrect  = errors.New("code incorrect")
	ErrDispatchFailed = errors.New("code dispatch failed")
)

// Resource errors.
var (
	ErrForbidden          = errors.New("access forbidden")
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrCatalogNotFound    = errors.New("catalog item not found")
	ErrEmptyComment       = errors.New("comment has no body or picture")
	ErrAlreadyUpvoted     = errors.New("comment already upvoted")
	ErrNotUpvoted         = errors.New("comment not upvoted")
	ErrInvalidPicture     = errors.New("unsupported picture")
	ErrUploadsUnavailable = errors.New("picture uploads unavailable")
	ErrDuplicateRequest   = errors.New("duplicate request")
)
