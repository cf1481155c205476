package security

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meetup-social/meetup-api/internal/core/domain"
)

var ErrInvalidToken = errors.New("security: invalid session token")

// SessionClaims are the claims minted at signin. There is no expiry claim;
// the carrying cookie expires instead.
type SessionClaims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and parses HS256 session tokens.
type SessionIssuer struct {
	secret []byte
}

func NewSessionIssuer(secret []byte) *SessionIssuer {
	s := make([]byte, len(secret))
	copy(s, secret)
	return &SessionIssuer{secret: s}
}

// Issue signs a token for user.
func (i *SessionIssuer) Issue(user *domain.User) (string, error) {
	claims := SessionClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Verified: user.Verified,
		Role:     string(user.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse validates token and returns the principal it carries.
func (i *SessionIssuer) Parse(token string) (domain.Principal, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.UserID == "" {
		return domain.Principal{}, ErrInvalidToken
	}
	return domain.Principal{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Verified: claims.Verified,
		Role:     domain.Role(claims.Role),
	}, nil
}
