package domain

// Principal is the caller identity carried by a validated session token.
// It is produced once per request by the authentication middleware.
type Principal struct {
	UserID   string
	Email    string
	Verified bool
	Role     Role
}

// HasRole reports whether the principal holds any of roles.
func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
