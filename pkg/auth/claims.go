package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims is the subset of the identity provider's access token the API reads.
// Subject carries the provider's user id.
type AccessTokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the provider-issued subject.
func (c *AccessTokenClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
