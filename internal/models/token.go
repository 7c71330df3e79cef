package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims are the session token claims: the account id travels in the
// registered "sub" claim, the role in a private claim.
type TokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
