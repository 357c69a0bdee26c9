package util

import (
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// OperatorClaims are carried by access tokens. The subject is the username.
type OperatorClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Username returns the authenticated operator.
func (c OperatorClaims) Username() string {
	return c.Subject
}
