package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token is a bearer token for the remote store. The subject claim carries
// the owner of every conversation the token can reach.
type Token struct {
	*jwt.Token `json:"-"`
	jwt.RegisteredClaims

	SignedString string `json:"-"`
	UserID       int64  `json:"-"`
}

// Expiry returns the exp claim, or the zero time for a token without one.
func (t *Token) Expiry() time.Time {
	if t.Token != nil {
		if exp, err := t.Token.Claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if t.ExpiresAt != nil {
		return t.ExpiresAt.Time
	}
	return time.Time{}
}

func (t *Token) String() string {
	return t.SignedString
}
