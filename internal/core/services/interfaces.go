package services

import (
	"time"

	"hxstudio-auth/internal/pkg/jwt"
)

// PasswordHasher hashes and verifies passwords.
// VerifyDummy does the work of a failed Verify for users that do not exist.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	VerifyDummy(password string) bool
}

// TokenAuthority issues and verifies access tokens at a given instant
type TokenAuthority interface {
	Issue(sub jwt.Subject, now time.Time) (*jwt.Token, error)
	Verify(token string, now time.Time) (*jwt.Claims, error)
}

// Clock returns the current time
type Clock func() time.Time
