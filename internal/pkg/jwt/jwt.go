package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultTTL is the lifetime of an access token
	DefaultTTL = 24 * time.Hour

	// MinSecretLength is the shortest accepted HMAC secret, in bytes
	MinSecretLength = 32
)

var (
	ErrSecretTooShort        = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	ErrEmptySubject          = errors.New("token subject is empty")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenNotYetValid      = errors.New("token is not valid yet")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenInvalidClaims    = errors.New("token claims are invalid")
	ErrTokenMalformed        = errors.New("token is malformed")
)

// Claims represents the JWT claims
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim
func (c *Claims) UserID() string {
	return c.Subject
}

// Subject is the identity a token asserts
type Subject struct {
	UserID string
	Role   string
	Email  string
	Name   string
}

// Token is a signed access token
type Token struct {
	Value     string    `json:"token"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Authority issues and verifies HS256 access tokens.
// It holds no mutable state and is safe for concurrent use.
type Authority struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
}

// Option configures an Authority
type Option func(*Authority)

// WithIssuer sets the iss claim and requires it on verification
func WithIssuer(iss string) Option {
	return func(a *Authority) {
		a.issuer = iss
	}
}

// WithAudience sets the aud claim and requires it on verification
func WithAudience(aud string) Option {
	return func(a *Authority) {
		a.audience = aud
	}
}

// WithTTL sets the token lifetime
func WithTTL(d time.Duration) Option {
	return func(a *Authority) {
		if d > 0 {
			a.ttl = d
		}
	}
}

// WithLeeway sets clock skew tolerance
func WithLeeway(d time.Duration) Option {
	return func(a *Authority) {
		if d >= 0 {
			a.leeway = d
		}
	}
}

// NewAuthority creates a token authority for the given secret
func NewAuthority(secret []byte, opts ...Option) (*Authority, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}

	a := &Authority{
		secret: append([]byte(nil), secret...),
		ttl:    DefaultTTL,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Issue signs a token valid from now until now+TTL
func (a *Authority) Issue(sub Subject, now time.Time) (*Token, error) {
	if sub.UserID == "" {
		return nil, ErrEmptySubject
	}

	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(a.ttl))

	claims := Claims{
		Role:  sub.Role,
		Email: sub.Email,
		Name:  sub.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub.UserID,
			Issuer:    a.issuer,
			IssuedAt:  issuedAt,
			NotBefore: issuedAt,
			ExpiresAt: expiresAt,
		},
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{
		Value:     value,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// Verify checks the signature and validity window of a token at now
// and returns its claims.
func (a *Authority) Verify(tokenString string, now time.Time) (*Claims, error) {
	parser := a.parser(now)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, a.mapError(parser, tokenString, err)
	}

	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	// Role may be empty for users without an assignment.
	if claims.Subject == "" {
		return nil, ErrTokenInvalidClaims
	}

	return claims, nil
}

func (a *Authority) parser(now time.Time) *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(a.leeway),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}
	return jwt.NewParser(opts...)
}

// mapError translates jwt library errors to package errors
func (a *Authority) mapError(parser *jwt.Parser, tokenString string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrTokenInvalidClaims
	case errors.Is(err, jwt.ErrTokenMalformed):
		// Header and payload decode but the signature segment does not.
		if claimsDecode(parser, tokenString) {
			return ErrTokenInvalidSignature
		}
		return ErrTokenMalformed
	default:
		return ErrTokenMalformed
	}
}

// claimsDecode reports whether the header and payload segments of a
// three-part token are valid base64url JSON.
func claimsDecode(parser *jwt.Parser, tokenString string) bool {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts[:2] {
		raw, err := parser.DecodeSegment(part)
		if err != nil || !json.Valid(raw) {
			return false
		}
	}
	return true
}
