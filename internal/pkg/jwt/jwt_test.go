package jwt

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-must-be-32-bytes")

func newTestAuthority(t *testing.T, opts ...Option) *Authority {
	t.Helper()
	opts = append([]Option{WithIssuer("hxstudio-auth"), WithAudience("hxstudio-clients")}, opts...)
	a, err := NewAuthority(testSecret, opts...)
	require.NoError(t, err)
	return a
}

func TestNewAuthority(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := NewAuthority([]byte("short"))
		assert.ErrorIs(t, err, ErrSecretTooShort)
	})

	t.Run("defaults to 24h", func(t *testing.T) {
		a, err := NewAuthority(testSecret)
		require.NoError(t, err)
		now := time.Now()
		tok, err := a.Issue(Subject{UserID: "u"}, now)
		require.NoError(t, err)
		assert.Equal(t, DefaultTTL, tok.ExpiresAt.Sub(tok.IssuedAt))
	})

	t.Run("custom ttl", func(t *testing.T) {
		a := newTestAuthority(t, WithTTL(time.Hour))
		now := time.Now()
		tok, err := a.Issue(Subject{UserID: "u"}, now)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, tok.ExpiresAt.Sub(tok.IssuedAt))
	})

	t.Run("secret is copied", func(t *testing.T) {
		secret := []byte(string(testSecret))
		a, err := NewAuthority(secret)
		require.NoError(t, err)
		now := time.Now()
		tok, err := a.Issue(Subject{UserID: "u1", Role: "USER"}, now)
		require.NoError(t, err)

		secret[0] = 'X'
		_, err = a.Verify(tok.Value, now)
		assert.NoError(t, err)
	})
}

func TestIssueAndVerify(t *testing.T) {
	a := newTestAuthority(t)
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tok, err := a.Issue(Subject{UserID: "user-123", Role: "ADMIN", Email: "a@x.com", Name: "A"}, t0)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Value)
	assert.Len(t, strings.Split(tok.Value, "."), 3)
	assert.True(t, tok.IssuedAt.Equal(t0))
	assert.True(t, tok.ExpiresAt.Equal(t0.Add(DefaultTTL)))

	claims, err := a.Verify(tok.Value, t0)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "A", claims.Name)
	assert.Equal(t, "hxstudio-auth", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"hxstudio-clients"}, claims.Audience)
	assert.NotEmpty(t, claims.ID)
}

func TestIssue_EmptySubject(t *testing.T) {
	a := newTestAuthority(t)
	_, err := a.Issue(Subject{Role: "USER"}, time.Now())
	assert.ErrorIs(t, err, ErrEmptySubject)
}

func TestVerify_ValidityWindow(t *testing.T) {
	a := newTestAuthority(t)
	t0 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tok, err := a.Issue(Subject{UserID: "u", Role: "USER"}, t0)
	require.NoError(t, err)

	t.Run("just before expiry", func(t *testing.T) {
		claims, err := a.Verify(tok.Value, t0.Add(DefaultTTL-time.Second))
		require.NoError(t, err)
		assert.Equal(t, "u", claims.UserID())
		assert.Equal(t, "USER", claims.Role)
	})

	t.Run("just after expiry", func(t *testing.T) {
		_, err := a.Verify(tok.Value, t0.Add(DefaultTTL+time.Second))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("at expiry", func(t *testing.T) {
		_, err := a.Verify(tok.Value, t0.Add(DefaultTTL))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("before issuance", func(t *testing.T) {
		_, err := a.Verify(tok.Value, t0.Add(-time.Minute))
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})
}

func TestVerify_SubSecondIssueTime(t *testing.T) {
	a := newTestAuthority(t, WithTTL(time.Hour))
	t0 := time.Date(2026, 5, 1, 12, 0, 0, 900_000_000, time.UTC)

	tok, err := a.Issue(Subject{UserID: "u", Role: "USER"}, t0)
	require.NoError(t, err)

	_, err = a.Verify(tok.Value, t0)
	assert.NoError(t, err)
	_, err = a.Verify(tok.Value, t0.Add(time.Hour-time.Second))
	assert.NoError(t, err)
	_, err = a.Verify(tok.Value, t0.Add(time.Hour+time.Second))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_TamperedSignature(t *testing.T) {
	a := newTestAuthority(t)
	now := time.Now()

	tok, err := a.Issue(Subject{UserID: "u", Role: "USER"}, now)
	require.NoError(t, err)

	parts := strings.Split(tok.Value, ".")
	require.Len(t, parts, 3)
	sig := parts[2]

	for i := 0; i < len(sig); i++ {
		replacement := byte('A')
		if sig[i] == 'A' {
			replacement = 'B'
		}
		tampered := []byte(sig)
		tampered[i] = replacement

		token := parts[0] + "." + parts[1] + "." + string(tampered)
		_, err := a.Verify(token, now)
		assert.ErrorIs(t, err, ErrTokenInvalidSignature, "byte %d", i)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	a := newTestAuthority(t)
	now := time.Now()

	tok, err := a.Issue(Subject{UserID: "u", Role: "USER"}, now)
	require.NoError(t, err)

	parts := strings.Split(tok.Value, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	forged := strings.Replace(string(payload), `"role":"USER"`, `"role":"ADMIN"`, 1)
	require.NotEqual(t, string(payload), forged)

	token := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(forged)) + "." + parts[2]
	_, err = a.Verify(token, now)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestVerify_WrongSecret(t *testing.T) {
	a := newTestAuthority(t)
	other, err := NewAuthority([]byte("another-secret-key-of-32-bytes!!"), WithIssuer("hxstudio-auth"), WithAudience("hxstudio-clients"))
	require.NoError(t, err)

	now := time.Now()
	tok, err := other.Issue(Subject{UserID: "u", Role: "USER"}, now)
	require.NoError(t, err)

	_, err = a.Verify(tok.Value, now)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestVerify_IssuerAndAudience(t *testing.T) {
	now := time.Now()

	t.Run("wrong issuer", func(t *testing.T) {
		issuer, err := NewAuthority(testSecret, WithIssuer("someone-else"), WithAudience("hxstudio-clients"))
		require.NoError(t, err)
		tok, err := issuer.Issue(Subject{UserID: "u", Role: "USER"}, now)
		require.NoError(t, err)

		_, err = newTestAuthority(t).Verify(tok.Value, now)
		assert.ErrorIs(t, err, ErrTokenInvalidClaims)
	})

	t.Run("wrong audience", func(t *testing.T) {
		issuer, err := NewAuthority(testSecret, WithIssuer("hxstudio-auth"), WithAudience("other-clients"))
		require.NoError(t, err)
		tok, err := issuer.Issue(Subject{UserID: "u", Role: "USER"}, now)
		require.NoError(t, err)

		_, err = newTestAuthority(t).Verify(tok.Value, now)
		assert.ErrorIs(t, err, ErrTokenInvalidClaims)
	})
}

func TestVerify_EmptyRole(t *testing.T) {
	a := newTestAuthority(t)
	now := time.Now()

	tok, err := a.Issue(Subject{UserID: "u"}, now)
	require.NoError(t, err)

	claims, err := a.Verify(tok.Value, now)
	require.NoError(t, err)
	assert.Equal(t, "u", claims.UserID())
	assert.Empty(t, claims.Role)
}

func TestVerify_MissingSubject(t *testing.T) {
	a := newTestAuthority(t)
	now := time.Now()

	claims := Claims{
		Role: "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "hxstudio-auth",
			Audience:  jwt.ClaimStrings{"hxstudio-clients"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = a.Verify(signed, now)
	assert.ErrorIs(t, err, ErrTokenInvalidClaims)
}

func TestVerify_Leeway(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	strict := newTestAuthority(t, WithTTL(time.Hour))
	lenient := newTestAuthority(t, WithTTL(time.Hour), WithLeeway(time.Minute))

	tok, err := strict.Issue(Subject{UserID: "u", Role: "USER"}, t0)
	require.NoError(t, err)

	late := t0.Add(time.Hour + 30*time.Second)
	_, err = strict.Verify(tok.Value, late)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = lenient.Verify(tok.Value, late)
	assert.NoError(t, err)

	_, err = lenient.Verify(tok.Value, t0.Add(time.Hour+2*time.Minute))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_Malformed(t *testing.T) {
	a := newTestAuthority(t)

	for _, token := range []string{"", "not.a.jwt", "onlyonepart", "a.b", "a.b.c.d"} {
		_, err := a.Verify(token, time.Now())
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	a := newTestAuthority(t)
	now := time.Now()

	claims := Claims{
		Role: "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			Issuer:    "hxstudio-auth",
			Audience:  jwt.ClaimStrings{"hxstudio-clients"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.Verify(unsigned, now)
	assert.Error(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = a.Verify(hs512, now)
	assert.Error(t, err)
}
