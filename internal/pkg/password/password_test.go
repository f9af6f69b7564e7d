package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := h.Hash("secret1")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$"))
		assert.True(t, h.Verify("secret1", hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		hash, err := h.Hash("secret1")
		require.NoError(t, err)
		assert.False(t, h.Verify("secret2", hash))
	})

	t.Run("same password produces different hashes", func(t *testing.T) {
		hash1, err := h.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := h.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
		assert.True(t, h.Verify("samepassword", hash1))
		assert.True(t, h.Verify("samepassword", hash2))
	})

	t.Run("hash does not contain plaintext", func(t *testing.T) {
		hash, err := h.Hash("plaintext-marker")
		require.NoError(t, err)
		assert.NotContains(t, hash, "plaintext-marker")
	})
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	h := newTestHasher(t)

	for _, stored := range []string{"", "not-a-hash", "$2a$04$short", "$argon2id$v=19$m=65536,t=1,p=4$AAAA$BBBB"} {
		assert.False(t, h.Verify("secret1", stored), "stored hash %q", stored)
	}
}

func TestHasher_VerifyDummy(t *testing.T) {
	h := newTestHasher(t)
	assert.False(t, h.VerifyDummy("anything"))
	assert.False(t, h.VerifyDummy(""))
}

func TestNewHasher_CostFallback(t *testing.T) {
	h := newTestHasher(t)
	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	for _, c := range []int{0, bcrypt.MaxCost + 1} {
		h, err := NewHasher(c)
		require.NoError(t, err)
		assert.Equal(t, DefaultCost, h.cost, "cost %d", c)
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name     string
		policy   Policy
		password string
		want     []string
	}{
		{
			name:     "default accepts six characters",
			policy:   DefaultPolicy(),
			password: "secret",
		},
		{
			name:     "empty password",
			policy:   DefaultPolicy(),
			password: "",
			want:     []string{"Password is required"},
		},
		{
			name:     "too short",
			policy:   DefaultPolicy(),
			password: "abc",
			want:     []string{"Password must be at least 6 characters long"},
		},
		{
			name:     "longer than bcrypt accepts",
			policy:   DefaultPolicy(),
			password: strings.Repeat("a", 73),
			want:     []string{"Password must be at most 72 bytes long"},
		},
		{
			name:     "character classes are reported together",
			policy:   Policy{MinLength: 8, RequireDigit: true, RequireUpper: true, RequireNonAlphanumeric: true},
			password: "abc",
			want: []string{
				"Password must be at least 8 characters long",
				"Password must have at least one digit ('0'-'9')",
				"Password must have at least one uppercase ('A'-'Z')",
				"Password must have at least one non alphanumeric character",
			},
		},
		{
			name:     "all classes satisfied",
			policy:   Policy{MinLength: 8, RequireDigit: true, RequireLower: true, RequireUpper: true, RequireNonAlphanumeric: true},
			password: "Secret#123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Validate(tt.password))
		})
	}
}
