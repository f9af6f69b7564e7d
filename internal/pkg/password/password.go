package password

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12

	// MaxBytes is the longest input bcrypt accepts
	MaxBytes = 72
)

// Hasher hashes and verifies passwords with bcrypt.
// The salt and cost are embedded in every hash it produces.
type Hasher struct {
	cost      int
	dummyHash []byte
}

// NewHasher creates a hasher with the given bcrypt cost.
// Out of range costs fall back to DefaultCost.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	// Unknown users are checked against this hash so a failed lookup
	// costs the same as a wrong password.
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to generate dummy password: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(seed)), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dummy hash: %w", err)
	}

	return &Hasher{cost: cost, dummyHash: dummy}, nil
}

// Hash hashes a password using bcrypt
func (h *Hasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify compares a password with a hash.
// A malformed hash never matches.
func (h *Hasher) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// VerifyDummy burns the same work as Verify and always fails
func (h *Hasher) VerifyDummy(password string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
	return false
}

// Policy describes password requirements
type Policy struct {
	MinLength              int
	MaxLength              int
	RequireDigit           bool
	RequireLower           bool
	RequireUpper           bool
	RequireNonAlphanumeric bool
}

// DefaultPolicy returns the registration policy: 6 to 72 bytes, no character classes
func DefaultPolicy() Policy {
	return Policy{
		MinLength: 6,
		MaxLength: MaxBytes,
	}
}

// Validate returns every rule the password breaks, in a stable order.
// An empty result means the password is acceptable.
func (p Policy) Validate(password string) []string {
	var violations []string

	if password == "" {
		return []string{"Password is required"}
	}

	if p.MinLength > 0 && len([]rune(password)) < p.MinLength {
		violations = append(violations, fmt.Sprintf("Password must be at least %d characters long", p.MinLength))
	}

	maxLen := p.MaxLength
	if maxLen <= 0 || maxLen > MaxBytes {
		maxLen = MaxBytes
	}
	if len(password) > maxLen {
		violations = append(violations, fmt.Sprintf("Password must be at most %d bytes long", maxLen))
	}

	var hasDigit, hasLower, hasUpper, hasOther bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r):
			hasOther = true
		}
	}

	if p.RequireDigit && !hasDigit {
		violations = append(violations, "Password must have at least one digit ('0'-'9')")
	}
	if p.RequireLower && !hasLower {
		violations = append(violations, "Password must have at least one lowercase ('a'-'z')")
	}
	if p.RequireUpper && !hasUpper {
		violations = append(violations, "Password must have at least one uppercase ('A'-'Z')")
	}
	if p.RequireNonAlphanumeric && !hasOther {
		violations = append(violations, "Password must have at least one non alphanumeric character")
	}

	return violations
}
