package domain

import (
	"strings"
	"time"
)

// Role represents user role in the system
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleUser   Role = "USER"
	RoleViewer Role = "VIEWER"
)

// DefaultRoles are seeded at startup and accepted on registration
// unless configured otherwise.
var DefaultRoles = []Role{RoleAdmin, RoleUser, RoleViewer}

// NormalizeRole returns the canonical form of a role name.
// Roles are stored and compared upper-cased.
func NormalizeRole(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// NormalizeEmail returns the lookup key for an email address
func NormalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}

// User is the profile returned to clients
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}
