package repositories

import (
	"context"

	"hxstudio-auth/internal/adapters/persistence/models"
)

// CredentialStore defines persistence for users, roles and role assignments.
// Role names are normalized to upper case on every call.
type CredentialStore interface {
	CreateUser(ctx context.Context, user *models.User) (string, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	EnsureRoleExists(ctx context.Context, name string) error
	AssignRole(ctx context.Context, userID, name string) error
	ListRoles(ctx context.Context, userID string) ([]string, error)

	// Transaction runs fn against a store bound to one database transaction.
	// Any error returned by fn rolls the transaction back.
	Transaction(ctx context.Context, fn func(store CredentialStore) error) error
}
