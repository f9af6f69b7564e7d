package repositories

import (
	"context"
	"errors"
	"strings"

	"hxstudio-auth/internal/adapters/persistence/models"
	"hxstudio-auth/internal/core/domain"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// credentialStore implements CredentialStore on GORM
type credentialStore struct {
	db *gorm.DB
}

// NewCredentialStore creates a new credential store
func NewCredentialStore(db *gorm.DB) CredentialStore {
	return &credentialStore{db: db}
}

// CreateUser inserts a user and returns its id.
// Uniqueness of the normalized email is enforced by the database.
func (s *credentialStore) CreateUser(ctx context.Context, user *models.User) (string, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.NormalizedEmail = domain.NormalizeEmail(user.Email)
	if user.UserName == "" {
		user.UserName = user.Email
	}

	err := s.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if isDuplicateKey(err) {
			return "", domain.ErrDuplicateEmail
		}
		return "", oops.
			Code("STORE_CREATE_USER").
			With("email", user.Email).
			Wrapf(err, "create user")
	}
	return user.ID, nil
}

// FindByEmail gets a user by email, case-insensitively
func (s *credentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("normalized_email = ?", domain.NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, oops.
			Code("STORE_FIND_USER").
			With("email", email).
			Wrapf(err, "find user by email")
	}
	return &user, nil
}

// FindByID gets a user by id
func (s *credentialStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, oops.
			Code("STORE_FIND_USER").
			With("user_id", id).
			Wrapf(err, "find user by id")
	}
	return &user, nil
}

// UpdatePasswordHash replaces the stored hash of a user
func (s *credentialStore) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash)
	if result.Error != nil {
		return oops.
			Code("STORE_UPDATE_PASSWORD").
			With("user_id", userID).
			Wrapf(result.Error, "update password hash")
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureRoleExists creates the role unless it is already present.
// Concurrent callers racing on the same name all succeed.
func (s *credentialStore) EnsureRoleExists(ctx context.Context, name string) error {
	name = domain.NormalizeRole(name)
	if name == "" {
		return domain.NewValidationError("Role is required")
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&models.Role{Name: name}).Error
	if err != nil && !isDuplicateKey(err) {
		return oops.
			Code("STORE_ENSURE_ROLE").
			With("role", name).
			Wrapf(err, "ensure role exists")
	}
	return nil
}

// AssignRole links a user to an existing role. Assigning a role the user
// already holds is a no-op.
func (s *credentialStore) AssignRole(ctx context.Context, userID, name string) error {
	name = domain.NormalizeRole(name)
	db := s.db.WithContext(ctx)

	var userCount int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&userCount).Error; err != nil {
		return oops.
			Code("STORE_ASSIGN_ROLE").
			With("user_id", userID).
			With("role", name).
			Wrapf(err, "check user")
	}
	if userCount == 0 {
		return domain.ErrUserNotFound
	}

	var role models.Role
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRoleNotFound
		}
		return oops.
			Code("STORE_ASSIGN_ROLE").
			With("user_id", userID).
			With("role", name).
			Wrapf(err, "find role")
	}

	err := db.
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "role_id"}},
			DoNothing: true,
		}).
		Create(&models.UserRole{UserID: userID, RoleID: role.ID}).Error
	if err != nil && !isDuplicateKey(err) {
		return oops.
			Code("STORE_ASSIGN_ROLE").
			With("user_id", userID).
			With("role", name).
			Wrapf(err, "insert user role")
	}
	return nil
}

// ListRoles returns the role names of a user in assignment order
func (s *credentialStore) ListRoles(ctx context.Context, userID string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", userID).
		Order("user_roles.id ASC").
		Pluck("roles.name", &names).Error
	if err != nil {
		return nil, oops.
			Code("STORE_LIST_ROLES").
			With("user_id", userID).
			Wrapf(err, "list roles")
	}
	return names, nil
}

// Transaction runs fn inside a database transaction
func (s *credentialStore) Transaction(ctx context.Context, fn func(store CredentialStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&credentialStore{db: tx})
	})
}

// isDuplicateKey reports a unique constraint violation. Dialects without
// error translation are matched on their driver message.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
