package services

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"hxstudio-auth/internal/adapters/persistence/models"
	"hxstudio-auth/internal/adapters/persistence/repositories"
	"hxstudio-auth/internal/config"
	"hxstudio-auth/internal/core/domain"
	"hxstudio-auth/internal/pkg/jwt"
	"hxstudio-auth/internal/pkg/logger"

	"github.com/samber/oops"
)

const (
	maxEmailLength = 256
	maxNameLength  = 50
	maxRoleLength  = 20
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().\-]{5,19}$`)

// AuthService handles authentication business logic
type AuthService struct {
	store  repositories.CredentialStore
	hasher PasswordHasher
	tokens TokenAuthority
	cfg    *config.Config
	logger *slog.Logger
	now    Clock
}

// NewAuthService creates a new auth service
func NewAuthService(
	store repositories.CredentialStore,
	hasher PasswordHasher,
	tokens TokenAuthority,
	cfg *config.Config,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for token issuance and verification
func (s *AuthService) WithClock(now Clock) *AuthService {
	s.now = now
	return s
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// LoginInput represents login input. The user name is the email address.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Register creates a user and assigns the requested role.
// Either both happen or neither does.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) error {
	// 1. Validate input
	if err := s.validateRegistration(input); err != nil {
		return err
	}

	// 2. Hash password
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return s.unexpected("AUTH_REGISTER_FAILED", "hash password", err, "email", input.Email)
	}

	// 3. Create user and role assignment atomically
	role := domain.NormalizeRole(input.Role)
	email := strings.TrimSpace(input.Email)
	var userID string
	err = s.store.Transaction(ctx, func(tx repositories.CredentialStore) error {
		id, err := tx.CreateUser(ctx, &models.User{
			Email:        email,
			UserName:     email,
			Name:         strings.TrimSpace(input.Name),
			PhoneNumber:  strings.TrimSpace(input.PhoneNumber),
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		if err := tx.EnsureRoleExists(ctx, role); err != nil {
			return err
		}
		userID = id
		return tx.AssignRole(ctx, id, role)
	})
	if err != nil {
		if domain.IsBusinessError(err) {
			return err
		}
		return s.unexpected("AUTH_REGISTER_FAILED", "register user", err, "email", email, "role", role)
	}

	s.logger.Info("user registered", "user_id", userID, "role", role)
	return nil
}

// Login checks credentials and issues an access token.
// Unknown email and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginResponse, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, domain.NewValidationError("Username is required")
	}
	if input.Password == "" {
		return nil, domain.NewValidationError("Password is required")
	}

	user, err := s.store.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.VerifyDummy(input.Password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, s.unexpected("AUTH_LOGIN_FAILED", "find user", err, "email", input.Email)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	role, err := s.primaryRole(ctx, user.ID)
	if err != nil {
		return nil, s.unexpected("AUTH_LOGIN_FAILED", "load roles", err, "user_id", user.ID)
	}

	token, err := s.tokens.Issue(jwt.Subject{
		UserID: user.ID,
		Role:   role,
		Email:  user.Email,
		Name:   user.Name,
	}, s.now())
	if err != nil {
		return nil, s.unexpected("AUTH_LOGIN_FAILED", "issue token", err, "user_id", user.ID)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &LoginResponse{
		User:      user.ToResponse(role),
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// AssignRole grants a role to the user with the given email, creating
// the role if needed. Granting a held role again succeeds.
func (s *AuthService) AssignRole(ctx context.Context, email, role string) error {
	role = domain.NormalizeRole(role)
	if role == "" {
		return domain.NewValidationError("Role is required")
	}
	if len(role) > maxRoleLength {
		return domain.NewValidationError("Role length can't be more than 20.")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return s.unexpected("AUTH_ASSIGN_ROLE_FAILED", "find user", err, "email", email)
	}

	if err := s.store.EnsureRoleExists(ctx, role); err != nil {
		return s.unexpected("AUTH_ASSIGN_ROLE_FAILED", "ensure role", err, "role", role)
	}
	if err := s.store.AssignRole(ctx, user.ID, role); err != nil {
		if domain.IsBusinessError(err) {
			return err
		}
		return s.unexpected("AUTH_ASSIGN_ROLE_FAILED", "assign role", err, "user_id", user.ID, "role", role)
	}

	s.logger.Info("role assigned", "user_id", user.ID, "role", role)
	return nil
}

// ChangePassword replaces the password after checking the current one.
// All failures are reported together in one validation error.
func (s *AuthService) ChangePassword(ctx context.Context, input *ChangePasswordInput) error {
	user, err := s.store.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return s.unexpected("AUTH_CHANGE_PASSWORD_FAILED", "find user", err, "email", input.Email)
	}

	var failures []string
	if !s.hasher.Verify(input.CurrentPassword, user.PasswordHash) {
		failures = append(failures, domain.ErrInvalidPassword.Error())
	}
	failures = append(failures, s.cfg.PasswordPolicy().Validate(input.NewPassword)...)
	if len(failures) > 0 {
		return domain.NewValidationError(failures...)
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return s.unexpected("AUTH_CHANGE_PASSWORD_FAILED", "hash password", err, "user_id", user.ID)
	}
	if err := s.store.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return s.unexpected("AUTH_CHANGE_PASSWORD_FAILED", "update password", err, "user_id", user.ID)
	}

	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

// ValidateAccessToken verifies a bearer token at the current time
func (s *AuthService) ValidateAccessToken(token string) (*jwt.Claims, error) {
	return s.tokens.Verify(token, s.now())
}

// GetProfile returns the user with their primary role
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, s.unexpected("AUTH_PROFILE_FAILED", "find user", err, "user_id", userID)
	}

	role, err := s.primaryRole(ctx, user.ID)
	if err != nil {
		return nil, s.unexpected("AUTH_PROFILE_FAILED", "load roles", err, "user_id", userID)
	}
	return user.ToResponse(role), nil
}

// primaryRole is the first role assigned to the user, or "" when the
// user has none.
func (s *AuthService) primaryRole(ctx context.Context, userID string) (string, error) {
	roles, err := s.store.ListRoles(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(roles) == 0 {
		return "", nil
	}
	return roles[0], nil
}

func (s *AuthService) validateRegistration(input *RegisterInput) error {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return domain.NewValidationError("Email is required")
	}
	if len(email) > maxEmailLength {
		return domain.NewValidationError("Email length can't be more than 256.")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.NewValidationError("Invalid email address")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.NewValidationError("Username is required")
	}
	if len([]rune(name)) > maxNameLength {
		return domain.NewValidationError("Username length can't be more than 50.")
	}

	phone := strings.TrimSpace(input.PhoneNumber)
	if phone == "" {
		return domain.NewValidationError("Phone number is required")
	}
	if !phonePattern.MatchString(phone) {
		return domain.NewValidationError("Invalid phone number")
	}

	if violations := s.cfg.PasswordPolicy().Validate(input.Password); len(violations) > 0 {
		return domain.NewValidationError(violations[0])
	}

	role := domain.NormalizeRole(input.Role)
	if role == "" {
		return domain.NewValidationError("Role is required")
	}
	if len(role) > maxRoleLength {
		return domain.NewValidationError("Role length can't be more than 20.")
	}
	if !s.cfg.IsAllowedRole(role) {
		return domain.ErrInvalidRole
	}
	return nil
}

// unexpected wraps and logs a failure the client must not see in detail
func (s *AuthService) unexpected(code, op string, err error, kv ...any) error {
	wrapped := oops.
		Code(code).
		With(kv...).
		Wrapf(err, "%s", op)
	logger.LogError(s.logger, "auth operation failed", wrapped)
	return wrapped
}
