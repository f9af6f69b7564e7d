package config

import (
	"context"
	"errors"
	"log/slog"

	"hxstudio-auth/internal/adapters/persistence/models"
	"hxstudio-auth/internal/adapters/persistence/repositories"
	"hxstudio-auth/internal/core/domain"
	"hxstudio-auth/internal/pkg/password"
)

// Seeder handles database seeding
type Seeder struct {
	store  repositories.CredentialStore
	cfg    *Config
	logger *slog.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(store repositories.CredentialStore, cfg *Config, logger *slog.Logger) *Seeder {
	return &Seeder{store: store, cfg: cfg, logger: logger}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	s.logger.Info("running database seeders")

	if err := s.SeedRoles(ctx); err != nil {
		return err
	}

	if err := s.SeedAdmin(ctx); err != nil {
		s.logger.Warn("admin seeder skipped", "error", err)
	}

	s.logger.Info("database seeding completed")
	return nil
}

// SeedRoles creates every allowed role. Safe to run on each start.
func (s *Seeder) SeedRoles(ctx context.Context) error {
	for _, role := range s.cfg.Auth.AllowedRoles {
		if err := s.store.EnsureRoleExists(ctx, role); err != nil {
			return err
		}
	}
	return nil
}

// SeedAdmin creates the first admin when SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD are set and that email is not registered yet.
func (s *Seeder) SeedAdmin(ctx context.Context) error {
	email := s.cfg.Auth.SeedAdminEmail
	if email == "" || s.cfg.Auth.SeedAdminPassword == "" {
		return nil
	}

	_, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return nil // Admin already exists
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hasher, err := password.NewHasher(s.cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(s.cfg.Auth.SeedAdminPassword)
	if err != nil {
		return err
	}

	admin := string(domain.RoleAdmin)
	err = s.store.Transaction(ctx, func(tx repositories.CredentialStore) error {
		id, err := tx.CreateUser(ctx, &models.User{
			Email:        email,
			Name:         "Administrator",
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		if err := tx.EnsureRoleExists(ctx, admin); err != nil {
			return err
		}
		return tx.AssignRole(ctx, id, admin)
	})
	if err != nil {
		return err
	}

	s.logger.Info("admin user created", "email", email)
	return nil
}
