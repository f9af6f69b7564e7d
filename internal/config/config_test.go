package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hxstudio-auth/internal/adapters/persistence/models"
	"hxstudio-auth/internal/adapters/persistence/repositories"
	"hxstudio-auth/internal/pkg/logger"
	"hxstudio-auth/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DEV_JWT_SECRET", testSecret)
}

func TestFromEnv_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, testSecret, cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Zero(t, cfg.JWT.Leeway)
	assert.Equal(t, "hxstudio-auth", cfg.JWT.Issuer)
	assert.Equal(t, []string{"ADMIN", "USER", "VIEWER"}, cfg.Auth.AllowedRoles)
	assert.Equal(t, 6, cfg.Auth.PasswordMinLength)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.AssignRoleAdminOnly)
	assert.Equal(t, password.DefaultPolicy(), cfg.PasswordPolicy())
	assert.Equal(t, "http://localhost:5173", cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 100, cfg.HTTP.RateLimitPerMinute)
	assert.Equal(t, 5, cfg.HTTP.AuthRateLimitPerMinute)
	assert.Equal(t, "@every 1m", cfg.Health.DBSchedule)
}

func TestFromEnv_ProdUsesProdPrefix(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("PROD_JWT_SECRET", testSecret+"-prod")
	t.Setenv("PROD_DB_DRIVER", "postgres")
	t.Setenv("PROD_DB_DSN", "postgres://auth@localhost/auth")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "prod", cfg.AppMode)
	assert.Equal(t, testSecret+"-prod", cfg.JWT.Secret)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
}

func TestFromEnv_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("AUTH_ALLOWED_ROLES", " admin , editor ,")
	t.Setenv("AUTH_PASSWORD_MIN_LENGTH", "10")
	t.Setenv("AUTH_ASSIGN_ROLE_ADMIN_ONLY", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, []string{"ADMIN", "EDITOR"}, cfg.Auth.AllowedRoles)
	assert.True(t, cfg.Auth.AssignRoleAdminOnly)
	assert.Equal(t, 10, cfg.PasswordPolicy().MinLength)
	assert.True(t, cfg.IsAllowedRole("Editor"))
	assert.False(t, cfg.IsAllowedRole("VIEWER"))
}

func TestFromEnv_PasswordRules(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_LEEWAY", "30s")
	t.Setenv("AUTH_PASSWORD_REQUIRE_DIGIT", "true")
	t.Setenv("AUTH_PASSWORD_REQUIRE_LOWER", "1")
	t.Setenv("AUTH_PASSWORD_REQUIRE_UPPER", "TRUE")
	t.Setenv("AUTH_PASSWORD_REQUIRE_NONALNUM", "false")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.JWT.Leeway)

	policy := cfg.PasswordPolicy()
	assert.True(t, policy.RequireDigit)
	assert.True(t, policy.RequireLower)
	assert.True(t, policy.RequireUpper)
	assert.False(t, policy.RequireNonAlphanumeric)
	assert.Equal(t, []string{
		"Password must have at least one digit ('0'-'9')",
		"Password must have at least one uppercase ('A'-'Z')",
	}, policy.Validate("secret"))
	assert.Empty(t, policy.Validate("Secret1"))
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad mode", env: map[string]string{"APP_MODE": "staging"}},
		{name: "missing secret", env: map[string]string{"DEV_JWT_SECRET": ""}},
		{name: "short secret", env: map[string]string{"DEV_JWT_SECRET": "too-short"}},
		{name: "bad driver", env: map[string]string{"DEV_DB_DRIVER": "oracle"}},
		{name: "sqlite without dsn", env: map[string]string{"DEV_DB_DRIVER": "sqlite"}},
		{name: "bad ttl", env: map[string]string{"JWT_TTL": "forever"}},
		{name: "negative ttl", env: map[string]string{"JWT_TTL": "-1h"}},
		{name: "bad leeway", env: map[string]string{"JWT_LEEWAY": "soon"}},
		{name: "negative leeway", env: map[string]string{"JWT_LEEWAY": "-5s"}},
		{name: "bad password rule", env: map[string]string{"AUTH_PASSWORD_REQUIRE_DIGIT": "yes"}},
		{name: "bad min length", env: map[string]string{"AUTH_PASSWORD_MIN_LENGTH": "six"}},
		{name: "min length over bcrypt limit", env: map[string]string{"AUTH_PASSWORD_MIN_LENGTH": "100"}},
		{name: "bad rate limit", env: map[string]string{"RATE_LIMIT_PER_MINUTE": "-3"}},
		{name: "bad bool", env: map[string]string{"AUTH_ASSIGN_ROLE_ADMIN_ONLY": "maybe"}},
		{name: "no roles", env: map[string]string{"AUTH_ALLOWED_ROLES": " , "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := FromEnv()
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestFromEnv_ErrorDoesNotLeakSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DEV_JWT_SECRET", "short-secret-value")

	_, err := FromEnv()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "short-secret-value")
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn := buildMySQLDSN(DatabaseConfig{
		Host:     "db",
		Port:     "3306",
		User:     "auth",
		Password: "pw",
		DBName:   "identity",
	})
	assert.Equal(t, "auth:pw@tcp(db:3306)/identity?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}

func newSQLiteConfig(t *testing.T) *Config {
	t.Helper()
	setBaseEnv(t)
	t.Setenv("DEV_DB_DRIVER", "sqlite")
	t.Setenv("DEV_DB_DSN", filepath.Join(t.TempDir(), "auth.db")+"?_pragma=busy_timeout(5000)")
	cfg, err := FromEnv()
	require.NoError(t, err)
	cfg.AppMode = "prod" // quiet SQL logging
	return cfg
}

func TestConnectDatabase_SQLite(t *testing.T) {
	cfg := newSQLiteConfig(t)

	db, err := ConnectDatabase(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDatabase(db) })

	assert.NoError(t, HealthCheck(context.Background(), db))
	require.NoError(t, CloseDatabase(db))
	assert.Error(t, HealthCheck(context.Background(), db))
	assert.Error(t, HealthCheck(context.Background(), nil))
}

func TestSeeder(t *testing.T) {
	cfg := newSQLiteConfig(t)
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Auth.SeedAdminEmail = "root@example.com"
	cfg.Auth.SeedAdminPassword = "admin-password"

	db, err := ConnectDatabase(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDatabase(db) })
	require.NoError(t, models.AutoMigrate(db))

	store := repositories.NewCredentialStore(db)
	seeder := NewSeeder(store, cfg, logger.Discard())
	ctx := context.Background()

	require.NoError(t, seeder.Run(ctx))
	// Running again must not duplicate anything
	require.NoError(t, seeder.Run(ctx))

	var roleCount int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roleCount).Error)
	assert.EqualValues(t, len(cfg.Auth.AllowedRoles), roleCount)

	admin, err := store.FindByEmail(ctx, "ROOT@example.com")
	require.NoError(t, err)
	roles, err := store.ListRoles(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN"}, roles)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin-password")))

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.EqualValues(t, 1, userCount)
}
