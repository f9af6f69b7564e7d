package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hxstudio-auth/internal/core/domain"
	"hxstudio-auth/internal/pkg/jwt"
	"hxstudio-auth/internal/pkg/password"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig is wrapped by every configuration error
var ErrInvalidConfig = errors.New("invalid configuration")

// Supported database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Auth     AuthConfig
	HTTP     HTTPConfig
	Health   HealthConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds access token configuration
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
	Leeway   time.Duration
}

// AuthConfig holds registration and password rules
type AuthConfig struct {
	AllowedRoles        []string
	PasswordMinLength   int
	BcryptCost          int
	AssignRoleAdminOnly bool
	SeedAdminEmail      string
	SeedAdminPassword   string

	RequireDigit           bool
	RequireLower           bool
	RequireUpper           bool
	RequireNonAlphanumeric bool
}

// HTTPConfig holds CORS and rate limit settings
type HTTPConfig struct {
	AllowedOrigins         string
	RateLimitPerMinute     int
	AuthRateLimitPerMinute int
}

// HealthConfig holds the database probe schedule
type HealthConfig struct {
	DBSchedule string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env is optional; production sets real environment variables
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, invalid("APP_MODE must be 'dev' or 'prod', got %q", appMode)
	}

	database, err := loadDatabaseConfig(appMode)
	if err != nil {
		return nil, err
	}
	jwtCfg, err := loadJWTConfig(appMode)
	if err != nil {
		return nil, err
	}
	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: database,
		JWT:      jwtCfg,
		Auth:     auth,
		HTTP:     httpCfg,
		Health: HealthConfig{
			DBSchedule: getEnv("DB_HEALTH_SCHEDULE", "@every 1m"),
		},
	}, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) (DatabaseConfig, error) {
	prefix := modePrefix(mode)

	driver := strings.ToLower(strings.TrimSpace(getEnv(prefix+"DB_DRIVER", DriverMySQL)))
	switch driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return DatabaseConfig{}, invalid("%sDB_DRIVER %q is not supported", prefix, driver)
	}

	cfg := DatabaseConfig{
		Driver:   driver,
		DSN:      getEnv(prefix+"DB_DSN", ""),
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "hxstudio_auth"),
	}
	if cfg.DSN == "" && driver != DriverMySQL {
		return DatabaseConfig{}, invalid("%sDB_DSN is required for driver %q", prefix, driver)
	}
	return cfg, nil
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) (JWTConfig, error) {
	prefix := modePrefix(mode)

	secret := os.Getenv(prefix + "JWT_SECRET")
	if secret == "" {
		return JWTConfig{}, invalid("%sJWT_SECRET is required", prefix)
	}
	if len(secret) < jwt.MinSecretLength {
		return JWTConfig{}, invalid("%sJWT_SECRET must be at least %d bytes", prefix, jwt.MinSecretLength)
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", jwt.DefaultTTL.String()))
	if err != nil || ttl <= 0 {
		return JWTConfig{}, invalid("JWT_TTL must be a positive duration")
	}

	leeway, err := time.ParseDuration(getEnv("JWT_LEEWAY", "0s"))
	if err != nil || leeway < 0 {
		return JWTConfig{}, invalid("JWT_LEEWAY must be a non-negative duration")
	}

	return JWTConfig{
		Secret:   secret,
		Issuer:   getEnv("JWT_ISSUER", "hxstudio-auth"),
		Audience: getEnv("JWT_AUDIENCE", "hxstudio-client"),
		TTL:      ttl,
		Leeway:   leeway,
	}, nil
}

// loadAuthConfig loads registration and password settings
func loadAuthConfig() (AuthConfig, error) {
	var roles []string
	for _, r := range strings.Split(getEnv("AUTH_ALLOWED_ROLES", defaultRoles()), ",") {
		if r = domain.NormalizeRole(r); r != "" {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		return AuthConfig{}, invalid("AUTH_ALLOWED_ROLES must name at least one role")
	}

	minLength, err := getEnvInt("AUTH_PASSWORD_MIN_LENGTH", password.DefaultPolicy().MinLength)
	if err != nil {
		return AuthConfig{}, err
	}
	if minLength < 1 || minLength > password.MaxBytes {
		return AuthConfig{}, invalid("AUTH_PASSWORD_MIN_LENGTH must be between 1 and %d", password.MaxBytes)
	}

	cost, err := getEnvInt("AUTH_BCRYPT_COST", password.DefaultCost)
	if err != nil {
		return AuthConfig{}, err
	}

	cfg := AuthConfig{
		AllowedRoles:      roles,
		PasswordMinLength: minLength,
		BcryptCost:        cost,
		SeedAdminEmail:    strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"AUTH_ASSIGN_ROLE_ADMIN_ONLY", &cfg.AssignRoleAdminOnly},
		{"AUTH_PASSWORD_REQUIRE_DIGIT", &cfg.RequireDigit},
		{"AUTH_PASSWORD_REQUIRE_LOWER", &cfg.RequireLower},
		{"AUTH_PASSWORD_REQUIRE_UPPER", &cfg.RequireUpper},
		{"AUTH_PASSWORD_REQUIRE_NONALNUM", &cfg.RequireNonAlphanumeric},
	}
	for _, f := range flags {
		if *f.dst, err = getEnvBool(f.key, false); err != nil {
			return AuthConfig{}, err
		}
	}

	return cfg, nil
}

// loadHTTPConfig loads CORS and rate limit settings
func loadHTTPConfig() (HTTPConfig, error) {
	perMinute, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 100)
	if err != nil {
		return HTTPConfig{}, err
	}
	authPerMinute, err := getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 5)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		AllowedOrigins:         getEnv("ALLOWED_ORIGINS", "http://localhost:5173"),
		RateLimitPerMinute:     perMinute,
		AuthRateLimitPerMinute: authPerMinute,
	}, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

func defaultRoles() string {
	names := make([]string, len(domain.DefaultRoles))
	for i, r := range domain.DefaultRoles {
		names[i] = string(r)
	}
	return strings.Join(names, ",")
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, invalid("%s must be a non-negative integer, got %q", key, value)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, invalid("%s must be a boolean, got %q", key, value)
	}
	return b, nil
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// PasswordPolicy returns the policy applied to new passwords
func (c *Config) PasswordPolicy() password.Policy {
	policy := password.DefaultPolicy()
	policy.MinLength = c.Auth.PasswordMinLength
	policy.RequireDigit = c.Auth.RequireDigit
	policy.RequireLower = c.Auth.RequireLower
	policy.RequireUpper = c.Auth.RequireUpper
	policy.RequireNonAlphanumeric = c.Auth.RequireNonAlphanumeric
	return policy
}

// IsAllowedRole reports whether a role may be requested at registration
func (c *Config) IsAllowedRole(role string) bool {
	role = domain.NormalizeRole(role)
	for _, allowed := range c.Auth.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}
