package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Server       ServerConfig
	Provisioning ProvisioningConfig
	Invitations  InvitationConfig
	SelfHosted   bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Redis carries the identity
// provider's lifecycle events.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds token verification settings. Tokens are minted by the
// identity provider; this service only verifies them.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// ProvisioningConfig controls how identity events become profiles.
type ProvisioningConfig struct {
	// RequireVerifiedEmail defers invitation acceptance until the identity
	// provider reports the email as verified. Owner signups are exempt.
	RequireVerifiedEmail bool
	// TenantVisibilityWait bounds the retry window for the school row to
	// become visible after the signup call that created it.
	TenantVisibilityWait time.Duration
}

// InvitationConfig controls invitation lifetime and cleanup.
type InvitationConfig struct {
	TTL           time.Duration
	PurgeGrace    time.Duration
	PurgeSchedule string // cron expression
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("CLASSDESK_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("CLASSDESK_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("CLASSDESK_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("CLASSDESK_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("CLASSDESK_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	requireVerified, err := getEnvBool("CLASSDESK_REQUIRE_VERIFIED_EMAIL", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	visibilityWait, err := getEnvDuration("CLASSDESK_TENANT_VISIBILITY_WAIT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	inviteTTL, err := getEnvDuration("CLASSDESK_INVITE_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	invitePurgeGrace, err := getEnvDuration("CLASSDESK_INVITE_PURGE_GRACE", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	selfHosted, err := getEnvBool("CLASSDESK_SELF_HOSTED", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("CLASSDESK_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("CLASSDESK_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("CLASSDESK_DB_USER", "classdesk"),
			Password: getEnv("CLASSDESK_DB_PASSWORD", ""),
			DBName:   getEnv("CLASSDESK_DB_NAME", "classdesk_dev"),
			SSLMode:  getEnv("CLASSDESK_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("CLASSDESK_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("CLASSDESK_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("CLASSDESK_JWT_SECRET", ""),
		},
		Server: ServerConfig{
			Addr:         getEnv("CLASSDESK_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Provisioning: ProvisioningConfig{
			RequireVerifiedEmail: requireVerified,
			TenantVisibilityWait: visibilityWait,
		},
		Invitations: InvitationConfig{
			TTL:           inviteTTL,
			PurgeGrace:    invitePurgeGrace,
			PurgeSchedule: getEnv("CLASSDESK_INVITE_PURGE_SCHEDULE", "@hourly"),
		},
		SelfHosted: selfHosted,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("CLASSDESK_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("CLASSDESK_JWT_SECRET must be at least 32 characters")
	}

	// DB SSL mode warning for non-self-hosted deployments.
	if c.Database.SSLMode == "disable" && !c.SelfHosted {
		log.Warn().Msg("CLASSDESK_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("CLASSDESK_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("CLASSDESK_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("CLASSDESK_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("CLASSDESK_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Provisioning.TenantVisibilityWait <= 0 {
		return fmt.Errorf("CLASSDESK_TENANT_VISIBILITY_WAIT must be positive, got %s", c.Provisioning.TenantVisibilityWait)
	}
	if c.Invitations.TTL <= 0 {
		return fmt.Errorf("CLASSDESK_INVITE_TTL must be positive, got %s", c.Invitations.TTL)
	}
	if c.Invitations.PurgeGrace < 0 {
		return fmt.Errorf("CLASSDESK_INVITE_PURGE_GRACE must be >= 0, got %s", c.Invitations.PurgeGrace)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
