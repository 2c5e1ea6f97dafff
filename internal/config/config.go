package config // package config loads application configuration from environment variables

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all runtime configuration values. Each field is sourced from
// an environment variable; unset variables fall back to development defaults.
type Config struct {
	Env         string // application environment (dev, test, prod)
	Port        string // HTTP port to listen on
	LogLevel    string // logrus level name
	LogFormat   string // "text" or "json"
	BcryptCost  int    // bcrypt cost for password hashing
	CORSOrigins []string

	DB        DBConfig
	JWT       JWTConfig
	Gate      AuthGateConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
}

// DBConfig selects and parameterizes the SQL driver.
type DBConfig struct {
	Driver          string // "mysql" or "sqlite"
	User            string
	Pass            string
	Host            string
	Port            string
	Name            string
	Path            string // sqlite file path or ":memory:"
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig parameterizes the token codec.
type JWTConfig struct {
	Secret     string
	Issuer     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthGateConfig lists the paths guarded by the bearer-token middleware and
// the documentation paths that always pass.
type AuthGateConfig struct {
	ProtectedPrefixes []string
	PublicPaths       []string
}

const defaultSecret = "dev-secret-change-me"

// Load reads configuration values from the environment and validates them.
func Load() (Config, error) {
	cfg := Config{
		Env:         envStr("APP_ENV", "dev"),
		Port:        envStr("APP_PORT", "8000"),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		LogFormat:   envStr("LOG_FORMAT", "text"),
		BcryptCost:  envInt("BCRYPT_COST", bcrypt.DefaultCost),
		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),
		DB: DBConfig{
			Driver:          strings.ToLower(envStr("DB_DRIVER", "mysql")),
			User:            envStr("DB_USER", "root"),
			Pass:            envStr("DB_PASS", ""),
			Host:            envStr("DB_HOST", "127.0.0.1"),
			Port:            envStr("DB_PORT", "3306"),
			Name:            envStr("DB_NAME", "reading_list"),
			Path:            envStr("DB_PATH", "reading_list.db"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		JWT: JWTConfig{
			Secret:     envStr("JWT_SECRET", defaultSecret),
			Issuer:     envStr("JWT_ISSUER", "neuro-butler"),
			Algorithm:  strings.ToUpper(envStr("JWT_ALGORITHM", "HS256")),
			AccessTTL:  time.Duration(envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 5)) * time.Minute,
			RefreshTTL: time.Duration(envInt("REFRESH_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		},
		Gate: AuthGateConfig{
			ProtectedPrefixes: envList("AUTH_PROTECTED_PREFIXES", []string{
				"/api/v1/entries",
				"/api/v1/admin",
				"/api/v1/auth/me",
				"/api/v1/auth/logout",
				"/api/v1/auth/sessions",
			}),
			PublicPaths: envList("AUTH_PUBLIC_PATHS", []string{"/docs", "/openapi.json", "/redoc"}),
		},
		Redis:     loadRedisConfig(),
		RateLimit: LoadRateLimitConfig(),
		Events:    loadEventsConfig(),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Env == "prod" && c.JWT.Secret == defaultSecret {
		return fmt.Errorf("JWT_SECRET must be set in prod")
	}
	if _, ok := jwt.GetSigningMethod(c.JWT.Algorithm).(*jwt.SigningMethodHMAC); !ok {
		return fmt.Errorf("unsupported JWT_ALGORITHM %q: an HMAC algorithm is required", c.JWT.Algorithm)
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST %d out of range [%d,%d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.DB.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	switch c.Events.Backend {
	case "none", "rabbitmq", "kafka":
	default:
		return fmt.Errorf("unsupported EVENTS_BACKEND %q", c.Events.Backend)
	}
	return nil
}
