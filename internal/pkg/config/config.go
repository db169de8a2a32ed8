package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// DirectoryBackend selects where principals live: mongo, postgres or memory.
	DirectoryBackend string `env:"DIRECTORY_BACKEND, default=mongo"`
	AuditWorkers     int    `env:"AUDIT_WORKERS,     default=4"`

	JWT      JWTConfig
	Auth     AuthConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

type JWTConfig struct {
	Secret     string                `env:"JWT_SECRET"`
	Issuer     string                `env:"JWT_ISSUER,      default=reports-api"`
	TTL        time.Duration         `env:"JWT_TTL,         default=24h"`
	Leeway     time.Duration         `env:"JWT_LEEWAY,      default=5s"`
	SigningAlg string                `env:"JWT_SIGNING_ALG, default=HS256"`
	Ed25519Key envconfig.Base64Bytes `env:"JWT_ED25519_SEED"`
}

type AuthConfig struct {
	BcryptCost         int           `env:"BCRYPT_COST,             default=10"`
	TrustTokenClaims   bool          `env:"AUTH_TRUST_TOKEN_CLAIMS, default=false"`
	LoginMaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS,      default=5"`
	LoginAttemptWindow time.Duration `env:"LOGIN_ATTEMPT_WINDOW,    default=15m"`

	// BootstrapAdminEmail names an existing account promoted to admin at startup.
	BootstrapAdminEmail string `env:"BOOTSTRAP_ADMIN_EMAIL"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=field_reports"`
}

type PostgresConfig struct {
	URL string `env:"POSTGRES_URL"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) validate() error {
	switch strings.ToUpper(c.JWT.SigningAlg) {
	case "HS256":
		if c.JWT.Secret == "" {
			return fmt.Errorf("config: JWT_SECRET is required for HS256")
		}
	case "EDDSA":
		if len(c.JWT.Ed25519Key) == 0 {
			return fmt.Errorf("config: JWT_ED25519_SEED is required for EdDSA")
		}
	default:
		return fmt.Errorf("config: unsupported JWT_SIGNING_ALG %q", c.JWT.SigningAlg)
	}

	switch c.DirectoryBackend {
	case "mongo", "memory":
	case "postgres":
		if c.Postgres.URL == "" {
			return fmt.Errorf("config: POSTGRES_URL is required for the postgres directory")
		}
	default:
		return fmt.Errorf("config: unsupported DIRECTORY_BACKEND %q", c.DirectoryBackend)
	}
	return nil
}
