package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/meetup-social/meetup-api/internal/pkg/security"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth    AuthConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Mail    MailConfig
	Storage StorageConfig
	Workers WorkerConfig
}

// AuthConfig holds the signing secrets and credential tunables. The secret
// fields must never be logged.
type AuthConfig struct {
	TokenSecret              string        `env:"TOKEN_SECRET"`
	VerificationCodeSecret   string        `env:"HMAC_VERIFICATION_CODE_SECRET"`
	ForgotPasswordCodeSecret string        `env:"HMAC_FORGOT_PASSWORD_CODE_SECRET"`
	BcryptCost               int           `env:"BCRYPT_COST,        default=12"`
	CodeTTL                  time.Duration `env:"CODE_TTL,           default=5m"`
	SessionCookieTTL         time.Duration `env:"SESSION_COOKIE_TTL, default=8h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=meetup"`
}

type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR,      default=localhost:6379"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB,        default=0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

type MailConfig struct {
	SMTPHost        string        `env:"SMTP_HOST,             default=localhost"`
	SMTPPort        int           `env:"SMTP_PORT,             default=587"`
	SMTPUser        string        `env:"SMTP_USER"`
	SMTPPassword    string        `env:"SMTP_PASSWORD"`
	From            string        `env:"MAIL_FROM"`
	DispatchTimeout time.Duration `env:"MAIL_DISPATCH_TIMEOUT, default=10s"`
}

// StorageConfig points at an S3-compatible bucket. An empty bucket disables
// picture uploads.
type StorageConfig struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION, default=us-east-1"`
	Bucket    string `env:"S3_BUCKET"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	PublicURL string `env:"S3_PUBLIC_URL"`
}

type WorkerConfig struct {
	FollowUps int `env:"FOLLOWUP_WORKERS, default=4"`
}

// Production reports whether the service runs in production mode.
func (c *Config) Production() bool { return c.Env == "production" }

// Keys gathers the secrets into the value handed to security components.
func (c *Config) Keys() security.Keys {
	return security.Keys{
		TokenSecret:              []byte(c.Auth.TokenSecret),
		VerificationCodeSecret:   []byte(c.Auth.VerificationCodeSecret),
		ForgotPasswordCodeSecret: []byte(c.Auth.ForgotPasswordCodeSecret),
	}
}

// Validate rejects configurations the service cannot run safely with.
func (c *Config) Validate() error {
	if err := c.Keys().Validate(); err != nil {
		return fmt.Errorf("config: TOKEN_SECRET, HMAC_VERIFICATION_CODE_SECRET and HMAC_FORGOT_PASSWORD_CODE_SECRET: %w", err)
	}
	if c.Mail.From == "" {
		return errors.New("config: MAIL_FROM is required")
	}
	if c.Auth.CodeTTL <= 0 {
		return errors.New("config: CODE_TTL must be positive")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
