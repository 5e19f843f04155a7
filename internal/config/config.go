package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration read from the environment (and an optional .env file).
type Config struct {
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	AppName string `envconfig:"APP_NAME" default:"Inventory POS v1.0"`
	Port    string `envconfig:"PORT" default:"3000"`

	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	DBHost          string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort          string        `envconfig:"DB_PORT" default:"5432"`
	DBUser          string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword      string        `envconfig:"DB_PASSWORD"`
	DBName          string        `envconfig:"DB_NAME" default:"inventory"`
	DBTimeZone      string        `envconfig:"DB_TIMEZONE" default:"UTC"`
	DBMaxOpenConns  int           `envconfig:"DB_MAX_OPEN_CONNS" default:"100"`
	DBMaxIdleConns  int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	DBConnLifetime  time.Duration `envconfig:"DB_CONN_LIFETIME" default:"1h"`
	DBSlowThreshold time.Duration `envconfig:"DB_SLOW_THRESHOLD" default:"200ms"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// Bootstrap account created when no master admin exists.
	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@example.com"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin123"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	// Empty disables the per-order transition lock.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	LockTTL       time.Duration `envconfig:"LOCK_TTL" default:"30s"`

	StorageDriver    string `envconfig:"STORAGE_DRIVER" default:"local"`
	StorageLocalDir  string `envconfig:"STORAGE_LOCAL_DIR" default:"./uploads"`
	StoragePublicURL string `envconfig:"STORAGE_PUBLIC_URL" default:"/uploads"`
	S3Endpoint       string `envconfig:"S3_ENDPOINT"`
	S3Region         string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket         string `envconfig:"S3_BUCKET"`
	S3AccessKey      string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey      string `envconfig:"S3_SECRET_KEY"`
	S3UsePathStyle   bool   `envconfig:"S3_USE_PATH_STYLE" default:"true"`

	ChromeRemoteURL string        `envconfig:"CHROME_REMOTE_URL"`
	PDFTimeout      time.Duration `envconfig:"PDF_TIMEOUT" default:"30s"`

	BodyLimitMB     int           `envconfig:"BODY_LIMIT_MB" default:"4"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"120"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	AllowedOrigins  string        `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// Load reads .env (if present) and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	found := godotenv.Load() == nil

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, found, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, found, err
	}
	return &cfg, found, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set in production")
	}
	switch c.StorageDriver {
	case "local":
	case "s3":
		if c.S3Bucket == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return errors.New("config: S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.BodyLimitMB <= 0 {
		return errors.New("config: BODY_LIMIT_MB must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && strings.EqualFold(c.AppEnv, "production")
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBTimeZone,
	)
}

// BodyLimitBytes converts BODY_LIMIT_MB into bytes for fiber.Config.
func (c *Config) BodyLimitBytes() int {
	return c.BodyLimitMB * 1024 * 1024
}
