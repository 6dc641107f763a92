package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	pkgcfg "github.com/djloghub/portfolio-backend/pkg/config"
)

// MinSecretBytes is the shortest HS256 signing key accepted at startup.
const MinSecretBytes = 32

type Config struct {
	Env        string
	ServerPort int
	LogLevel   string

	CORSAllowOrigins []string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StoreTimeout  time.Duration

	JWTSecret   []byte
	TokenTTL    time.Duration
	SessionTTL  time.Duration
	MaxSessions int

	RateLimitRequests   int
	RateLimitWindow     time.Duration
	RateLimitMaxClients int

	BcryptCost    int
	AdminUsername string
	AdminPassword string

	KafkaBrokers       []string
	AuthEventsTopic    string
	ProjectEventsTopic string
}

// Load reads .env (if present) and the process environment into a validated
// Config. Any error here is meant to stop the process.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var errs []error
	intv := func(key string, def int) int {
		n, err := pkgcfg.EnvIntDefault(key, def)
		errs = append(errs, err)
		return n
	}
	dur := func(key string, def time.Duration) time.Duration {
		d, err := pkgcfg.EnvDurationDefault(key, def)
		errs = append(errs, err)
		return d
	}

	cfg := &Config{
		Env:        pkgcfg.EnvDefault("APP_ENV", "development"),
		ServerPort: intv("SERVER_PORT", 8080),
		LogLevel:   pkgcfg.EnvDefault("LOG_LEVEL", "info"),

		CORSAllowOrigins: pkgcfg.CSV(pkgcfg.EnvDefault("CORS_ALLOW_ORIGINS", "")),

		DatabaseURL: pkgcfg.EnvDefault("DATABASE_URL", ""),

		RedisAddr:     pkgcfg.EnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: pkgcfg.EnvDefault("REDIS_PASSWORD", ""),
		RedisDB:       intv("REDIS_DB", 0),
		StoreTimeout:  dur("STORE_TIMEOUT", 500*time.Millisecond),

		JWTSecret:   []byte(pkgcfg.EnvDefault("JWT_SECRET", "")),
		TokenTTL:    dur("TOKEN_TTL", 24*time.Hour),
		SessionTTL:  dur("SESSION_TTL", 24*time.Hour),
		MaxSessions: intv("MAX_SESSIONS", 3),

		RateLimitRequests:   intv("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:     dur("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMaxClients: intv("RATE_LIMIT_MAX_CLIENTS", 10000),

		BcryptCost:    intv("BCRYPT_COST", bcrypt.DefaultCost),
		AdminUsername: pkgcfg.EnvDefault("ADMIN_USERNAME", ""),
		AdminPassword: pkgcfg.EnvDefault("ADMIN_PASSWORD", ""),

		KafkaBrokers:       pkgcfg.CSV(pkgcfg.EnvDefault("KAFKA_BROKERS", "")),
		AuthEventsTopic:    pkgcfg.EnvDefault("AUTH_EVENTS_TOPIC", "auth_events"),
		ProjectEventsTopic: pkgcfg.EnvDefault("PROJECT_EVENTS_TOPIC", "project_events"),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	errs := []error{
		pkgcfg.RequireMinBytes(c.JWTSecret, MinSecretBytes, "JWT_SECRET"),
		pkgcfg.RequireNonEmpty(c.DatabaseURL, "DATABASE_URL"),
		pkgcfg.RequireNonEmpty(c.RedisAddr, "REDIS_ADDR"),
		pkgcfg.RequirePositive(c.ServerPort, "SERVER_PORT"),
		pkgcfg.RequirePositive(c.StoreTimeout, "STORE_TIMEOUT"),
		pkgcfg.RequirePositive(c.TokenTTL, "TOKEN_TTL"),
		pkgcfg.RequirePositive(c.SessionTTL, "SESSION_TTL"),
		pkgcfg.RequirePositive(c.MaxSessions, "MAX_SESSIONS"),
		pkgcfg.RequirePositive(c.RateLimitRequests, "RATE_LIMIT_REQUESTS"),
		pkgcfg.RequirePositive(c.RateLimitWindow, "RATE_LIMIT_WINDOW"),
		pkgcfg.RequirePositive(c.RateLimitMaxClients, "RATE_LIMIT_MAX_CLIENTS"),
	}
	if c.BcryptCost < bcrypt.DefaultCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("env BCRYPT_COST must be between %d and %d, got %d", bcrypt.DefaultCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if c.SessionTTL < c.TokenTTL {
		errs = append(errs, fmt.Errorf("env SESSION_TTL (%s) must not be shorter than TOKEN_TTL (%s)", c.SessionTTL, c.TokenTTL))
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
