package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is built once at startup and handed to every constructor that needs it.
type Config struct {
	Port string

	DatabaseURL     string
	DatabaseDriver  string // postgres | pgx
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	SecretKey  string
	TokenTTL   time.Duration
	BcryptCost int

	AdminRole   string
	DefaultRole string

	AllowOrigins []string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		log.Println("no .env file found, using process environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Load uses os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:           valueOr(getenv("APP_PORT"), "8080"),
		DatabaseURL:    getenv("DATABASE_URL"),
		DatabaseDriver: strings.ToLower(valueOr(getenv("DB_DRIVER"), "postgres")),
		SecretKey:      getenv("SECRET_KEY"),
		AdminRole:      valueOr(getenv("ADMIN_ROLE"), "Administrator"),
		DefaultRole:    valueOr(getenv("DEFAULT_ROLE"), "Customer"),
		AllowOrigins:   splitList(valueOr(getenv("ALLOW_ORIGINS"), "*")),
	}

	var err error
	if cfg.TokenTTL, err = durationOr(getenv("TOKEN_TTL"), 24*time.Hour); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.ConnMaxLifetime, err = durationOr(getenv("DB_CONN_MAX_LIFETIME"), 30*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	if cfg.BcryptCost, err = intOr(getenv("BCRYPT_COST"), bcrypt.DefaultCost); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cfg.MaxOpenConns, err = intOr(getenv("DB_MAX_OPEN_CONNS"), 25); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.MaxIdleConns, err = intOr(getenv("DB_MAX_IDLE_CONNS"), 5); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	switch c.DatabaseDriver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (allowed: postgres, pgx)", c.DatabaseDriver)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

func valueOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func durationOr(v string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return time.ParseDuration(strings.TrimSpace(v))
}

func intOr(v string, def int) (int, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return strconv.Atoi(strings.TrimSpace(v))
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
