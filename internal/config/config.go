package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"

	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Prefix is prepended to every variable name below.
const Prefix = "FRONTDESK_"

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":9090"`

	Env      string `env:"ENV" envDefault:"dev"` // "dev" | "prod"
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Storage
	Store       string `env:"STORE" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH" envDefault:"./data/frontdesk.db"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret  string   `env:"JWT_SECRET"`
	AdminRoles []string `env:"ADMIN_ROLES" envDefault:"admin" envSeparator:","`

	// Check-in policy defaults passed into every CheckIn call.
	RequirePhoto     bool `env:"REQUIRE_PHOTO" envDefault:"false"`
	RequireSignature bool `env:"REQUIRE_SIGNATURE" envDefault:"false"`

	HealthIntervalSeconds int `env:"HEALTH_INTERVAL_SECONDS" envDefault:"15"`
	ScanIntervalSeconds   int `env:"SCAN_INTERVAL_SECONDS" envDefault:"300"` // 0 = disabled
}

// Load reads .env and .env.local when present, then the process
// environment. Variables already set in the environment win over the files.
func Load() (Config, error) {
	if _, err := LoadEnv([]string{".env", ".env.local"}); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the process environment only.
func FromEnv() (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	c.normalize()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadEnv loads the files that exist and reports how many did.
func LoadEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env != EnvDev && c.Env != EnvProd {
		// fail-soft: treat unknown as dev
		c.Env = EnvDev
	}
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	roles := c.AdminRoles[:0]
	for _, r := range c.AdminRoles {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	c.AdminRoles = roles

	if c.HealthIntervalSeconds <= 0 {
		c.HealthIntervalSeconds = 15
	}
	if c.ScanIntervalSeconds < 0 {
		c.ScanIntervalSeconds = 0
	}
}

func (c Config) validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("FRONTDESK_DATABASE_URL is required when FRONTDESK_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown FRONTDESK_STORE %q", c.Store)
	}
	if c.Env == EnvProd && c.JWTSecret == "" {
		return errors.New("FRONTDESK_JWT_SECRET is required in prod")
	}
	if len(c.AdminRoles) == 0 {
		return errors.New("FRONTDESK_ADMIN_ROLES must name at least one role")
	}
	return nil
}

func (c Config) IsProd() bool { return c.Env == EnvProd }

// IsAdminRole reports whether role may approve and reject requests.
func (c Config) IsAdminRole(role string) bool {
	for _, r := range c.AdminRoles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
