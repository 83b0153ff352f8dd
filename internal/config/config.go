package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultDSN         = "data/porkorder.db"
	defaultCORSOrigins = "http://localhost:5173"
	defaultCompany     = "理皓肉品有限公司"
)

type Config struct {
	HTTPPort          string
	DBDriver          string // sqlite or postgres
	DatabaseDSN       string
	JWTSecret         string
	AdminPasswordHash string // bcrypt
	TokenTTL          time.Duration
	CORSOrigins       string
	CompanyName       string
	LogLevel          string
	LogFormat         string
	SeedDefaults      bool
}

// Load reads the environment, after merging a .env file when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseDSN:       getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		TokenTTL:          getEnvDuration("TOKEN_TTL", 24*time.Hour),
		CORSOrigins:       getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		CompanyName:       getEnv("COMPANY_NAME", defaultCompany),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		SeedDefaults:      getEnvBool("SEED_DEFAULTS", true),
	}

	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	if cfg.AdminPasswordHash == "" {
		pwd := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))
		if pwd == "" {
			return nil, fmt.Errorf("one of ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		cfg.AdminPasswordHash = string(hash)
	} else if _, err := bcrypt.Cost([]byte(cfg.AdminPasswordHash)); err != nil {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
	}

	if cfg.DBDriver == "sqlite" && cfg.DatabaseDSN == defaultDSN {
		log.Warn().Str("dsn", cfg.DatabaseDSN).Msg("DATABASE_DSN not set, using local sqlite file")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		log.Warn().Msg("CORS_ALLOWED_ORIGINS not set, only the local dev front-end is allowed")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
