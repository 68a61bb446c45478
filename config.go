package accounts

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Config holds the process wide options: signing secret, token expiry, and
// the store connection string. It is constructed once at startup and passed
// by reference; the secret is never embedded in source.
type Config struct {
	HTTPAddr        string
	DatabaseDSN     string
	SigningKey      string
	TokenExpiration time.Duration
	Issuer          string
	Audience        []string
	ContextKey      string
	AuthScheme      string
	TokenLookup     string
	Debug           bool
}

// LoadConfig reads the environment, honoring a local .env file when present.
func LoadConfig() (*Config, error) {
	// Missing .env is fine, real environments export directly.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":5000"),
		DatabaseDSN:     getEnv("DATABASE_DSN", "file:accounts.db?cache=shared&_pragma=foreign_keys(1)"),
		SigningKey:      os.Getenv("JWT_SECRET"),
		TokenExpiration: 24 * time.Hour,
		Issuer:          os.Getenv("JWT_ISSUER"),
		ContextKey:      getEnv("AUTH_CONTEXT_KEY", "user"),
		AuthScheme:      getEnv("AUTH_SCHEME", "Bearer"),
		TokenLookup:     getEnv("AUTH_TOKEN_LOOKUP", "header:Authorization"),
	}

	if cfg.SigningKey == "" {
		return nil, errors.New("JWT_SECRET is required", errors.CategoryBadInput)
	}

	if raw := os.Getenv("JWT_EXPIRE"); raw != "" {
		expire, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid JWT_EXPIRE duration")
		}
		cfg.TokenExpiration = expire
	}

	if raw := os.Getenv("JWT_AUDIENCE"); raw != "" {
		for _, aud := range strings.Split(raw, ",") {
			if aud = strings.TrimSpace(aud); aud != "" {
				cfg.Audience = append(cfg.Audience, aud)
			}
		}
	}

	if raw := os.Getenv("DEBUG"); raw != "" {
		if debug, err := strconv.ParseBool(raw); err == nil {
			cfg.Debug = debug
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
