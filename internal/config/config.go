package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"

	devJWTSecret = "studymate-dev-secret"
)

type Config struct {
	Port string

	LogLevel string
	Env      string

	JWTSecret string
	JWTTTL    time.Duration

	StorageBackend string
	DatabaseURL    string
	RedisURL       string

	UploadDir      string
	MaxUploadBytes int64

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	AITimeout     time.Duration
	AICacheTTL    time.Duration

	CORSOrigins []string

	// TrustedProxies lists the proxies whose X-Forwarded-For is believed
	// when resolving the client IP. Empty means the socket address is used.
	TrustedProxies []string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig reads the environment. Outside production a .env file in the
// working directory is loaded first; variables already set win over it.
func LoadConfig() (*Config, error) {
	if GetEnv("ENV", "development") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{
		Port:           GetEnv("PORT", "5000"),
		Env:            GetEnv("ENV", "development"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		JWTSecret:      GetEnv("JWT_SECRET", ""),
		StorageBackend: strings.ToLower(GetEnv("STORAGE_BACKEND", BackendMemory)),
		DatabaseURL:    GetEnv("DATABASE_URL", ""),
		RedisURL:       GetEnv("REDIS_URL", ""),
		UploadDir:      GetEnv("UPLOAD_DIR", "uploads"),
		OpenAIAPIKey:   GetEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  GetEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:    GetEnv("OPENAI_MODEL", "gpt-4o"),
		CORSOrigins:    splitList(GetEnv("CORS_ORIGINS", "http://localhost:5173")),
		TrustedProxies: splitList(GetEnv("TRUSTED_PROXIES", "")),
	}

	var err error
	if cfg.JWTTTL, err = hoursEnv("JWT_TTL_HOURS", 24); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = int64Env("MAX_UPLOAD_BYTES", 10<<20); err != nil {
		return nil, err
	}
	timeoutSecs, err := int64Env("AI_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.AITimeout = time.Duration(timeoutSecs) * time.Second
	cacheMins, err := int64Env("AI_CACHE_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	cfg.AICacheTTL = time.Duration(cacheMins) * time.Minute

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want memory or postgres)", c.StorageBackend)
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		c.JWTSecret = devJWTSecret
	}
	return nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func int64Env(key string, defaultValue int64) (int64, error) {
	raw := GetEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func hoursEnv(key string, defaultHours int64) (time.Duration, error) {
	n, err := int64Env(key, defaultHours)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Hour, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
