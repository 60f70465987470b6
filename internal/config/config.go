package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName        = "LoanLens"
	defaultAppEnv         = "development"
	defaultPort           = "8300"
	defaultLogLevel       = "info"
	defaultAPIBaseURL     = "http://localhost:8300"
	defaultSessionBackend = BackendFile
	defaultHTTPTimeout    = 30 * time.Second
	defaultTokenTTL       = time.Hour
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
)

// Session backends understood by the consoles.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config captures runtime configuration for the consoles and the simulator,
// loaded from environment variables (optionally seeded from a .env file).
type Config struct {
	AppName string
	AppEnv  string

	// Console settings.
	APIBaseURL     string
	StateDir       string
	SessionBackend string
	HTTPTimeout    time.Duration

	// Simulator settings.
	Port           string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	TokenTTL       time.Duration
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	LogLevel string
}

// Load reads configuration values from the environment and populates a Config
// instance. A .env file in the working directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		APIBaseURL:     strings.TrimRight(getEnv("LOANLENS_API_URL", defaultAPIBaseURL), "/"),
		StateDir:       os.Getenv("LOANLENS_STATE_DIR"),
		SessionBackend: strings.ToLower(getEnv("LOANLENS_SESSION_BACKEND", defaultSessionBackend)),
		Port:           getEnv("PORT", defaultPort),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		HTTPTimeout:    defaultHTTPTimeout,
		TokenTTL:       defaultTokenTTL,
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
	}

	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve state dir: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".loanlens")
	}

	switch cfg.SessionBackend {
	case BackendFile, BackendRedis:
	default:
		return Config{}, fmt.Errorf("invalid LOANLENS_SESSION_BACKEND %q", cfg.SessionBackend)
	}
	if cfg.SessionBackend == BackendRedis && cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set when LOANLENS_SESSION_BACKEND=redis")
	}

	var err error
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", "HTTP_TIMEOUT_SECONDS", cfg.HTTPTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", "TOKEN_TTL_SECONDS", cfg.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", "IDEMPOTENCY_TTL_SECONDS", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Address returns the simulator listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func durationEnv(durKey, secondsKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
