package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// User store backends
const (
	StorePostgres = "postgres"
	StoreCasdoor  = "casdoor"
	StoreMemory   = "memory"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL      string
	DBConnectTimeout time.Duration
	DBAutoMigrate    bool

	RedisURL  string
	UserStore string

	Casdoor CasdoorConfig
	Session SessionConfig
	Events  EventsConfig

	CORSAllowedOrigin string
}

// CasdoorConfig holds the Casdoor identity provider settings
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

// Enabled reports whether enough settings are present to talk to Casdoor
func (c CasdoorConfig) Enabled() bool {
	return c.Endpoint != "" && c.ClientID != ""
}

type SessionConfig struct {
	CookieName   string
	TTL          time.Duration
	CookieSecure bool
}

type EventsConfig struct {
	KafkaBrokers []string
	Topic        string
}

// LoadConfig reads configuration from the environment, loading a .env file first when present
func LoadConfig() (*Config, error) {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBAutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),

		RedisURL:  getEnv("REDIS_URL", "redis://localhost:6379/0"),
		UserStore: strings.ToLower(getEnv("USER_STORE", StorePostgres)),

		Casdoor: CasdoorConfig{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         os.Getenv("CASDOOR_CERT"),
			Organization: os.Getenv("CASDOOR_ORGANIZATION"),
			Application:  os.Getenv("CASDOOR_APPLICATION"),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE_NAME", "profile_session"),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
		},
		Events: EventsConfig{
			KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:        getEnv("EVENTS_TOPIC", "profile-events"),
		},

		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
	}

	var err error
	if cfg.DBConnectTimeout, err = getEnvDuration("DB_CONNECT_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Session.TTL, err = getEnvDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected backends have the settings they need
func (c *Config) Validate() error {
	switch c.UserStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when USER_STORE=%s", StorePostgres)
		}
	case StoreCasdoor:
		if !c.Casdoor.Enabled() {
			return fmt.Errorf("CASDOOR_ENDPOINT and CASDOOR_CLIENT_ID are required when USER_STORE=%s", StoreCasdoor)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported USER_STORE %q", c.UserStore)
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required for the session store")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
