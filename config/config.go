package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Products ProductsAPIConfig
	Session  SessionConfig
	App      AppConfig
}

type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig selects where the catalog and cart collections are persisted.
type StorageConfig struct {
	Backend       string
	KeyPrefix     string
	Debounce      time.Duration
	FlushSchedule string
	EventsChannel string
}

type ProductsAPIConfig struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

type SessionConfig struct {
	JWTSecret string
	TTL       time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
			KeyPrefix:     getEnv("STORAGE_KEY_PREFIX", "storefront:"),
			Debounce:      getEnvAsDuration("PERSIST_DEBOUNCE", 150*time.Millisecond),
			FlushSchedule: getEnv("PERSIST_FLUSH_SCHEDULE", "@every 30s"),
			EventsChannel: getEnv("EVENTS_CHANNEL", "storefront:events"),
		},
		Products: ProductsAPIConfig{
			BaseURL: strings.TrimRight(getEnv("PRODUCTS_API_URL", "https://fakestoreapi.com"), "/"),
			Timeout: getEnvAsDuration("PRODUCTS_API_TIMEOUT", 0),
			RPS:     getEnvAsFloat("PRODUCTS_API_RPS", 5),
			Burst:   getEnvAsInt("PRODUCTS_API_BURST", 10),
		},
		Session: SessionConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TTL:       getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if cfg.Session.JWTSecret == "" && cfg.App.Environment != "production" {
		cfg.Session.JWTSecret = "storefront-dev-secret"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis storage backend")
		}
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required for the postgres storage backend")
		}
		if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
			return fmt.Errorf("DB_DRIVER must be postgres or pgx, got %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if c.Storage.Debounce <= 0 {
		return fmt.Errorf("PERSIST_DEBOUNCE must be positive")
	}

	if c.Products.BaseURL == "" {
		return fmt.Errorf("PRODUCTS_API_URL is required")
	}

	if c.Session.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
