package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Auth     AuthConfig
	Search   SearchConfig
	Worker   WorkerConfig
	Log      LogConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string
	URL        string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port   int
	AppEnv string
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string
}

// SearchConfig holds match search defaults
type SearchConfig struct {
	TimeZone                 string
	FallbackLatitude         float64
	FallbackLongitude        float64
	RestartOnExhaustedCursor bool
}

// WorkerConfig sizes the async persistence pool
type WorkerConfig struct {
	Count     int
	QueueSize int
}

type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// A missing .env is fine; the process environment is used as-is.
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("../.env")
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			URL:        getEnv("DATABASE_URL", ""),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "tennis"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "tennis.db"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Username: getEnv("REDIS_USERNAME", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Port:   getEnvAsInt("BACKEND_PORT", 8080),
			AppEnv: getEnv("APP_ENV", "production"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Search: SearchConfig{
			TimeZone: getEnv("TIMEZONE", "Asia/Seoul"),
			// Seoul City Hall
			FallbackLatitude:         getEnvAsFloat("SEARCH_FALLBACK_LATITUDE", 37.5665),
			FallbackLongitude:        getEnvAsFloat("SEARCH_FALLBACK_LONGITUDE", 126.9780),
			RestartOnExhaustedCursor: getEnvAsBool("SEARCH_RESTART_ON_EXHAUSTED_CURSOR", true),
		},
		Worker: WorkerConfig{
			Count:     getEnvAsInt("WORKER_COUNT", 10),
			QueueSize: getEnvAsInt("WORKER_QUEUE_SIZE", 1000),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the loaded values are usable
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if _, err := time.LoadLocation(c.Search.TimeZone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Search.TimeZone, err)
	}
	if c.Search.FallbackLatitude < -90 || c.Search.FallbackLatitude > 90 {
		return fmt.Errorf("SEARCH_FALLBACK_LATITUDE out of range: %v", c.Search.FallbackLatitude)
	}
	if c.Search.FallbackLongitude < -180 || c.Search.FallbackLongitude > 180 {
		return fmt.Errorf("SEARCH_FALLBACK_LONGITUDE out of range: %v", c.Search.FallbackLongitude)
	}
	if c.Worker.Count <= 0 || c.Worker.QueueSize <= 0 {
		return fmt.Errorf("WORKER_COUNT and WORKER_QUEUE_SIZE must be positive")
	}
	return nil
}

// IsDevelopment reports whether APP_ENV is development
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development"
}

// Location returns the time zone used for calendar dates in search requests
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Search.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetDSN returns the PostgreSQL DSN
func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
