package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Port              string
	RateLimit         string // ulule format, e.g. "120-M"
	LowStockThreshold int
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
	LogLevel string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis server is configured. Without one the
// application falls back to the in-process cache.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Load reads .env (if any) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		App: AppConfig{
			Port:              getEnv("PORT", "3000"),
			RateLimit:         getEnv("RATE_LIMIT", "120-M"),
			LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 10),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "warehouse"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "Asia/Jakarta"),
			LogLevel: getEnv("DB_LOG_LEVEL", "warn"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			TokenTTL:  time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
	}
}

// GetDSN returns DATABASE_URL when set, otherwise builds a key/value DSN.
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.TimeZone)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, value, fallback)
		return fallback
	}
	return n
}
