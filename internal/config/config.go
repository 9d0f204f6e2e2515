package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything read from the environment at startup. Load it once
// in main and pass it down; nothing here is global.
type Config struct {
	Port        string
	FrontendURL string

	DatabaseDSN string
	RedisAddr   string
	RedisDB     int

	JWTSecret string
	JWTExpire time.Duration

	RateLimitWindow time.Duration
	RateLimitMax    int
}

// Load reads the environment (godotenv should already have run) and applies
// defaults matching local docker-compose development.
func Load() Config {
	return Config{
		Port:        getEnv("PORT", "5000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		DatabaseDSN: getEnv("DATABASE_DSN",
			"host=localhost user=user password=password dbname=collabcode port=5432 sslmode=disable"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", "dev-only-secret-change-me"),
		JWTExpire: getEnvDuration("JWT_EXPIRE", 7*24*time.Hour),

		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 100),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
